/*
Package domain contains the core domain models of the murmur dialogue engine.

It defines the authored dialogue graph and the runtime records produced while walking
it. The package is kept pure and free of I/O, following Hexagonal Architecture
principles.

# Key Entities

  - Node: A point in the dialogue graph with ordered content items and parent/child links.
  - Content: One unit of dialogue text, translated per language.
  - ProcessedDialogue: The resolved, post-processed text actually shown for a (node, index) pair.
  - Snapshot: A persisted traversal (current dialogue, history, branch slots).
  - LifecycleHooks: Observability callbacks fired by the traversal engine.
*/
package domain
