/*
Package ports defines the driven ports (interfaces) for the murmur engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various graph sources, display surfaces and storage backends.

# Key Interfaces

  - NodeRegistry: Resolves dialogue nodes by ID (e.g., from Memory or YAML).
  - TextTarget: A display surface a reader writes characters to.
  - SnapshotStore: Persists and loads traversal snapshots.
  - DistributedLocker: Provides distributed locking for concurrent session access.
*/
package ports
