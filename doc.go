/*
Package murmur is a branching dialogue engine with typewriter-style text reveal.

It walks an authored graph of dialogue nodes forward and backward, presents
several children at once as choices, and reveals each dialogue one character at
a time on any text surface the host provides.

# Concept

Two engines cooperate. A reveal reader (pkg/reveal) animates one body of text on
one surface and is driven exclusively by Tick. The traversal engine decides what
each surface shows: the next content item of a node, its only child, or every
child in the branch slots. A history of shown dialogues makes every forward step
reversible.

The host owns the frame loop: it calls Tick with the time elapsed since the last
frame, and navigates (Advance, SelectBranch, StepBack) in response to input.
Nothing blocks and nothing runs in the background.

# Key Features

  - Frame-driven reveal with per-character delays, pause, rewind and interception events.
  - Branch presentation across any number of display slots.
  - History-based rewind, including concatenated dialogue chains.
  - Text processors for variables and templates.
  - Snapshots for persistence (memory or Redis) and an HTTP session surface.

# Usage

	registry, err := memory.NewBuilder().
		Add("intro", memory.Lines("en", "Hello.", "Welcome back.")...).
		Add("forest", memory.Lines("en", "Trees everywhere.")...).
		Link("intro", "forest").
		Build()
	if err != nil {
		log.Fatal(err)
	}

	eng, err := murmur.New(registry,
		murmur.WithReaderOptions(reveal.WithDefaultDelay(30*time.Millisecond)),
	)
	if err != nil {
		log.Fatal(err)
	}

	if err := eng.StartDialogue("intro"); err != nil {
		log.Fatal(err)
	}

	// Once per frame:
	eng.Tick(elapsed)

	// On input:
	ok, err := eng.Advance()
*/
package murmur
