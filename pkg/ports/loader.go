package ports

import "github.com/aretw0/murmur/pkg/domain"

// NodeRegistry resolves dialogue nodes by ID.
// This allows the graph source (memory, YAML, authoring tools) to be decoupled.
type NodeRegistry interface {
	// FindNode returns the node with the given ID.
	// When several nodes share an ID, the first one in registry order wins.
	FindNode(id string) (*domain.Node, bool)

	// ListNodes returns every node in registry order.
	// This is used for validation and visualization tools (e.g. 'murmur graph').
	ListNodes() []*domain.Node
}
