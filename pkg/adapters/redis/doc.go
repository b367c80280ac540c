// Package redis persists traversal snapshots in Redis and coordinates sessions
// across replicas with a SET NX lock.
package redis
