// Package file stores traversal snapshots as JSON files on the local
// filesystem. It backs resumable sessions of the murmur CLI.
package file
