// Package middleware decorates snapshot stores. NewEncryptionMiddleware seals
// snapshots with AES-256-GCM before they reach the underlying store and
// supports key rotation through fallback keys.
package middleware
