/*
Package session runs dialogue operations against persisted sessions.

Every operation restores the stored snapshot into a fresh engine, applies the
change and saves the new snapshot, so any replica sharing the store can serve
the next request. Access to one session is serialized with an in-process mutex
and, optionally, a distributed lock.
*/
package session
