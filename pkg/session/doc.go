/*
Package session implements per-user session access.

Manager serialises turns of the same user with a reference-counted mutex map
and, when configured, a distributed lock shared by all replicas. Sessions are
created lazily with default slots and persisted through a ports.SessionStore.
*/
package session
