/*
Package observability provides tools for monitoring the gashu engine.

It includes Prometheus metrics fed by lifecycle hooks and a helper to combine
several hook sets (for example metrics plus audit logging) into one.
*/
package observability
