/*
Package domain contains the core models of the transit assistant.

It is kept free of I/O: stores, collaborators and transports live behind the
interfaces in package ports.

# Key Entities

  - Session: the per-user slot record driving the dialogue (macro-state,
    sub-state, requested places, candidates, coordinates, cached route).
  - Itinerary: one normalized route option with bus legs and walk segments.
  - Classification, DestReply, DepReply, RouteReply: collaborator outputs,
    wrapped in Parsed to make decode failures explicit.
  - LifecycleHooks: observability callbacks fired by the orchestrator.
*/
package domain
