/*
Package ports defines the driven ports (interfaces) of the transit assistant.

These interfaces decouple the turn orchestrator from storage backends, model
providers and public transit APIs.

# Key Interfaces

  - SessionStore: persists and loads per-user Session records.
  - DistributedLocker: serialises turns of one user across replicas.
  - Classifier, DestDialogue, DepDialogue, RouteDialogue: model-backed
    text-in/JSON-out collaborators.
  - AddressSearcher, Geocoder, DirectionsProvider, NearestStationResolver,
    ArrivalProvider: place, route and arrival lookups.
*/
package ports
