/*
Package gashu is a conversational transit-assistance engine for bus riders.

Each user utterance is one turn. A turn is routed through a cascading
slot-filling state machine: first the destination is resolved (keyword
search, selection, geocoding), then the departure point (or the device
position), and finally route guidance, where itineraries fetched from a
directions provider are summarised and live bus arrivals are reported.
Every turn produces exactly one reply, and the per-user session is
persisted between turns.

# Architecture

The engine owns no I/O. Language models, place search, geocoding,
directions and arrival predictions are injected as Collaborators, and
sessions live behind a ports.SessionStore (memory, file or Redis). The
same Engine backs the HTTP server, the MCP server and the terminal chat.

# Usage

	eng, err := gashu.New(gashu.Collaborators{
		Classifier: dlg,
		Dest:       dlg,
		Dep:        dlg,
		Route:      dlg,
		Search:     kakaoClient,
		Geocoder:   kakaoClient,
		Directions: tmapClient,
		Normalizer: itinerary.New(stations),
		Arrivals:   tagoClient,
	}, gashu.WithStore(redisStore))
	if err != nil {
		log.Fatal(err)
	}

	reply, err := eng.HandleTurn(ctx, gashu.TurnRequest{
		UserID:  "user-1",
		Message: "청주역 가고 싶어",
	})
	fmt.Println(reply.Message)
*/
package gashu
