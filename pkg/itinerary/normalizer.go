package itinerary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aretw0/gashu/internal/logging"
	"github.com/aretw0/gashu/pkg/domain"
	"github.com/aretw0/gashu/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// UnknownRoute names a bus leg the provider did not label.
const UnknownRoute = "알 수 없음"

const (
	modeWalk = "WALK"
	modeBus  = "BUS"
)

// providerTree is the envelope of a transit directions response.
type providerTree struct {
	MetaData struct {
		Plan struct {
			Itineraries []json.RawMessage `json:"itineraries"`
		} `json:"plan"`
	} `json:"metaData"`
}

type rawItinerary struct {
	TotalTime     int `mapstructure:"totalTime"`
	TransferCount int `mapstructure:"transferCount"`
	Fare          struct {
		Regular struct {
			TotalFare int `mapstructure:"totalFare"`
		} `mapstructure:"regular"`
	} `mapstructure:"fare"`
	Legs []rawLeg `mapstructure:"legs"`
}

type rawLeg struct {
	Mode         string   `mapstructure:"mode"`
	Distance     float64  `mapstructure:"distance"`
	SectionTime  int      `mapstructure:"sectionTime"`
	Route        string   `mapstructure:"route"`
	Start        rawPlace `mapstructure:"start"`
	End          rawPlace `mapstructure:"end"`
	PassStopList struct {
		StationList []rawStation `mapstructure:"stationList"`
	} `mapstructure:"passStopList"`
}

type rawPlace struct {
	Name string `mapstructure:"name"`
}

type rawStation struct {
	StationName string  `mapstructure:"stationName"`
	Lat         float64 `mapstructure:"lat"`
	Lon         float64 `mapstructure:"lon"`
}

// Normalizer flattens raw directions trees into domain itineraries.
type Normalizer struct {
	resolver ports.NearestStationResolver
	logger   *slog.Logger
}

// Option configures the Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger used to report skipped itineraries.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// New creates a Normalizer that maps boarding stops through resolver.
func New(resolver ports.NearestStationResolver, opts ...Option) *Normalizer {
	n := &Normalizer{
		resolver: resolver,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts a raw provider tree into itineraries, preserving the
// provider's order. Entries that fail to normalize are skipped. Only an
// undecodable envelope is reported as an error; an empty tree yields an
// empty list. A JSON array is already normalized output and carries no
// provider envelope, so it also yields an empty list.
func (n *Normalizer) Normalize(ctx context.Context, raw []byte) ([]domain.Itinerary, error) {
	out := []domain.Itinerary{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" || raw[0] == '[' {
		return out, nil
	}

	var tree providerTree
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("failed to decode directions tree: %w", err)
	}

	for i, entry := range tree.MetaData.Plan.Itineraries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		it, ok, err := n.normalizeOne(ctx, entry)
		if err != nil {
			n.logger.Warn("Skipping malformed itinerary", "index", i, "err", err)
			continue
		}
		if !ok {
			n.logger.Debug("Dropping itinerary without bus legs", "index", i)
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// normalizeOne reports false when the itinerary has no usable bus leg.
func (n *Normalizer) normalizeOne(ctx context.Context, entry json.RawMessage) (it domain.Itinerary, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while normalizing: %v", r)
		}
	}()

	src, err := decode(entry)
	if err != nil {
		return it, false, err
	}

	it = domain.Itinerary{
		TotalTime:     src.TotalTime / 60,
		Fare:          src.Fare.Regular.TotalFare,
		TransferCount: src.TransferCount,
		BusRoutes:     []domain.BusRoute{},
		WalkSegments:  []domain.WalkSegment{},
	}

	for i, leg := range src.Legs {
		switch leg.Mode {
		case modeWalk:
			minutes := leg.SectionTime / 60
			it.TotalWalkTime += minutes
			it.WalkSegments = append(it.WalkSegments, domain.WalkSegment{
				Type:      classifyWalk(src.Legs, i),
				Distance:  int(leg.Distance),
				Time:      minutes,
				StartName: leg.Start.Name,
				EndName:   leg.End.Name,
			})
		case modeBus:
			stops := leg.PassStopList.StationList
			if len(stops) == 0 {
				continue
			}
			first, last := stops[0], stops[len(stops)-1]
			nodeID, err := n.resolver.NearestStation(ctx, first.Lat, first.Lon)
			if err != nil {
				return it, false, fmt.Errorf("failed to resolve stop %q: %w", first.StationName, err)
			}
			route := leg.Route
			if route == "" {
				route = UnknownRoute
			}
			it.BusRoutes = append(it.BusRoutes, domain.BusRoute{
				RouteName:    route,
				StartStation: first.StationName,
				EndStation:   last.StationName,
				StartNodeID:  nodeID,
			})
		}
	}

	return it, len(it.BusRoutes) > 0, nil
}

// classifyWalk labels a walk leg from the modes of its neighbours only.
func classifyWalk(legs []rawLeg, i int) domain.WalkType {
	prev, next := "", ""
	if i > 0 {
		prev = legs[i-1].Mode
	}
	if i+1 < len(legs) {
		next = legs[i+1].Mode
	}

	switch {
	case i == 0 && next == modeBus:
		return domain.WalkStartToStation
	case prev == modeBus && next == modeBus:
		return domain.WalkTransfer
	case i == len(legs)-1 && prev == modeBus:
		return domain.WalkStationToDest
	default:
		return domain.WalkUnknown
	}
}

// decode goes through a generic map so numeric strings and numbers are
// accepted interchangeably.
func decode(entry json.RawMessage) (rawItinerary, error) {
	var out rawItinerary
	var generic map[string]any
	if err := json.Unmarshal(entry, &generic); err != nil {
		return out, fmt.Errorf("itinerary is not an object: %w", err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(generic); err != nil {
		return out, fmt.Errorf("failed to decode itinerary: %w", err)
	}
	return out, nil
}
