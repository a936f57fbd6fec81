package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/gashu/pkg/domain"
)

// Collaborator names as reported to hooks and logs.
const (
	collabClassifier = "classifier"
	collabDest       = "dest_dialogue"
	collabDep        = "dep_dialogue"
	collabRoute      = "route_dialogue"
	collabSearch     = "address_search"
	collabGeocoder   = "geocoder"
	collabDirections = "directions"
	collabNormalizer = "normalizer"
	collabArrivals   = "arrivals"
)

// turn is the working state of one HandleTurn call.
type turn struct {
	o       *Orchestrator
	userID  string
	s       *domain.Session
	message string
	// prior is message_history as it was before this turn.
	prior []domain.Message
	// marks records each stage log length before this turn's user entry.
	marks map[domain.MacroState]int

	namedDest bool
	namedDep  bool

	steps    int
	handoffs int
	reply    string
	outcome  domain.TurnOutcome
	logger   *slog.Logger
}

// classify applies the classifier verdict. It reports false when the turn
// already has its reply.
func (t *turn) classify(ctx context.Context) bool {
	res, err := call(ctx, t, collabClassifier, func(ctx context.Context) (domain.Parsed[domain.Classification], error) {
		return t.o.c.Classifier.Classify(ctx, t.prior, t.message)
	})
	if err != nil {
		t.finish(msgApology, domain.OutcomeApology)
		return false
	}
	if !res.OK {
		t.logger.Warn("Unparseable classification", "raw", res.Raw)
		t.say(endpoint{}, msgRetry, domain.OutcomeRetry)
		return false
	}
	t.apply(res.Value)
	return true
}

// apply writes the classification into the session. The order is fixed:
// a named departure, then a named destination, then the error flag, and
// finally the classifier's own state, which always wins for routing.
func (t *turn) apply(c domain.Classification) {
	s := t.s
	s.RequiresDepCoord = false
	s.RequiresDestCoord = false
	s.ErrorFlag = false

	if c.Dep != "" {
		t.namedDep = true
		s.RequestedDep = c.Dep
		s.State = domain.StateSetDep
		s.SubState = domain.SubSearch
		if c.RequiresDepCoord {
			s.RequiresDepCoord = true
			s.SubState = domain.SubCoord
		}
	}
	if c.Dest != "" {
		t.namedDest = true
		s.RequestedDest = c.Dest
		s.State = domain.StateSetDest
		s.SubState = domain.SubSearch
		if c.RequiresDestCoord {
			s.RequiresDestCoord = true
			s.SubState = domain.SubCoord
		}
	}
	if c.Error {
		s.ErrorFlag = true
		s.State = domain.StateError
	}
	if c.State != "" {
		s.State = c.State
	}

	t.logger.Info("Classified utterance",
		"state", s.State,
		"sub_state", s.SubState,
		"dep", c.Dep,
		"dest", c.Dest,
	)
}

// loop runs handler steps until one of them produces the reply.
func (t *turn) loop(ctx context.Context) {
	prev := t.s.State
	for {
		if t.steps >= t.o.maxSteps {
			t.abort(fmt.Errorf("%w: %d steps", domain.ErrCascadeLimit, t.steps))
			return
		}
		state, sub := t.s.State, t.s.SubState
		if state != prev {
			t.handoffs++
			if t.handoffs > t.o.maxCascade {
				t.abort(fmt.Errorf("%w: %d handoffs", domain.ErrCascadeLimit, t.handoffs))
				return
			}
			prev = state
		}
		t.steps++
		t.o.emitStage(ctx, t.userID, t.s)
		t.logger.Debug("Stage step", "state", state, "sub_state", sub, "step", t.steps)

		var done bool
		switch state {
		case domain.StateSetDest:
			done = t.setDest(ctx)
		case domain.StateSetDep:
			done = t.setDep(ctx)
		case domain.StateMain:
			done = t.main(ctx)
		default:
			t.finish(msgOffTopic, domain.OutcomeDecline)
			return
		}
		if done {
			return
		}
		if t.s.State == state && t.s.SubState == sub {
			t.abort(fmt.Errorf("%w: %s/%s", domain.ErrNoProgress, state, sub))
			return
		}
	}
}

func (t *turn) abort(err error) {
	t.logger.Error("Aborting turn", "state", t.s.State, "sub_state", t.s.SubState, "err", err)
	t.finish(msgApology, domain.OutcomeAborted)
}

func (t *turn) finish(msg string, outcome domain.TurnOutcome) {
	t.reply = msg
	t.outcome = outcome
}

// record appends an assistant message to the shared history and to the
// stage log of e, if any.
func (t *turn) record(e endpoint, msg string) {
	entry := domain.Message{Role: domain.RoleAssistant, Content: msg}
	t.s.MessageHistory = append(t.s.MessageHistory, entry)
	if e.log != nil {
		*e.log = append(*e.log, entry)
	}
}

func (t *turn) say(e endpoint, msg string, outcome domain.TurnOutcome) {
	t.record(e, msg)
	t.finish(msg, outcome)
}

// call runs one collaborator under the per-call timeout. Panics become
// errors.
func call[T any](ctx context.Context, t *turn, name string, fn func(context.Context) (T, error)) (res T, err error) {
	ctx, cancel := context.WithTimeout(ctx, t.o.callTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", name, r)
		}
		t.o.emitCollaborator(ctx, t.userID, name, time.Since(start), err != nil)
		if err != nil {
			t.logger.Warn("Collaborator failed", "collaborator", name, "err", err)
		}
	}()
	return fn(ctx)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
