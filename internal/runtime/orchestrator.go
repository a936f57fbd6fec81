package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/gashu/internal/logging"
	"github.com/aretw0/gashu/pkg/domain"
	"github.com/aretw0/gashu/pkg/ports"
	"github.com/aretw0/gashu/pkg/session"
)

const (
	// DefaultMaxCascade caps stage handoffs within one turn.
	DefaultMaxCascade = 3
	// DefaultMaxSteps caps handler steps within one turn.
	DefaultMaxSteps = 12
	// DefaultCallTimeout bounds every collaborator call.
	DefaultCallTimeout = 15 * time.Second
	// DefaultHistoryLimit is how many entries each dialogue log keeps.
	DefaultHistoryLimit = 40
)

// Normalizer turns a raw directions tree into itineraries.
type Normalizer interface {
	Normalize(ctx context.Context, raw []byte) ([]domain.Itinerary, error)
}

// Collaborators groups the external services a turn may call.
type Collaborators struct {
	Classifier ports.Classifier
	Dest       ports.DestDialogue
	Dep        ports.DepDialogue
	Route      ports.RouteDialogue
	Search     ports.AddressSearcher
	Geocoder   ports.Geocoder
	Directions ports.DirectionsProvider
	Normalizer Normalizer
	Arrivals   ports.ArrivalProvider
}

func (c Collaborators) validate() error {
	var missing []string
	check := func(name string, ok bool) {
		if !ok {
			missing = append(missing, name)
		}
	}
	check("classifier", c.Classifier != nil)
	check("dest dialogue", c.Dest != nil)
	check("dep dialogue", c.Dep != nil)
	check("route dialogue", c.Route != nil)
	check("address search", c.Search != nil)
	check("geocoder", c.Geocoder != nil)
	check("directions", c.Directions != nil)
	check("normalizer", c.Normalizer != nil)
	check("arrivals", c.Arrivals != nil)
	if len(missing) > 0 {
		return fmt.Errorf("missing collaborators: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Orchestrator runs user turns through the slot-filling state machine.
type Orchestrator struct {
	sessions *session.Manager
	c        Collaborators

	maxCascade   int
	maxSteps     int
	callTimeout  time.Duration
	historyLimit int
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithMaxCascade sets how many stage handoffs a single turn may perform.
func WithMaxCascade(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxCascade = n
		}
	}
}

// WithMaxSteps sets how many handler steps a single turn may perform.
func WithMaxSteps(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxSteps = n
		}
	}
}

// WithCallTimeout bounds each collaborator call.
func WithCallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.callTimeout = d
		}
	}
}

// WithHistoryLimit caps every dialogue log. Zero disables the cap.
func WithHistoryLimit(n int) Option {
	return func(o *Orchestrator) {
		o.historyLimit = n
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *Orchestrator) {
		o.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// New creates an Orchestrator. Every collaborator is required.
func New(sessions *session.Manager, c Collaborators, opts ...Option) (*Orchestrator, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	o := &Orchestrator{
		sessions:     sessions,
		c:            c,
		maxCascade:   DefaultMaxCascade,
		maxSteps:     DefaultMaxSteps,
		callTimeout:  DefaultCallTimeout,
		historyLimit: DefaultHistoryLimit,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// TurnRequest is one inbound utterance.
type TurnRequest struct {
	UserID  string
	Message string
	// GPS is the device position, when the client knows it.
	GPS *domain.Coord
}

// Reply is the single user-facing answer to a turn.
type Reply struct {
	Message  string             `json:"message"`
	Outcome  domain.TurnOutcome `json:"outcome"`
	State    domain.MacroState  `json:"state"`
	SubState domain.SubState    `json:"sub_state"`
}

// HandleTurn runs one turn for the user. Collaborator failures become
// apology replies; the error is reserved for bad input and for storage or
// locking failures.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (Reply, error) {
	if req.UserID == "" {
		return Reply{}, fmt.Errorf("user id is required")
	}
	msg, err := SanitizeInput(req.Message)
	if err != nil {
		return Reply{}, err
	}

	var reply Reply
	err = o.sessions.Update(ctx, req.UserID, func(ctx context.Context, s *domain.Session) error {
		if req.GPS != nil {
			gps := *req.GPS
			s.UserGPS = &gps
		}
		reply = o.run(ctx, req.UserID, s, msg)
		s.TrimHistory(o.historyLimit)
		return nil
	})
	if err != nil {
		return Reply{}, err
	}
	return reply, nil
}

// Init resets the user's session and stores the device position. A
// non-empty message then runs as the first turn; otherwise the reply is a
// greeting.
func (o *Orchestrator) Init(ctx context.Context, req TurnRequest) (Reply, error) {
	if req.UserID == "" {
		return Reply{}, fmt.Errorf("user id is required")
	}
	if err := o.sessions.Reset(ctx, req.UserID); err != nil {
		return Reply{}, err
	}
	if strings.TrimSpace(req.Message) != "" {
		return o.HandleTurn(ctx, req)
	}

	var reply Reply
	err := o.sessions.Update(ctx, req.UserID, func(_ context.Context, s *domain.Session) error {
		if req.GPS != nil {
			gps := *req.GPS
			s.UserGPS = &gps
		}
		s.MessageHistory = append(s.MessageHistory, domain.Message{Role: domain.RoleAssistant, Content: msgGreeting})
		reply = Reply{Message: msgGreeting, Outcome: domain.OutcomeReply, State: s.State, SubState: s.SubState}
		return nil
	})
	return reply, err
}

// Reset clears the user's session.
func (o *Orchestrator) Reset(ctx context.Context, userID string) error {
	return o.sessions.Reset(ctx, userID)
}

// Sessions exposes the session manager.
func (o *Orchestrator) Sessions() *session.Manager {
	return o.sessions
}

// run executes one turn on a locked session.
func (o *Orchestrator) run(ctx context.Context, userID string, s *domain.Session, msg string) (reply Reply) {
	t := &turn{
		o:       o,
		userID:  userID,
		s:       s,
		message: msg,
		prior:   append([]domain.Message(nil), s.MessageHistory...),
		marks:   make(map[domain.MacroState]int),
		logger:  o.logger.With("user_id", userID),
	}

	var before *domain.Session
	if t.logger.Enabled(ctx, slog.LevelDebug) {
		before = s.Clone()
	}

	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("Turn panicked", "panic", r)
			t.finish(msgApology, domain.OutcomeApology)
		}
		if t.reply == "" {
			t.finish(msgApology, domain.OutcomeApology)
		}
		reply = Reply{Message: t.reply, Outcome: t.outcome, State: s.State, SubState: s.SubState}
		if before != nil {
			if d, err := domain.Diff(before, s); err == nil && d != nil {
				t.logger.Debug("Session changed", "slots", d.Keys(), "appended", len(d.Appended))
			}
		}
		o.emitTurn(ctx, userID, t)
	}()

	s.MessageHistory = append(s.MessageHistory, domain.Message{Role: domain.RoleUser, Content: msg})

	if !t.classify(ctx) {
		return
	}
	t.loop(ctx)
	return
}

func (o *Orchestrator) emitStage(ctx context.Context, userID string, s *domain.Session) {
	if o.hooks.OnStageEnter == nil {
		return
	}
	o.hooks.OnStageEnter(ctx, &domain.StageEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStageEnter, UserID: userID},
		State:     s.State,
		SubState:  s.SubState,
	})
}

func (o *Orchestrator) emitCollaborator(ctx context.Context, userID, name string, d time.Duration, isErr bool) {
	if o.hooks.OnCollaboratorReturn == nil {
		return
	}
	o.hooks.OnCollaboratorReturn(ctx, &domain.CollaboratorEvent{
		EventBase:    domain.EventBase{Timestamp: time.Now(), Type: domain.EventCollaboratorReturn, UserID: userID},
		Collaborator: name,
		Duration:     d,
		IsError:      isErr,
	})
}

func (o *Orchestrator) emitTurn(ctx context.Context, userID string, t *turn) {
	if o.hooks.OnTurnComplete == nil {
		return
	}
	o.hooks.OnTurnComplete(ctx, &domain.TurnEvent{
		EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventTurnComplete, UserID: userID},
		Outcome:    t.outcome,
		Steps:      t.steps,
		Handoffs:   t.handoffs,
		FinalState: t.s.State,
	})
}
