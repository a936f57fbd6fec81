package gashu

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/gashu/internal/logging"
	"github.com/aretw0/gashu/internal/runtime"
	"github.com/aretw0/gashu/pkg/adapters/memory"
	"github.com/aretw0/gashu/pkg/domain"
	"github.com/aretw0/gashu/pkg/ports"
	"github.com/aretw0/gashu/pkg/session"
)

// Collaborators groups the external services a turn may call.
type Collaborators = runtime.Collaborators

// TurnRequest is one inbound utterance.
type TurnRequest = runtime.TurnRequest

// Reply is the single user-facing answer to a turn.
type Reply = runtime.Reply

// Input rejection errors returned by HandleTurn.
var (
	ErrInputTooLarge = runtime.ErrInputTooLarge
	ErrInvalidUTF8   = runtime.ErrInvalidUTF8
)

// Engine is the high-level entry point for the gashu library.
// It wraps the internal orchestrator and the session manager behind a
// simplified API for transports.
type Engine struct {
	orchestrator *runtime.Orchestrator
	sessions     *session.Manager

	store       ports.SessionStore
	locker      ports.DistributedLocker
	lockTTL     time.Duration
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	runtimeOpts []runtime.Option
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets the session store (default: in-memory).
func WithStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker adds a distributed lock around every turn, for deployments
// where several replicas share one store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLockTTL sets how long a distributed turn lock may be held.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxCascade caps stage handoffs within one turn.
func WithMaxCascade(n int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithMaxCascade(n))
	}
}

// WithMaxSteps caps handler steps within one turn.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithMaxSteps(n))
	}
}

// WithCallTimeout bounds every collaborator call.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithCallTimeout(d))
	}
}

// WithHistoryLimit caps every dialogue log. Zero disables the cap.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithHistoryLimit(n))
	}
}

// New initializes a new Engine. Every collaborator is required.
func New(c Collaborators, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	// Ensure logger is initialized so nil never reaches the runtime.
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	if eng.lockTTL > 0 {
		sessionOpts = append(sessionOpts, session.WithLockTTL(eng.lockTTL))
	}
	eng.sessions = session.NewManager(eng.store, sessionOpts...)

	runtimeOpts := []runtime.Option{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)

	o, err := runtime.New(eng.sessions, c, runtimeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}
	eng.orchestrator = o
	return eng, nil
}

// HandleTurn runs one user utterance through the dialogue state machine.
func (e *Engine) HandleTurn(ctx context.Context, req TurnRequest) (Reply, error) {
	return e.orchestrator.HandleTurn(ctx, req)
}

// Init starts a fresh conversation for the user.
func (e *Engine) Init(ctx context.Context, req TurnRequest) (Reply, error) {
	return e.orchestrator.Init(ctx, req)
}

// Reset clears the user's session.
func (e *Engine) Reset(ctx context.Context, userID string) error {
	return e.orchestrator.Reset(ctx, userID)
}

// Session returns the user's stored session, or ErrSessionNotFound.
func (e *Engine) Session(ctx context.Context, userID string) (*domain.Session, error) {
	return e.store.Load(ctx, userID)
}

// List returns the ids of every stored session.
func (e *Engine) List(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Sessions exposes the session manager for slot-level access.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}
