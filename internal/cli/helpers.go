package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/gashu/internal/config"
	"github.com/aretw0/gashu/internal/logging"
	"github.com/aretw0/gashu/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger from cfg. Debug forces
// the debug level.
func createLogger(cfg config.LogConfig, debug bool) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	return logging.New(level, cfg.Format), nil
}

// printSystemMessage prints a standardized system message to w.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter: func(ctx context.Context, e *domain.StageEvent) {
			logger.Debug("Enter Stage", "user_id", e.UserID, "state", e.State, "sub_state", e.SubState)
		},
		OnCollaboratorReturn: func(ctx context.Context, e *domain.CollaboratorEvent) {
			if e.IsError {
				logger.Debug("Collaborator Return (Error)", "collaborator", e.Collaborator, "duration", e.Duration)
			} else {
				logger.Debug("Collaborator Return (Success)", "collaborator", e.Collaborator, "duration", e.Duration)
			}
		},
		OnTurnComplete: func(ctx context.Context, e *domain.TurnEvent) {
			logger.Debug("Turn Complete", "user_id", e.UserID, "outcome", e.Outcome, "steps", e.Steps, "handoffs", e.Handoffs)
		},
	}
}

// errInterrupted is returned by InterruptibleReader after cancellation.
var errInterrupted = errors.New("interrupted")

// InterruptibleReader wraps an io.Reader (like os.Stdin) so a blocked chat
// prompt gives up once ctx is done.
type InterruptibleReader struct {
	base io.Reader
	done <-chan struct{}
}

func NewInterruptibleReader(ctx context.Context, base io.Reader) *InterruptibleReader {
	return &InterruptibleReader{base: base, done: ctx.Done()}
}

func (r *InterruptibleReader) Read(p []byte) (int, error) {
	select {
	case <-r.done:
		return 0, errInterrupted
	default:
	}

	// Read (This blocks!)
	n, err := r.base.Read(p)

	select {
	case <-r.done:
		return 0, errInterrupted
	default:
	}
	return n, err
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, errInterrupted) ||
		errors.Is(err, io.EOF)
}

// handleExecutionError maps interruptions to a clean exit.
func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}
