package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/gashu"
	"github.com/aretw0/gashu/internal/presentation/tui"
	"github.com/aretw0/gashu/pkg/domain"
	"github.com/google/uuid"
	"golang.org/x/term"
)

// ChatOptions configures an interactive terminal conversation.
type ChatOptions struct {
	GlobalOptions
	// UserID resumes a stored conversation; empty starts an anonymous one.
	UserID   string
	Headless bool
	// GPS is sent with every turn when set.
	GPS *domain.Coord

	Input  io.Reader
	Output io.Writer
}

// RunChat talks to the engine over stdin/stdout until EOF or "quit".
func RunChat(opts ChatOptions) error {
	cfg, logger, err := loadConfig(opts.GlobalOptions)
	if err != nil {
		return err
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
		// Piped input gets plain output.
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			opts.Headless = true
		}
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.UserID == "" {
		opts.UserID = "cli-" + uuid.NewString()
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	app, err := createApp(sigCtx, cfg, logger, BuildOptions{Debug: opts.Debug})
	if err != nil {
		return err
	}
	defer app.Close()

	return runChat(sigCtx, app.Engine, opts)
}

func runChat(ctx context.Context, eng *gashu.Engine, opts ChatOptions) error {
	r := &gashu.Runner{
		Input:    NewInterruptibleReader(ctx, opts.Input),
		Output:   opts.Output,
		Headless: opts.Headless,
		UserID:   opts.UserID,
		GPS:      opts.GPS,
	}
	if !opts.Headless {
		tui.PrintBanner(opts.Output, gashu.Version)
		printSystemMessage(opts.Output, "Session '%s' active. Type 'quit' to exit, '/reset' to start over.", opts.UserID)
		r.Renderer = tui.NewRenderer()
	}

	if err := handleExecutionError(r.Run(ctx, eng)); err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}
	return nil
}
