package gashu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/gashu/pkg/domain"
)

// Runner drives a line-based conversation with the engine over the provided
// IO. This allows for easy testing and integration with different frontends.
type Runner struct {
	Input  io.Reader
	Output io.Writer
	// Headless suppresses the banner and the prompt.
	Headless bool
	Renderer ContentRenderer

	UserID string
	// GPS is sent with every turn when set.
	GPS *domain.Coord
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// Run resets the user's conversation and exchanges one turn per input line
// until EOF, "exit" or "quit". "/reset" starts over.
func (r *Runner) Run(ctx context.Context, engine *Engine) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	if r.UserID == "" {
		return fmt.Errorf("user id must be set")
	}
	lineReader := bufio.NewReader(r.Input)

	reply, err := engine.Init(ctx, TurnRequest{UserID: r.UserID, GPS: r.GPS})
	if err != nil {
		return fmt.Errorf("init error: %w", err)
	}
	r.print(reply.Message)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		text, err := lineReader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || text == "") {
			if errors.Is(err, io.EOF) {
				// Graceful exit on EOF
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		input := strings.TrimSpace(text)

		switch input {
		case "":
			if errors.Is(err, io.EOF) {
				return nil
			}
			continue
		case "exit", "quit":
			fmt.Fprintln(r.Output, "안녕히 가세요!")
			return nil
		case "/reset":
			reply, err = engine.Init(ctx, TurnRequest{UserID: r.UserID, GPS: r.GPS})
		default:
			reply, err = engine.HandleTurn(ctx, TurnRequest{UserID: r.UserID, Message: input, GPS: r.GPS})
		}
		if err != nil {
			if errors.Is(err, domain.ErrEmptyInput) {
				continue
			}
			return fmt.Errorf("turn error: %w", err)
		}
		r.print(reply.Message)
	}
}

func (r *Runner) print(msg string) {
	output := msg
	if r.Renderer != nil {
		if rendered, err := r.Renderer(msg); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(output))
}
