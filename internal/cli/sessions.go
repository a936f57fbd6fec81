package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/aretw0/gashu/pkg/domain"
	"github.com/aretw0/gashu/pkg/ports"
)

// openStore builds only the configured session store.
func openStore(opts GlobalOptions) (ports.SessionStore, func() error, error) {
	cfg, _, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	app := &App{}
	store, _, err := app.createStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	return store, app.Close, nil
}

// ListSessions prints every stored user id, one per line.
func ListSessions(opts GlobalOptions, w io.Writer) error {
	store, closeFn, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeFn()
	return listSessions(context.Background(), store, w)
}

func listSessions(ctx context.Context, store ports.SessionStore, w io.Writer) error {
	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(ids) == 0 {
		printSystemMessage(w, "No sessions found.")
		return nil
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
	return nil
}

// InspectSession prints a user's session as indented JSON.
func InspectSession(opts GlobalOptions, userID string, w io.Writer) error {
	store, closeFn, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeFn()
	return inspectSession(context.Background(), store, userID, w)
}

func inspectSession(ctx context.Context, store ports.SessionStore, userID string, w io.Writer) error {
	s, err := store.Load(ctx, userID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("session %q not found", userID)
	}
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// RemoveSession deletes a user's session.
func RemoveSession(opts GlobalOptions, userID string, w io.Writer) error {
	store, closeFn, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeFn()
	return removeSession(context.Background(), store, userID, w)
}

func removeSession(ctx context.Context, store ports.SessionStore, userID string, w io.Writer) error {
	if err := store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	printSystemMessage(w, "Session '%s' removed.", userID)
	return nil
}
