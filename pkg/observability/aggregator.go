package observability

import (
	"context"

	"github.com/aretw0/gashu/pkg/domain"
)

// Combine merges several hook sets into one. Each callback fans out to the
// non-nil callbacks of every set, in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var (
		stage []func(context.Context, *domain.StageEvent)
		coll  []func(context.Context, *domain.CollaboratorEvent)
		turn  []func(context.Context, *domain.TurnEvent)
	)
	for _, h := range sets {
		if h.OnStageEnter != nil {
			stage = append(stage, h.OnStageEnter)
		}
		if h.OnCollaboratorReturn != nil {
			coll = append(coll, h.OnCollaboratorReturn)
		}
		if h.OnTurnComplete != nil {
			turn = append(turn, h.OnTurnComplete)
		}
	}

	var out domain.LifecycleHooks
	if len(stage) > 0 {
		out.OnStageEnter = func(ctx context.Context, e *domain.StageEvent) {
			for _, fn := range stage {
				fn(ctx, e)
			}
		}
	}
	if len(coll) > 0 {
		out.OnCollaboratorReturn = func(ctx context.Context, e *domain.CollaboratorEvent) {
			for _, fn := range coll {
				fn(ctx, e)
			}
		}
	}
	if len(turn) > 0 {
		out.OnTurnComplete = func(ctx context.Context, e *domain.TurnEvent) {
			for _, fn := range turn {
				fn(ctx, e)
			}
		}
	}
	return out
}
