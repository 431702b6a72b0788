// AngelaMos | 2026
// engine.go

package vote

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

// Engine runs vote transitions against a Store. It does not check that the
// target exists; callers resolve the content item first.
type Engine struct {
	store  Store
	logger *slog.Logger
}

func NewEngine(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// Do moves userID from its current position to Apply(position, op) and
// returns the resulting tally. Retracts and casts only touch the voter's
// own row, and a retract deletes only a matching direction, so concurrent
// votes never overwrite each other.
func (e *Engine) Do(
	ctx context.Context,
	kind Kind,
	targetID, userID string,
	op Op,
) (Tally, error) {
	ctx, span := core.StartSpan(ctx, "vote."+string(op),
		attribute.String("vote.kind", string(kind)),
		attribute.String("vote.target_id", targetID),
	)
	defer span.End()

	if !op.valid() {
		return Tally{}, fmt.Errorf("apply vote %q: %w", op, core.ErrInvalidInput)
	}

	before, err := e.store.Tally(ctx, kind, targetID)
	if err != nil {
		core.SetSpanError(ctx, err)
		return Tally{}, err
	}

	from := before.PositionOf(userID)
	to := Apply(from, op)

	switch {
	case to == None && from == None:
		return before, nil
	case to == None:
		err = e.store.Retract(ctx, kind, targetID, userID, from.direction())
	case to == from && (op == OpUnvote || op == OpUnvoteDownvote):
		return before, nil
	default:
		err = e.store.Cast(ctx, kind, targetID, userID, to.direction())
	}
	if err != nil {
		core.SetSpanError(ctx, err)
		return Tally{}, err
	}

	e.logger.DebugContext(ctx, "vote applied",
		"kind", kind,
		"target_id", targetID,
		"user_id", userID,
		"op", op,
		"from", from,
		"to", to,
	)

	return e.store.Tally(ctx, kind, targetID)
}

func (e *Engine) Tally(ctx context.Context, kind Kind, targetID string) (Tally, error) {
	return e.store.Tally(ctx, kind, targetID)
}

func (e *Engine) Tallies(
	ctx context.Context,
	kind Kind,
	targetIDs []string,
) (map[string]Tally, error) {
	return e.store.Tallies(ctx, kind, targetIDs)
}

// View records viewerID once and returns the distinct viewer count.
func (e *Engine) View(
	ctx context.Context,
	kind Kind,
	targetID, viewerID string,
) (int64, error) {
	added, err := e.store.RecordView(ctx, kind, targetID, viewerID)
	if err != nil {
		return 0, err
	}
	if added {
		core.AddSpanEvent(ctx, "view.recorded",
			attribute.String("view.target_id", targetID),
		)
	}
	return e.store.CountViews(ctx, kind, targetID)
}

func (e *Engine) Views(ctx context.Context, kind Kind, targetID string) (int64, error) {
	return e.store.CountViews(ctx, kind, targetID)
}

func (e *Engine) ViewsFor(
	ctx context.Context,
	kind Kind,
	targetIDs []string,
) (map[string]int64, error) {
	return e.store.CountViewsFor(ctx, kind, targetIDs)
}
