// AngelaMos | 2026
// broadcast.go

package newsletter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
	"github.com/carterperez-dev/templates/qa-backend/internal/mail"
)

// Recipients merges account and subscriber addresses, dropping blanks and
// case-insensitive duplicates. The first spelling seen wins.
func Recipients(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, email := range list {
			email = strings.TrimSpace(email)
			if email == "" {
				continue
			}
			key := strings.ToLower(email)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, email)
		}
	}
	return out
}

// Broadcast sends one newsletter to every account and subscriber. Each
// delivery is recorded; a failed delivery is marked failed and the rest
// continue. Only cancellation of ctx aborts the fan-out.
func (s *Service) Broadcast(ctx context.Context, req BroadcastRequest) (*BroadcastResult, error) {
	ctx, span := core.StartSpan(ctx, "newsletter.broadcast")
	defer span.End()

	sender := strings.TrimSpace(req.From)
	if sender == "" {
		sender = s.sender
	}

	dup, err := s.repo.BroadcastExists(ctx, sender, req.Subject, req.Content)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}
	if dup {
		return nil, core.BadRequestError("this newsletter has already been sent")
	}

	recipients, err := s.recipients(ctx)
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, core.BadRequestError("there are no recipients for this newsletter")
	}

	result := &BroadcastResult{
		BroadcastID: uuid.New().String(),
		Recipients:  len(recipients),
	}
	span.SetAttributes(
		attribute.String("newsletter.broadcast_id", result.BroadcastID),
		attribute.Int("newsletter.recipients", len(recipients)),
	)

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)

	for _, email := range recipients {
		if err := s.limiter.Wait(ctx); err != nil {
			break
		}
		g.Go(func() error {
			err := s.deliver(ctx, result.BroadcastID, sender, email, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed = append(result.Failed, email)
				return err
			}
			result.Sent++
			return nil
		})
	}
	// Group has no derived context, so a failed delivery never cancels the
	// others. Wait reports the first one.
	firstFailure := g.Wait()

	if err := ctx.Err(); err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("broadcast interrupted after %d deliveries: %w", result.Sent, err)
	}

	sort.Strings(result.Failed)
	span.SetAttributes(
		attribute.Int("newsletter.sent", result.Sent),
		attribute.Int("newsletter.failed", len(result.Failed)),
	)
	if firstFailure != nil {
		core.AddSpanEvent(ctx, "newsletter.delivery_failed",
			attribute.String("error", firstFailure.Error()),
		)
		s.logger.WarnContext(ctx, "newsletter broadcast finished with failures",
			"broadcast_id", result.BroadcastID,
			"recipients", result.Recipients,
			"sent", result.Sent,
			"failed", len(result.Failed),
			"first_failure", firstFailure,
		)
		return result, nil
	}

	s.logger.InfoContext(ctx, "newsletter broadcast finished",
		"broadcast_id", result.BroadcastID,
		"recipients", result.Recipients,
		"sent", result.Sent,
	)
	return result, nil
}

func (s *Service) recipients(ctx context.Context) ([]string, error) {
	users, err := s.users.Emails(ctx)
	if err != nil {
		return nil, fmt.Errorf("list user emails: %w", err)
	}
	subscribers, err := s.repo.SubscriberEmails(ctx)
	if err != nil {
		return nil, err
	}
	return Recipients(users, subscribers), nil
}

// deliver records and sends a single newsletter. A nil error means the
// mail went out.
func (s *Service) deliver(
	ctx context.Context,
	broadcastID, sender, email string,
	req BroadcastRequest,
) error {
	rec := &Record{
		ID:          uuid.New().String(),
		BroadcastID: broadcastID,
		Sender:      sender,
		Email:       email,
		Subject:     req.Subject,
		Content:     req.Content,
		Status:      StatusPending,
	}
	if err := s.repo.CreateRecord(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "newsletter record not stored",
			"broadcast_id", broadcastID,
			"error", err,
		)
		return fmt.Errorf("store record for %s: %w", email, err)
	}

	msg, err := mail.Newsletter(email, req.Subject, req.Content, s.app)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}

	status, errMsg := StatusSent, ""
	if err != nil {
		status, errMsg = StatusFailed, err.Error()
		s.logger.WarnContext(ctx, "newsletter delivery failed",
			"broadcast_id", broadcastID,
			"record_id", rec.ID,
			"error", err,
		)
	}
	if serr := s.repo.SetRecordStatus(ctx, rec.ID, status, errMsg); serr != nil {
		s.logger.ErrorContext(ctx, "newsletter status not stored",
			"record_id", rec.ID,
			"error", serr,
		)
	}
	if err != nil {
		return fmt.Errorf("send to %s: %w", email, err)
	}
	return nil
}
