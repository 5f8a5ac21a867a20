package runner

import (
	"context"
	"fmt"

	"github.com/whatsappmarket/campaign-console/internal/domain"
	"github.com/whatsappmarket/campaign-console/pkg/logger"
)

// campaignAPI is the slice of the remote client the loops need.
type campaignAPI interface {
	GetNextNumber(ctx context.Context, campaignID string) (*domain.CampaignNumber, error)
	ProcessNumber(ctx context.Context, campaignID, number string, outcome domain.Outcome) (domain.ProcessResult, error)
	GetNextNumberForReview(ctx context.Context, campaignID string) (*domain.CampaignNumber, error)
	UpdateReview(ctx context.Context, campaignID, number string, decision domain.ReviewDecision) (domain.ProcessResult, error)
}

// Operator decides the outcome for one number in the processing loop: a
// human at a console, or an automated agent. Returning an error stops the
// loop.
type Operator interface {
	Handle(ctx context.Context, number *domain.CampaignNumber) (domain.Outcome, error)
}

// Reviewer decides approve/reject for one processed number in the review
// loop.
type Reviewer interface {
	Review(ctx context.Context, number *domain.CampaignNumber) (domain.ReviewDecision, error)
}

// OperatorFunc adapts a function to the Operator interface.
type OperatorFunc func(ctx context.Context, number *domain.CampaignNumber) (domain.Outcome, error)

func (f OperatorFunc) Handle(ctx context.Context, number *domain.CampaignNumber) (domain.Outcome, error) {
	return f(ctx, number)
}

// ReviewerFunc adapts a function to the Reviewer interface.
type ReviewerFunc func(ctx context.Context, number *domain.CampaignNumber) (domain.ReviewDecision, error)

func (f ReviewerFunc) Review(ctx context.Context, number *domain.CampaignNumber) (domain.ReviewDecision, error) {
	return f(ctx, number)
}

// SessionStats counts what happened in one loop session.
type SessionStats struct {
	Handled  int
	Sent     int
	Failed   int
	Approved int
	Rejected int
	// Exhausted is true when the loop stopped because the service ran out of
	// numbers (fetch-next came back empty or remaining hit zero), as opposed
	// to an error or cancellation.
	Exhausted bool
}

// Runner drives a campaign's numbers through their state transitions, one at
// a time. Each fetched number is acknowledged before the next is fetched:
// the service's concurrency tolerance is unknown, so the loop stays
// sequential.
type Runner struct {
	api campaignAPI

	// handedOut tracks numbers this session has already received from
	// fetch-next. The service contract is that each pending number is handed
	// to exactly one in-flight attempt; a repeat therefore indicates a lost
	// update upstream and is surfaced, not silently reprocessed.
	handedOut map[string]bool
}

func New(api campaignAPI) *Runner {
	return &Runner{
		api:       api,
		handedOut: make(map[string]bool),
	}
}

// ProcessCampaign runs the primary loop: fetch-next, hand to the operator,
// submit the outcome, until the campaign is exhausted or the context is
// cancelled. It never advances past a number the service reports as not
// found; that error is returned for the operator to correct.
func (r *Runner) ProcessCampaign(ctx context.Context, campaignID string, operator Operator) (*SessionStats, error) {
	stats := &SessionStats{}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		number, err := r.api.GetNextNumber(ctx, campaignID)
		if err != nil {
			return stats, err
		}
		if number == nil {
			stats.Exhausted = true
			logger.Infof("campaign %s: no more pending numbers", campaignID)
			return stats, nil
		}

		if r.handedOut[number.Number] {
			return stats, fmt.Errorf("campaign %s: number %s handed out twice in one session, stopping to avoid a double send",
				campaignID, number.Number)
		}
		r.handedOut[number.Number] = true

		outcome, err := operator.Handle(ctx, number)
		if err != nil {
			return stats, err
		}

		result, err := r.api.ProcessNumber(ctx, campaignID, number.Number, outcome)
		if err != nil {
			// A NotFoundError here means the number was already processed or
			// never enqueued; either way the loop must not advance as if the
			// submission succeeded, so every error stops it.
			return stats, err
		}

		stats.Handled++
		switch outcome.Status {
		case domain.NumberSent:
			stats.Sent++
		case domain.NumberFailed:
			stats.Failed++
		}
		logger.Infof("campaign %s: %s -> %s (%d remaining)",
			campaignID, number.Number, outcome.Status, result.Remaining)

		if result.IsCompleted || result.Remaining == 0 {
			stats.Exhausted = true
			return stats, nil
		}
	}
}

// ReviewCampaign runs the secondary loop: an independent pass over already
// processed numbers. The review track never touches the sent/failed state.
func (r *Runner) ReviewCampaign(ctx context.Context, campaignID string, reviewer Reviewer) (*SessionStats, error) {
	stats := &SessionStats{}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		number, err := r.api.GetNextNumberForReview(ctx, campaignID)
		if err != nil {
			return stats, err
		}
		if number == nil {
			stats.Exhausted = true
			logger.Infof("campaign %s: nothing left to review", campaignID)
			return stats, nil
		}

		decision, err := reviewer.Review(ctx, number)
		if err != nil {
			return stats, err
		}

		result, err := r.api.UpdateReview(ctx, campaignID, number.Number, decision)
		if err != nil {
			return stats, err
		}

		stats.Handled++
		if decision.Approved {
			stats.Approved++
		} else {
			stats.Rejected++
		}
		logger.Infof("campaign %s: review %s approved=%t (%d remaining)",
			campaignID, number.Number, decision.Approved, result.Remaining)

		if result.IsCompleted || result.Remaining == 0 {
			stats.Exhausted = true
			return stats, nil
		}
	}
}
