package status

import (
	"strings"

	"github.com/whatsappmarket/campaign-console/internal/domain"
)

// State classifies a campaign for display.
type State string

const (
	// StateNotExecuted means the service has no execution data yet. Not an
	// error: a freshly created campaign looks like this.
	StateNotExecuted State = "not_executed"
	StateActive      State = "active"
	StateCompleted   State = "completed"
	// StateUnavailable means the status could not be read this time
	// (transport failure or a body that made no sense). The view degrades to
	// stale, it never crashes.
	StateUnavailable State = "unavailable"
)

// Summary is the single display-ready status of one campaign.
type Summary struct {
	CampaignID string
	Sent       int
	Pending    int
	Failed     int
	Total      int
	State      State
	// Note carries the service's informational text when there are no
	// counters to show.
	Note string
	// Inconsistent flags a disagreement between the explicit status field
	// and the counter-based completion rule, or counters that sum past the
	// total. Both indicate a lost update upstream and are surfaced, never
	// silently reconciled.
	Inconsistent bool
}

// Summarize reconciles whatever the status endpoint returned into a Summary.
// Exactly one of cs and rawText is meaningful: a parsed counter document, or
// the raw body when the endpoint answered with plain text.
func Summarize(campaignID string, cs *domain.CampaignStatus, rawText string) Summary {
	if cs == nil {
		return summarizeText(campaignID, rawText)
	}

	summary := Summary{
		CampaignID: campaignID,
		Sent:       cs.Sent,
		Pending:    cs.Pending,
		Total:      cs.Total,
	}

	// The service-reported failed count is authoritative when present; the
	// derived value fills in only when the field is omitted entirely.
	if cs.Failed != nil {
		summary.Failed = *cs.Failed
	} else if derived := cs.Total - cs.Sent - cs.Pending; derived > 0 {
		summary.Failed = derived
	}

	if summary.Sent+summary.Failed+summary.Pending > summary.Total {
		summary.Inconsistent = true
	}

	countComplete := summary.Pending <= 0 && summary.Sent+summary.Failed >= summary.Total
	explicitComplete := strings.EqualFold(cs.Status, "completed")

	switch {
	case explicitComplete:
		// The explicit status wins; a count rule that disagrees is flagged.
		summary.State = StateCompleted
		if !countComplete {
			summary.Inconsistent = true
		}
	case countComplete && summary.Total > 0:
		summary.State = StateCompleted
	default:
		summary.State = StateActive
	}
	return summary
}

func summarizeText(campaignID, rawText string) Summary {
	summary := Summary{CampaignID: campaignID, Note: strings.TrimSpace(rawText)}

	lower := strings.ToLower(rawText)
	if strings.Contains(lower, "no execution data") ||
		strings.Contains(lower, "not yet executed") ||
		strings.Contains(lower, "not executed") {
		summary.State = StateNotExecuted
		return summary
	}

	summary.State = StateUnavailable
	if summary.Note == "" {
		summary.Note = "status unavailable"
	}
	return summary
}

// Unavailable is the Summary for a status read that failed outright.
func Unavailable(campaignID string, err error) Summary {
	return Summary{
		CampaignID: campaignID,
		State:      StateUnavailable,
		Note:       err.Error(),
	}
}
