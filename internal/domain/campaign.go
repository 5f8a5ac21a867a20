package domain

import "time"

type NumberStatus string

const (
	NumberPending NumberStatus = "pending"
	NumberSent    NumberStatus = "sent"
	NumberFailed  NumberStatus = "failed"
)

// Valid reports whether s is a terminal outcome accepted by process-number.
func (s NumberStatus) Valid() bool {
	return s == NumberSent || s == NumberFailed
}

// Contact is one entry of a contact list. The remote service keys contacts by
// (list_name, username); the profile attributes are free-text and optional.
type Contact struct {
	ListName             string            `json:"list_name"`
	Username             string            `json:"username"`
	Number               string            `json:"number"`
	Name                 string            `json:"name"`
	Interests            string            `json:"interests,omitempty"`
	Age                  string            `json:"age,omitempty"`
	Location             string            `json:"location,omitempty"`
	Gender               string            `json:"gender,omitempty"`
	Language             string            `json:"language,omitempty"`
	Occupation           string            `json:"occupation,omitempty"`
	PreferredContactTime string            `json:"preferred_contact_time,omitempty"`
	Tags                 string            `json:"tags,omitempty"`
	// AdditionalDetails is an open map; the service does not constrain its
	// keys and neither do we.
	AdditionalDetails map[string]string `json:"additional_details,omitempty"`
}

// Campaign is the client-side view of a campaign. Counters are owned by the
// remote service; this client only reads them.
type Campaign struct {
	CampaignID string    `json:"campaign_id"`
	Name       string    `json:"name"`
	Owner      string    `json:"owner"`
	Content    string    `json:"content"`
	NumberList string    `json:"number_list"`
	Status     string    `json:"status,omitempty"`
	StartTime  string    `json:"start_time,omitempty"`
	EndTime    string    `json:"end_time,omitempty"`
	Timezone   string    `json:"timezone,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// CampaignNumber is one (campaign, number) work unit handed out by
// fetch-next. Feedback is passed through to the service verbatim.
type CampaignNumber struct {
	CampaignID    string         `json:"campaign_id"`
	Number        string         `json:"number"`
	Name          string         `json:"name,omitempty"`
	Message       string         `json:"message,omitempty"`
	ImageURL      string         `json:"image_url,omitempty"`
	Status        NumberStatus   `json:"status,omitempty"`
	Notes         string         `json:"notes,omitempty"`
	Feedback      map[string]any `json:"feedback,omitempty"`
	NumberDetails map[string]any `json:"number_details,omitempty"`
	Remaining     int            `json:"remaining,omitempty"`
	SentAt        *time.Time     `json:"sent_at,omitempty"`
}

// Outcome is what an operator reports for one number in the processing loop.
type Outcome struct {
	Status   NumberStatus
	Notes    string
	Feedback map[string]any
}

// ReviewDecision is what a reviewer reports for one processed number.
type ReviewDecision struct {
	Approved bool
	Notes    string
}

// ProcessResult is the service acknowledgement of process-number and
// update-review.
type ProcessResult struct {
	IsCompleted bool
	Remaining   int
}

// CampaignStatus is the raw counter set reported by the status endpoint.
// Failed is a pointer because several service revisions omit the field
// entirely; absence means "derive it", zero means zero.
type CampaignStatus struct {
	CampaignID string `json:"campaign_id,omitempty"`
	Status     string `json:"status,omitempty"`
	Sent       int    `json:"sent"`
	Pending    int    `json:"pending"`
	Failed     *int   `json:"failed,omitempty"`
	Total      int    `json:"total"`
}
