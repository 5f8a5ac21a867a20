package client

import (
	"context"
	"encoding/json"
	"io"

	"github.com/go-resty/resty/v2"

	"github.com/whatsappmarket/campaign-console/internal/domain"
	"github.com/whatsappmarket/campaign-console/pkg/logger"
	validatorpkg "github.com/whatsappmarket/campaign-console/pkg/validator"
)

// CreateCampaignRequest carries the multipart fields of campaign creation.
// Media, when set, is streamed as a binary part, never base64 text.
type CreateCampaignRequest struct {
	Name       string
	Username   string
	NumberList string
	Content    string

	MediaName string
	Media     io.Reader

	AdditionalDetails map[string]string
}

// CreateCampaign creates a campaign bound to a contact list and returns the
// service-assigned campaign ID. A 2xx answer without a campaign_id is a
// creation failure (ErrNoCampaignID).
func (c *Client) CreateCampaign(ctx context.Context, req CreateCampaignRequest) (string, error) {
	const op = "create campaign"

	fields := struct {
		Name       string `json:"name" validate:"required"`
		Username   string `json:"username" validate:"required"`
		NumberList string `json:"number_list" validate:"required"`
		Content    string `json:"content" validate:"required"`
	}{Name: req.Name, Username: req.Username, NumberList: req.NumberList, Content: req.Content}
	if err := c.validate.Validate(&fields); err != nil {
		return "", err
	}
	if req.Media != nil && req.MediaName == "" {
		return "", validatorpkg.NewFieldError("media", "media attachment needs a file name")
	}

	form := map[string]string{
		"name":        domain.SanitizeName(req.Name),
		"username":    req.Username,
		"number_list": req.NumberList,
		"content":     req.Content,
	}
	if len(req.AdditionalDetails) > 0 {
		encoded, err := encodeDetails(req.AdditionalDetails)
		if err != nil {
			return "", err
		}
		form["additional_details"] = encoded
	}

	resp, err := c.request(op, func(r *resty.Request) (*resty.Response, error) {
		r.SetMultipartFormData(form)
		if req.Media != nil {
			r.SetFileReader("media", req.MediaName, req.Media)
		}
		return r.Post(c.url("/campaign/create"))
	}, ctx)
	if err != nil {
		return "", err
	}
	if !resp.IsSuccess() {
		return "", classifyStatusError(op, "campaign "+req.Name, resp)
	}

	var body struct {
		CampaignID string `json:"campaign_id"`
	}
	if err := decodeJSON(op, resp, &body); err != nil {
		return "", err
	}
	if body.CampaignID == "" {
		return "", ErrNoCampaignID
	}
	return body.CampaignID, nil
}

// ExecuteCampaign enqueues a slice of the campaign's list for sending. The
// service has never confirmed this is idempotent, so the client does not
// retry and callers should confirm before re-executing the same offset.
func (c *Client) ExecuteCampaign(ctx context.Context, campaignID string, batchSize, offset int) (map[string]any, error) {
	const op = "execute campaign"

	if campaignID == "" {
		return nil, validatorpkg.NewFieldError("campaign_id", "campaign_id is required")
	}

	req := struct {
		BatchSize int `json:"batch_size"`
		Offset    int `json:"offset"`
	}{BatchSize: batchSize, Offset: offset}

	resp, err := c.request(op, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(req).Post(c.url("/campaign/execute/" + campaignID))
	}, ctx)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, classifyStatusError(op, "campaign "+campaignID, resp)
	}

	// Execution status is a loosely-typed object that differs across service
	// revisions; pass it through as-is.
	var status map[string]any
	if err := decodeJSON(op, resp, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// nextNumberWire tolerates the field-name drift between service revisions.
type nextNumberWire struct {
	Number        string         `json:"number"`
	Phone         string         `json:"phone"`
	Name          string         `json:"name"`
	Message       string         `json:"message"`
	ImageURL      string         `json:"image_url"`
	Notes         string         `json:"notes"`
	Status        string         `json:"status"`
	Remaining     int            `json:"remaining"`
	NumberDetails map[string]any `json:"number_details"`
}

func (w nextNumberWire) toDomain(campaignID string) *domain.CampaignNumber {
	number := w.Number
	if number == "" {
		number = w.Phone
	}
	return &domain.CampaignNumber{
		CampaignID:    campaignID,
		Number:        number,
		Name:          w.Name,
		Message:       w.Message,
		ImageURL:      w.ImageURL,
		Notes:         w.Notes,
		Status:        domain.NumberStatus(w.Status),
		Remaining:     w.Remaining,
		NumberDetails: w.NumberDetails,
	}
}

// GetNextNumber pops the next pending number of the campaign. A nil number
// with a nil error means the campaign is exhausted; that is the sole
// termination condition of the processing loop.
func (c *Client) GetNextNumber(ctx context.Context, campaignID string) (*domain.CampaignNumber, error) {
	return c.fetchNext(ctx, "get next number", c.url("/campaign/"+campaignID+"/next-number"), campaignID)
}

// GetNextNumberForReview pops the next processed-but-unreviewed number.
// Same empty-means-exhausted contract as GetNextNumber.
func (c *Client) GetNextNumberForReview(ctx context.Context, campaignID string) (*domain.CampaignNumber, error) {
	return c.fetchNext(ctx, "get next number for review", c.url("/campaign/"+campaignID+"/review-next"), campaignID)
}

func (c *Client) fetchNext(ctx context.Context, op, endpoint, campaignID string) (*domain.CampaignNumber, error) {
	if campaignID == "" {
		return nil, validatorpkg.NewFieldError("campaign_id", "campaign_id is required")
	}

	resp, err := c.request(op, func(r *resty.Request) (*resty.Response, error) {
		return r.Get(endpoint)
	}, ctx)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, classifyStatusError(op, "campaign "+campaignID, resp)
	}

	if len(resp.Body()) == 0 {
		return nil, nil
	}
	var wire nextNumberWire
	if err := decodeJSON(op, resp, &wire); err != nil {
		return nil, err
	}
	if wire.Number == "" && wire.Phone == "" {
		// {} or a bare {"message": "..."} both mean exhausted.
		return nil, nil
	}
	return wire.toDomain(campaignID), nil
}

type processResultWire struct {
	IsCompleted    bool `json:"is_completed"`
	RemainingCount *int `json:"remaining_count"`
	Remaining      *int `json:"remaining"`
}

func (w processResultWire) toDomain() domain.ProcessResult {
	result := domain.ProcessResult{IsCompleted: w.IsCompleted}
	switch {
	case w.RemainingCount != nil:
		result.Remaining = *w.RemainingCount
	case w.Remaining != nil:
		result.Remaining = *w.Remaining
	}
	return result
}

// ProcessNumber records the delivery outcome for one number. Feedback is an
// open schema: passed through verbatim, never validated or stripped. A
// number the service does not know (already processed, or never enqueued)
// comes back as *NotFoundError so callers can correct their input instead of
// treating it as a generic failure.
func (c *Client) ProcessNumber(ctx context.Context, campaignID, number string, outcome domain.Outcome) (domain.ProcessResult, error) {
	const op = "process number"

	if campaignID == "" {
		return domain.ProcessResult{}, validatorpkg.NewFieldError("campaign_id", "campaign_id is required")
	}
	if number == "" {
		return domain.ProcessResult{}, validatorpkg.NewFieldError("number", "number is required")
	}
	if !outcome.Status.Valid() {
		return domain.ProcessResult{}, validatorpkg.NewFieldError("status", "status must be sent or failed")
	}
	if outcome.Notes == "" {
		return domain.ProcessResult{}, validatorpkg.NewFieldError("notes", "notes are required")
	}

	req := struct {
		CampaignID string         `json:"campaign_id"`
		Number     string         `json:"number"`
		Status     string         `json:"status"`
		Notes      string         `json:"notes"`
		Feedback   map[string]any `json:"feedback"`
	}{
		CampaignID: campaignID,
		Number:     number,
		Status:     string(outcome.Status),
		Notes:      outcome.Notes,
		Feedback:   outcome.Feedback,
	}

	resp, err := c.request(op, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(req).Post(c.url("/campaign/process-number"))
	}, ctx)
	if err != nil {
		return domain.ProcessResult{}, err
	}
	if !resp.IsSuccess() {
		return domain.ProcessResult{}, classifyStatusError(op, "number "+number, resp)
	}

	var wire processResultWire
	if err := decodeJSON(op, resp, &wire); err != nil {
		return domain.ProcessResult{}, err
	}
	return wire.toDomain(), nil
}

// UpdateReview records a reviewer's approve/reject verdict for a processed
// number.
func (c *Client) UpdateReview(ctx context.Context, campaignID, number string, decision domain.ReviewDecision) (domain.ProcessResult, error) {
	const op = "update review"

	if campaignID == "" {
		return domain.ProcessResult{}, validatorpkg.NewFieldError("campaign_id", "campaign_id is required")
	}
	if number == "" {
		return domain.ProcessResult{}, validatorpkg.NewFieldError("number", "number is required")
	}

	req := struct {
		CampaignID string `json:"campaign_id"`
		Number     string `json:"number"`
		Approved   bool   `json:"approved"`
		Notes      string `json:"notes"`
	}{CampaignID: campaignID, Number: number, Approved: decision.Approved, Notes: decision.Notes}

	resp, err := c.request(op, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(req).Post(c.url("/campaign/update-review"))
	}, ctx)
	if err != nil {
		return domain.ProcessResult{}, err
	}
	if !resp.IsSuccess() {
		return domain.ProcessResult{}, classifyStatusError(op, "number "+number, resp)
	}

	var wire processResultWire
	if err := decodeJSON(op, resp, &wire); err != nil {
		return domain.ProcessResult{}, err
	}
	return wire.toDomain(), nil
}

// campaignStatusWire tolerates both counter naming schemes the service has
// used (sent vs messages_sent and so on).
type campaignStatusWire struct {
	CampaignID string `json:"campaign_id"`
	Status     string `json:"status"`

	Sent    *int `json:"sent"`
	Pending *int `json:"pending"`
	Failed  *int `json:"failed"`
	Total   *int `json:"total"`

	MessagesSent    *int `json:"messages_sent"`
	MessagesPending *int `json:"messages_pending"`
	MessagesFailed  *int `json:"messages_failed"`
	TotalNumbers    *int `json:"total_numbers"`
}

func pick(a, b *int) *int {
	if a != nil {
		return a
	}
	return b
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func (w campaignStatusWire) toDomain() *domain.CampaignStatus {
	return &domain.CampaignStatus{
		CampaignID: w.CampaignID,
		Status:     w.Status,
		Sent:       intOrZero(pick(w.Sent, w.MessagesSent)),
		Pending:    intOrZero(pick(w.Pending, w.MessagesPending)),
		Failed:     pick(w.Failed, w.MessagesFailed),
		Total:      intOrZero(pick(w.Total, w.TotalNumbers)),
	}
}

func (w campaignStatusWire) hasCounters() bool {
	return w.Sent != nil || w.MessagesSent != nil ||
		w.Pending != nil || w.MessagesPending != nil ||
		w.Total != nil || w.TotalNumbers != nil
}

// GetCampaignStatus fetches the campaign's counters. The endpoint
// legitimately answers with non-JSON text (an error page, or a plain "no
// execution data" string); in that case the raw text comes back instead of a
// parsed status, and err stays nil; the caller decides how to display it.
func (c *Client) GetCampaignStatus(ctx context.Context, campaignID string) (*domain.CampaignStatus, string, error) {
	const op = "get campaign status"

	if campaignID == "" {
		return nil, "", validatorpkg.NewFieldError("campaign_id", "campaign_id is required")
	}

	resp, err := c.request(op, func(r *resty.Request) (*resty.Response, error) {
		return r.Get(c.url("/campaign/status/" + campaignID))
	}, ctx)
	if err != nil {
		return nil, "", err
	}

	var wire campaignStatusWire
	if err := json.Unmarshal(resp.Body(), &wire); err != nil || !wire.hasCounters() {
		// Not a counter document. Whatever the body says is the status.
		return nil, string(resp.Body()), nil
	}
	return wire.toDomain(), "", nil
}

// ListPendingCampaigns returns the number of campaigns awaiting execution.
// An unparsable body resolves to zero by design: this read is low stakes and
// the documented policy is to fail open rather than break the view.
func (c *Client) ListPendingCampaigns(ctx context.Context) (int, error) {
	const op = "list pending campaigns"

	resp, err := c.request(op, func(r *resty.Request) (*resty.Response, error) {
		return r.Get(c.url("/campaign/list-pending"))
	}, ctx)
	if err != nil {
		return 0, err
	}

	var body struct {
		Pending *int `json:"pending"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Pending != nil {
		return *body.Pending, nil
	}

	// Some revisions answer with a bare array of pending campaigns.
	var campaigns []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &campaigns); err == nil {
		return len(campaigns), nil
	}

	logger.Warnf("%s: unparsable body, falling open to 0", op)
	return 0, nil
}

// campaignWire tolerates owner vs created_by and content vs message drift.
type campaignWire struct {
	CampaignID string `json:"campaign_id"`
	Name       string `json:"name"`
	Owner      string `json:"owner"`
	CreatedBy  string `json:"created_by"`
	Content    string `json:"content"`
	Message    string `json:"message"`
	NumberList string `json:"number_list"`
	Status     string `json:"status"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Timezone   string `json:"timezone"`
}

func (w campaignWire) toDomain() domain.Campaign {
	owner := w.Owner
	if owner == "" {
		owner = w.CreatedBy
	}
	content := w.Content
	if content == "" {
		content = w.Message
	}
	return domain.Campaign{
		CampaignID: w.CampaignID,
		Name:       w.Name,
		Owner:      owner,
		Content:    content,
		NumberList: w.NumberList,
		Status:     w.Status,
		StartTime:  w.StartTime,
		EndTime:    w.EndTime,
		Timezone:   w.Timezone,
	}
}

// ListAllCampaigns returns every campaign the service knows about.
func (c *Client) ListAllCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	return c.listCampaigns(ctx, c.url("/campaign/list-all"))
}

// ListCampaigns returns the campaigns owned by username.
func (c *Client) ListCampaigns(ctx context.Context, username string) ([]domain.Campaign, error) {
	if username == "" {
		return nil, validatorpkg.NewFieldError("username", "username is required")
	}
	return c.listCampaigns(ctx, c.url("/campaign/list/"+username))
}

func (c *Client) listCampaigns(ctx context.Context, endpoint string) ([]domain.Campaign, error) {
	const op = "list campaigns"

	resp, err := c.request(op, func(r *resty.Request) (*resty.Response, error) {
		return r.Get(endpoint)
	}, ctx)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, classifyStatusError(op, "campaigns", resp)
	}

	// Either {"campaigns": [...]} or a bare array, depending on revision.
	var wrapped struct {
		Campaigns []campaignWire `json:"campaigns"`
	}
	var wires []campaignWire
	if err := json.Unmarshal(resp.Body(), &wrapped); err == nil && wrapped.Campaigns != nil {
		wires = wrapped.Campaigns
	} else {
		if err := decodeJSON(op, resp, &wires); err != nil {
			return nil, err
		}
	}

	campaigns := make([]domain.Campaign, 0, len(wires))
	for _, w := range wires {
		campaigns = append(campaigns, w.toDomain())
	}
	return campaigns, nil
}
