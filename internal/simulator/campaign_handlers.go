package simulator

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/whatsappmarket/campaign-console/internal/domain"
	"github.com/whatsappmarket/campaign-console/pkg/response"
)

func (s *Server) handleCreateCampaign(c echo.Context) error {
	name := c.FormValue("name")
	owner := firstValue(c, "username", "owner", "created_by")
	numberList := c.FormValue("number_list")
	content := firstValue(c, "content", "message")

	if name == "" || owner == "" || numberList == "" || content == "" {
		return response.BadRequest(c, "name, username, number_list and content are required")
	}

	mediaName := ""
	if file, err := c.FormFile("media"); err == nil && file != nil {
		mediaName = file.Filename
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	key := listKey{Owner: owner, Name: numberList}
	if _, exists := s.store.lists[key]; !exists {
		return response.NotFound(c, "List not found")
	}

	campaign := &campaignState{
		ID:         uuid.NewString(),
		Name:       name,
		Owner:      owner,
		Content:    content,
		NumberList: numberList,
		MediaName:  mediaName,
		CreatedAt:  time.Now(),
	}
	s.store.campaigns[campaign.ID] = campaign

	return response.OK(c, map[string]any{
		"campaign_id": campaign.ID,
		"message":     "Campaign created successfully",
	})
}

func firstValue(c echo.Context, names ...string) string {
	for _, name := range names {
		if v := c.FormValue(name); v != "" {
			return v
		}
	}
	return ""
}

type executeRequest struct {
	BatchSize int `json:"batch_size"`
	Offset    int `json:"offset"`
}

func (s *Server) handleExecute(c echo.Context) error {
	var req executeRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err.Error())
	}
	if req.BatchSize <= 0 {
		req.BatchSize = 10
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	campaign, exists := s.store.campaigns[c.Param("id")]
	if !exists {
		return response.NotFound(c, "Campaign not found")
	}

	contacts := s.store.lists[listKey{Owner: campaign.Owner, Name: campaign.NumberList}]

	queued := 0
	end := req.Offset + req.BatchSize
	for i, contact := range contacts {
		if i < req.Offset || i >= end {
			continue
		}
		// Re-execution with the same offset must not double-enqueue.
		if campaign.findNumber(contact.Number) != nil {
			continue
		}
		details := map[string]any{}
		for k, v := range contact.AdditionalDetails {
			details[k] = v
		}
		if contact.Location != "" {
			details["location"] = contact.Location
		}
		if contact.Interests != "" {
			details["interests"] = contact.Interests
		}
		campaign.Numbers = append(campaign.Numbers, &numberState{
			Number:  contact.Number,
			Name:    contact.Name,
			Details: details,
			Status:  domain.NumberPending,
		})
		queued++
	}
	campaign.Executed = true

	return response.OK(c, map[string]any{
		"status":        "started",
		"queued":        queued,
		"total_numbers": len(campaign.Numbers),
	})
}

func (s *Server) handleStatus(c echo.Context) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	campaign, exists := s.store.campaigns[c.Param("id")]
	if !exists {
		return response.NotFound(c, "Campaign not found")
	}
	if !campaign.Executed {
		// The live service answers this case with bare text, not JSON.
		return response.PlainNotFound(c, "No execution data for campaign "+campaign.Name)
	}

	sent, pending, failed := campaign.counts()
	statusText := "active"
	if pending == 0 && sent+failed >= len(campaign.Numbers) {
		statusText = "completed"
	}
	return response.OK(c, map[string]any{
		"campaign_id": campaign.ID,
		"status":      statusText,
		"sent":        sent,
		"pending":     pending,
		"failed":      failed,
		"total":       len(campaign.Numbers),
	})
}

func (s *Server) handleListPending(c echo.Context) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	pending := 0
	for _, campaign := range s.store.campaigns {
		if !campaign.Executed || campaign.pendingCount() > 0 {
			pending++
		}
	}
	return response.OK(c, map[string]any{"pending": pending})
}

func (s *Server) handleNextNumber(c echo.Context) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	campaign, exists := s.store.campaigns[c.Param("id")]
	if !exists {
		return response.NotFound(c, "Campaign not found")
	}

	for _, num := range campaign.Numbers {
		if num.Status != domain.NumberPending || num.HandedOut {
			continue
		}
		num.HandedOut = true
		return response.OK(c, map[string]any{
			"number":    num.Number,
			"name":      num.Name,
			"message":   campaign.Content,
			"image_url": campaign.MediaName,
		})
	}
	// Exhausted: an empty object, which clients read as "stop".
	return response.OK(c, map[string]any{})
}

type processNumberRequest struct {
	CampaignID string         `json:"campaign_id"`
	Number     string         `json:"number"`
	Status     string         `json:"status"`
	Notes      string         `json:"notes"`
	Feedback   map[string]any `json:"feedback"`
}

func (s *Server) handleProcessNumber(c echo.Context) error {
	var req processNumberRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err.Error())
	}
	status := domain.NumberStatus(req.Status)
	if !status.Valid() {
		return response.BadRequest(c, "status must be sent or failed")
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	campaign, exists := s.store.campaigns[req.CampaignID]
	if !exists {
		return response.NotFound(c, "Campaign not found")
	}
	num := campaign.findNumber(req.Number)
	if num == nil {
		return response.NotFound(c, "Number not found in campaign")
	}
	if num.Status != domain.NumberPending {
		// Sent/failed numbers are immutable except for review annotations.
		return response.NotFound(c, "Number already processed")
	}

	now := time.Now()
	num.Status = status
	num.Notes = req.Notes
	num.Feedback = req.Feedback
	num.SentAt = &now

	remaining := campaign.pendingCount()
	return response.OK(c, map[string]any{
		"is_completed":    remaining == 0,
		"remaining_count": remaining,
	})
}

func (s *Server) handleReviewNext(c echo.Context) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	campaign, exists := s.store.campaigns[c.Param("id")]
	if !exists {
		return response.NotFound(c, "Campaign not found")
	}

	for _, num := range campaign.Numbers {
		if num.Status == domain.NumberPending || num.Reviewed {
			continue
		}
		details := map[string]any{}
		for k, v := range num.Details {
			details[k] = v
		}
		for k, v := range num.Feedback {
			details[k] = v
		}
		return response.OK(c, map[string]any{
			"number":         num.Number,
			"notes":          num.Notes,
			"number_details": details,
			"remaining":      campaign.unreviewedCount(),
			"status":         string(num.Status),
		})
	}
	return response.OK(c, map[string]any{})
}

type updateReviewRequest struct {
	CampaignID string `json:"campaign_id"`
	Number     string `json:"number"`
	Approved   bool   `json:"approved"`
	Notes      string `json:"notes"`
}

func (s *Server) handleUpdateReview(c echo.Context) error {
	var req updateReviewRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	campaign, exists := s.store.campaigns[req.CampaignID]
	if !exists {
		return response.NotFound(c, "Campaign not found")
	}
	num := campaign.findNumber(req.Number)
	if num == nil || num.Status == domain.NumberPending {
		return response.NotFound(c, "Number not found in campaign")
	}

	num.Reviewed = true
	num.Approved = req.Approved
	num.ReviewNotes = req.Notes

	remaining := campaign.unreviewedCount()
	return response.OK(c, map[string]any{
		"is_completed": remaining == 0,
		"remaining":    remaining,
	})
}

func (s *Server) handleListAll(c echo.Context) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	return response.OK(c, map[string]any{"campaigns": s.campaignViews("")})
}

func (s *Server) handleListByUser(c echo.Context) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	return response.OK(c, map[string]any{"campaigns": s.campaignViews(c.Param("username"))})
}

// campaignViews renders campaigns in wire shape; owner filters when non-empty.
// Callers hold the store lock.
func (s *Server) campaignViews(owner string) []map[string]any {
	views := []map[string]any{}
	for _, campaign := range s.store.campaigns {
		if owner != "" && campaign.Owner != owner {
			continue
		}
		sent, pending, failed := campaign.counts()
		statusText := "created"
		if campaign.Executed {
			statusText = "active"
			if pending == 0 && sent+failed >= len(campaign.Numbers) {
				statusText = "completed"
			}
		}
		views = append(views, map[string]any{
			"campaign_id": campaign.ID,
			"name":        campaign.Name,
			"owner":       campaign.Owner,
			"content":     campaign.Content,
			"number_list": campaign.NumberList,
			"status":      statusText,
		})
	}
	return views
}
