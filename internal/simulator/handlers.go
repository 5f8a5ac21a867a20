package simulator

import (
	"encoding/json"

	"github.com/labstack/echo/v4"

	"github.com/whatsappmarket/campaign-console/internal/domain"
	"github.com/whatsappmarket/campaign-console/pkg/response"
	"github.com/whatsappmarket/campaign-console/pkg/validator"
)

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, exists := s.store.users[req.Username]; exists {
		return response.Conflict(c, "User already exists")
	}
	s.store.users[req.Username] = userRecord{Password: req.Password, Role: req.Role}
	return response.Message(c, "User created successfully")
}

type createListRequest struct {
	ListName string `json:"list_name" validate:"required"`
	Username string `json:"username" validate:"required"`
}

func (s *Server) handleCreateList(c echo.Context) error {
	var req createListRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, exists := s.store.users[req.Username]; !exists {
		return response.NotFound(c, "User not found")
	}
	key := listKey{Owner: req.Username, Name: req.ListName}
	if _, exists := s.store.lists[key]; exists {
		return response.Conflict(c, "List already exists")
	}
	s.store.lists[key] = nil
	return response.Message(c, "List created successfully")
}

type addContactRequest struct {
	ListName             string `json:"list_name" validate:"required"`
	Username             string `json:"username" validate:"required"`
	Number               string `json:"number" validate:"required"`
	Name                 string `json:"name" validate:"required"`
	Interests            string `json:"interests"`
	Age                  string `json:"age"`
	Location             string `json:"location"`
	Gender               string `json:"gender"`
	Language             string `json:"language"`
	Occupation           string `json:"occupation"`
	PreferredContactTime string `json:"preferred_contact_time"`
	Tags                 string `json:"tags"`
	AdditionalDetails    string `json:"additional_details"`
}

func (s *Server) handleAddContact(c echo.Context) error {
	var req addContactRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	key := listKey{Owner: req.Username, Name: req.ListName}
	if _, exists := s.store.lists[key]; !exists {
		return response.NotFound(c, "List not found")
	}

	contact := domain.Contact{
		ListName:             req.ListName,
		Username:             req.Username,
		Number:               req.Number,
		Name:                 req.Name,
		Interests:            req.Interests,
		Age:                  req.Age,
		Location:             req.Location,
		Gender:               req.Gender,
		Language:             req.Language,
		Occupation:           req.Occupation,
		PreferredContactTime: req.PreferredContactTime,
		Tags:                 req.Tags,
	}
	if req.AdditionalDetails != "" {
		// The open column arrives as JSON-in-a-string; keep whatever parses,
		// drop silently what does not, like the live service.
		var details map[string]string
		if err := json.Unmarshal([]byte(req.AdditionalDetails), &details); err == nil {
			contact.AdditionalDetails = details
		}
	}

	s.store.lists[key] = append(s.store.lists[key], contact)
	return response.Message(c, "Number added successfully")
}

func (s *Server) handleListLists(c echo.Context) error {
	username := c.QueryParam("username")
	if username == "" {
		return response.BadRequest(c, "username query parameter is required")
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	names := []string{}
	for key := range s.store.lists {
		if key.Owner == username {
			names = append(names, key.Name)
		}
	}
	return response.OK(c, map[string]any{"lists": names})
}
