package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/whatsappmarket/campaign-console/internal/domain"
)

func encodeDetails(details map[string]string) (string, error) {
	raw, err := json.Marshal(details)
	if err != nil {
		return "", fmt.Errorf("encode additional_details: %w", err)
	}
	return string(raw), nil
}

// CreateContactList registers a named, owner-scoped list. Must be called
// before any contact is added to it.
func (c *Client) CreateContactList(ctx context.Context, listName, username string) error {
	const op = "create contact list"

	req := struct {
		ListName string `json:"list_name" validate:"required"`
		Username string `json:"username" validate:"required"`
	}{ListName: listName, Username: username}
	if err := c.validate.Validate(&req); err != nil {
		return err
	}

	resp, err := c.request(op, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(req).Post(c.url("/numbers/create-list"))
	}, ctx)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return classifyStatusError(op, "list "+listName, resp)
	}
	return nil
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
	AdditionalDetails    string `json:"additional_details,omitempty"`
}

// AddContact submits one contact to its list. Required fields are checked
// here, before the round trip; a missing field never reaches the wire.
// AdditionalDetails travels as a JSON object serialized into a string, which
// is the encoding the service expects for its open-ended column.
func (c *Client) AddContact(ctx context.Context, contact domain.Contact) error {
	const op = "add contact"

	req := addContactRequest{
		ListName:             contact.ListName,
		Username:             contact.Username,
		Number:               contact.Number,
		Name:                 contact.Name,
		Interests:            contact.Interests,
		Age:                  contact.Age,
		Location:             contact.Location,
		Gender:               contact.Gender,
		Language:             contact.Language,
		Occupation:           contact.Occupation,
		PreferredContactTime: contact.PreferredContactTime,
		Tags:                 contact.Tags,
	}
	if len(contact.AdditionalDetails) > 0 {
		encoded, err := encodeDetails(contact.AdditionalDetails)
		if err != nil {
			return err
		}
		req.AdditionalDetails = encoded
	}
	if err := c.validate.Validate(&req); err != nil {
		return err
	}

	resp, err := c.request(op, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(req).Post(c.url("/numbers/add"))
	}, ctx)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return classifyStatusError(op, "contact "+contact.Number, resp)
	}
	return nil
}

// ListContactLists returns the names of the lists owned by username.
func (c *Client) ListContactLists(ctx context.Context, username string) ([]string, error) {
	const op = "list contact lists"

	resp, err := c.request(op, func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParam("username", username).Get(c.url("/numbers/lists"))
	}, ctx)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, classifyStatusError(op, "lists of "+username, resp)
	}

	var body struct {
		Lists []string `json:"lists"`
	}
	if err := decodeJSON(op, resp, &body); err != nil {
		return nil, err
	}
	return body.Lists, nil
}
