package client

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/whatsappmarket/campaign-console/environments"
	"github.com/whatsappmarket/campaign-console/pkg/logger"
	validatorpkg "github.com/whatsappmarket/campaign-console/pkg/validator"
)

// Client is the typed wrapper around the hosted campaign service. It
// normalizes the service's three response shapes (plain JSON, JSON-as-text
// needing a second parse, bare error text) into one stable surface, and maps
// failures onto the error kinds in errors.go.
//
// Retries are deliberately not configured: the service's write endpoints are
// not known to be idempotent, so a retry is always a manual user action.
type Client struct {
	httpClient *resty.Client
	baseURL    string
	validate   *validatorpkg.CustomValidator
}

func New(cfg environments.APIConfig) *Client {
	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		validate:   validatorpkg.New(),
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

// request wraps one resty round trip, converting resty-level failures into
// TransportError.
func (c *Client) request(op string, send func(r *resty.Request) (*resty.Response, error), ctx context.Context) (*resty.Response, error) {
	resp, err := send(c.httpClient.R().SetContext(ctx))
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	logger.Debugf("%s -> HTTP %d", op, resp.StatusCode())
	return resp, nil
}

// errorBody is the union of error shapes the service has been seen to emit.
type errorBody struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (b errorBody) text() string {
	for _, s := range []string{b.Error, b.Message, b.Detail} {
		if s != "" {
			return s
		}
	}
	return ""
}

// classifyStatusError maps a non-2xx response onto the error taxonomy.
// The structured error text is preferred; heuristic string matching is the
// fallback when the service gives no code.
func classifyStatusError(op, resource string, resp *resty.Response) error {
	var wire errorBody
	msg := ""
	if err := json.Unmarshal(resp.Body(), &wire); err == nil {
		msg = wire.text()
	}
	if msg == "" {
		return &UnparsableResponseError{
			Op:         op,
			StatusCode: resp.StatusCode(),
			Body:       string(resp.Body()),
		}
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "already exists"), strings.Contains(lower, "duplicate"):
		return &ConflictError{Op: op, Resource: resource, Message: msg}
	case resp.StatusCode() == 404, strings.Contains(lower, "not found"):
		return &NotFoundError{Op: op, Resource: resource, Message: msg}
	}
	return &HTTPStatusError{Op: op, StatusCode: resp.StatusCode(), Message: msg}
}

// decodeJSON parses a response body into out. Some service endpoints return
// their JSON document wrapped in a JSON string; that case gets a second
// parse before giving up.
func decodeJSON(op string, resp *resty.Response, out any) error {
	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 {
		return &UnparsableResponseError{Op: op, StatusCode: resp.StatusCode(), Body: ""}
	}
	if err := json.Unmarshal(body, out); err == nil {
		return nil
	}

	var text string
	if err := json.Unmarshal(body, &text); err == nil {
		if err := json.Unmarshal([]byte(text), out); err == nil {
			return nil
		}
	}

	return &UnparsableResponseError{
		Op:         op,
		StatusCode: resp.StatusCode(),
		Body:       string(body),
	}
}

type messageBody struct {
	Message string `json:"message"`
}

// RegisterUser creates an account on the service. An "already exists" answer
// comes back as *ConflictError, which callers treat as recoverable: the
// existing account is used and the workflow proceeds.
func (c *Client) RegisterUser(ctx context.Context, username, password, role string) (string, error) {
	const op = "register user"

	req := struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
		Role     string `json:"role" validate:"required,oneof=marketer crowdsource"`
	}{Username: username, Password: password, Role: role}
	if err := c.validate.Validate(&req); err != nil {
		return "", err
	}

	resp, err := c.request(op, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(req).Post(c.url("/auth/register"))
	}, ctx)
	if err != nil {
		return "", err
	}
	if !resp.IsSuccess() {
		return "", classifyStatusError(op, "user "+username, resp)
	}

	var body messageBody
	if err := decodeJSON(op, resp, &body); err != nil {
		return "", err
	}
	return body.Message, nil
}
