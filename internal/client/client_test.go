package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/whatsappmarket/campaign-console/environments"
	"github.com/whatsappmarket/campaign-console/internal/domain"
	validatorpkg "github.com/whatsappmarket/campaign-console/pkg/validator"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(environments.APIConfig{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	})
}

func TestRegisterUser_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/register" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"User created successfully"}`))
	})

	msg, err := c.RegisterUser(context.Background(), "alice", "secret", "marketer")
	if err != nil {
		t.Fatalf("RegisterUser returned error: %v", err)
	}
	if msg != "User created successfully" {
		t.Errorf("unexpected message %q", msg)
	}
}

// An existing account is a conflict, and conflicts are recoverable: the
// caller detects the kind and proceeds with the existing account.
func TestRegisterUser_ConflictIsRecoverable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"error","error":"User already exists"}`))
	})

	_, err := c.RegisterUser(context.Background(), "alice", "secret", "marketer")
	if !IsConflict(err) {
		t.Fatalf("expected a conflict, got %v", err)
	}

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error is not *ConflictError: %T", err)
	}
	if conflict.Message != "User already exists" {
		t.Errorf("unexpected message %q", conflict.Message)
	}
}

// A bad role never reaches the network.
func TestRegisterUser_ValidatedBeforeNetwork(t *testing.T) {
	hits := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
	})

	_, err := c.RegisterUser(context.Background(), "alice", "secret", "admin")
	var verr *validatorpkg.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if hits != 0 {
		t.Errorf("request hit the server despite failing client-side validation")
	}
}

func TestClassifyStatusError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "not found by status code",
			status: http.StatusNotFound,
			body:   `{"error":"no such campaign"}`,
			check: func(t *testing.T, err error) {
				if !IsNotFound(err) {
					t.Errorf("expected NotFoundError, got %v", err)
				}
			},
		},
		{
			name:   "not found by message on a 400",
			status: http.StatusBadRequest,
			body:   `{"error":"List not found"}`,
			check: func(t *testing.T, err error) {
				if !IsNotFound(err) {
					t.Errorf("expected NotFoundError, got %v", err)
				}
			},
		},
		{
			name:   "duplicate is a conflict",
			status: http.StatusBadRequest,
			body:   `{"detail":"duplicate entry"}`,
			check: func(t *testing.T, err error) {
				if !IsConflict(err) {
					t.Errorf("expected ConflictError, got %v", err)
				}
			},
		},
		{
			name:   "plain server error",
			status: http.StatusInternalServerError,
			body:   `{"message":"database is on fire"}`,
			check: func(t *testing.T, err error) {
				var herr *HTTPStatusError
				if !errors.As(err, &herr) {
					t.Fatalf("expected HTTPStatusError, got %v", err)
				}
				if herr.StatusCode != http.StatusInternalServerError {
					t.Errorf("wrong status code %d", herr.StatusCode)
				}
			},
		},
		{
			name:   "html error page is unparsable",
			status: http.StatusBadGateway,
			body:   `<html>Bad Gateway</html>`,
			check: func(t *testing.T, err error) {
				var uerr *UnparsableResponseError
				if !errors.As(err, &uerr) {
					t.Fatalf("expected UnparsableResponseError, got %v", err)
				}
				if !strings.Contains(uerr.Body, "Bad Gateway") {
					t.Errorf("raw body not preserved: %q", uerr.Body)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			err := c.CreateContactList(context.Background(), "demo", "alice")
			if err == nil {
				t.Fatal("expected an error")
			}
			tt.check(t, err)
		})
	}
}

func TestRequest_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(environments.APIConfig{BaseURL: srv.URL, Timeout: time.Second})
	err := c.CreateContactList(context.Background(), "demo", "alice")

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

// Some endpoints return a JSON document wrapped in a JSON string; the client
// parses through the extra layer.
func TestDecodeJSON_DoubleEncodedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`"{\"number\":\"923001234567\",\"name\":\"Ali\",\"message\":\"hi\"}"`))
	})

	number, err := c.GetNextNumber(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetNextNumber returned error: %v", err)
	}
	if number == nil || number.Number != "923001234567" {
		t.Fatalf("double-encoded body not decoded: %+v", number)
	}
}

func TestGetNextNumber_EmptyMeansExhausted(t *testing.T) {
	for _, body := range []string{"", "{}", `{"message":"no pending numbers"}`} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})
		number, err := c.GetNextNumber(context.Background(), "c1")
		if err != nil {
			t.Fatalf("body %q: unexpected error %v", body, err)
		}
		if number != nil {
			t.Errorf("body %q: expected nil number, got %+v", body, number)
		}
	}
}

func TestGetNextNumber_PhoneFieldDrift(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"phone":"923001234567","name":"Ali"}`))
	})

	number, err := c.GetNextNumber(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetNextNumber returned error: %v", err)
	}
	if number.Number != "923001234567" {
		t.Errorf("phone field not mapped onto number, got %q", number.Number)
	}
}

func TestGetCampaignStatus_PlainTextFallback(t *testing.T) {
	const text = "No execution data for campaign promo"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(text))
	})

	status, raw, err := c.GetCampaignStatus(context.Background(), "c1")
	if err != nil {
		t.Fatalf("plain-text status must not be an error: %v", err)
	}
	if status != nil {
		t.Errorf("expected nil status, got %+v", status)
	}
	if raw != text {
		t.Errorf("raw text not preserved: %q", raw)
	}
}

func TestGetCampaignStatus_CounterNameDrift(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"campaign_id":"c1","status":"active","messages_sent":7,"messages_pending":2,"total_numbers":10}`))
	})

	status, raw, err := c.GetCampaignStatus(context.Background(), "c1")
	if err != nil || raw != "" {
		t.Fatalf("unexpected result: raw=%q err=%v", raw, err)
	}
	if status.Sent != 7 || status.Pending != 2 || status.Total != 10 {
		t.Errorf("alternate counter names not mapped: %+v", status)
	}
	if status.Failed != nil {
		t.Errorf("absent failed counter must stay nil, got %d", *status.Failed)
	}
}

func TestListPendingCampaigns(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"wrapped count", `{"pending":3}`, 3},
		{"bare array", `[{"campaign_id":"a"},{"campaign_id":"b"}]`, 2},
		{"garbage falls open to zero", `oops`, 0},
		{"empty body falls open to zero", ``, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			got, err := c.ListPendingCampaigns(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCreateCampaign_MultipartWithMedia(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("request is not multipart: %v", err)
		}
		if got := r.FormValue("name"); got != "summer_promo" {
			t.Errorf("campaign name not sanitized, got %q", got)
		}
		if got := r.FormValue("number_list"); got != "demo_list" {
			t.Errorf("number_list = %q", got)
		}

		file, header, err := r.FormFile("media")
		if err != nil {
			t.Fatalf("media part missing: %v", err)
		}
		defer file.Close()
		if header.Filename != "banner.png" {
			t.Errorf("media filename = %q", header.Filename)
		}
		payload, _ := io.ReadAll(file)
		if string(payload) != "fake-png-bytes" {
			t.Errorf("media content not streamed verbatim")
		}

		w.Write([]byte(`{"campaign_id":"c-123"}`))
	})

	id, err := c.CreateCampaign(context.Background(), CreateCampaignRequest{
		Name:       "Summer Promo!",
		Username:   "alice",
		NumberList: "demo_list",
		Content:    "hello",
		MediaName:  "banner.png",
		Media:      strings.NewReader("fake-png-bytes"),
	})
	if err != nil {
		t.Fatalf("CreateCampaign returned error: %v", err)
	}
	if id != "c-123" {
		t.Errorf("campaign id = %q", id)
	}
}

func TestCreateCampaign_NoMedia(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("request is not multipart: %v", err)
		}
		if _, _, err := r.FormFile("media"); err == nil {
			t.Errorf("media part present on a text-only campaign")
		}
		w.Write([]byte(`{"campaign_id":"c-124"}`))
	})

	id, err := c.CreateCampaign(context.Background(), CreateCampaignRequest{
		Name:       "plain",
		Username:   "alice",
		NumberList: "demo_list",
		Content:    "hello",
	})
	if err != nil {
		t.Fatalf("CreateCampaign returned error: %v", err)
	}
	if id != "c-124" {
		t.Errorf("campaign id = %q", id)
	}
}

// A 2xx answer without a campaign_id is still a creation failure.
func TestCreateCampaign_MissingIDFails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"ok"}`))
	})

	_, err := c.CreateCampaign(context.Background(), CreateCampaignRequest{
		Name:       "promo",
		Username:   "alice",
		NumberList: "demo_list",
		Content:    "hello",
	})
	if !errors.Is(err, ErrNoCampaignID) {
		t.Fatalf("expected ErrNoCampaignID, got %v", err)
	}
}

func TestProcessNumber_ValidatedBeforeNetwork(t *testing.T) {
	hits := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
	})

	tests := []struct {
		name    string
		number  string
		outcome domain.Outcome
	}{
		{"missing number", "", domain.Outcome{Status: domain.NumberSent, Notes: "ok"}},
		{"bad status", "923001", domain.Outcome{Status: "queued", Notes: "ok"}},
		{"missing notes", "923001", domain.Outcome{Status: domain.NumberSent}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ProcessNumber(context.Background(), "c1", tt.number, tt.outcome)
			var verr *validatorpkg.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected a validation error, got %v", err)
			}
		})
	}
	if hits != 0 {
		t.Errorf("invalid outcomes must not reach the wire, got %d requests", hits)
	}
}

func TestProcessNumber_RemainingFieldDrift(t *testing.T) {
	for _, body := range []string{
		`{"is_completed":false,"remaining_count":4}`,
		`{"is_completed":false,"remaining":4}`,
	} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})
		result, err := c.ProcessNumber(context.Background(), "c1", "923001", domain.Outcome{
			Status: domain.NumberSent,
			Notes:  "delivered",
		})
		if err != nil {
			t.Fatalf("body %q: unexpected error %v", body, err)
		}
		if result.Remaining != 4 {
			t.Errorf("body %q: remaining = %d, want 4", body, result.Remaining)
		}
	}
}

func TestListCampaigns_WrappedAndBareArrays(t *testing.T) {
	for _, body := range []string{
		`{"campaigns":[{"campaign_id":"c1","name":"promo","owner":"alice","content":"hi"}]}`,
		`[{"campaign_id":"c1","name":"promo","created_by":"alice","message":"hi"}]`,
	} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})
		campaigns, err := c.ListAllCampaigns(context.Background())
		if err != nil {
			t.Fatalf("body %q: unexpected error %v", body, err)
		}
		if len(campaigns) != 1 {
			t.Fatalf("body %q: got %d campaigns", body, len(campaigns))
		}
		got := campaigns[0]
		if got.Owner != "alice" || got.Content != "hi" {
			t.Errorf("body %q: field drift not normalized: %+v", body, got)
		}
	}
}
