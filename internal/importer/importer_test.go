package importer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/whatsappmarket/campaign-console/internal/client"
	"github.com/whatsappmarket/campaign-console/internal/domain"
)

//
// Test fakes, used only in this file.
//

type fakeSubmitter struct {
	createdLists []string
	contacts     []domain.Contact

	failCreate   error
	failContacts map[string]error
}

func (f *fakeSubmitter) CreateContactList(ctx context.Context, listName, username string) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	f.createdLists = append(f.createdLists, listName)
	return nil
}

func (f *fakeSubmitter) AddContact(ctx context.Context, contact domain.Contact) error {
	if err, ok := f.failContacts[contact.Number]; ok {
		return err
	}
	f.contacts = append(f.contacts, contact)
	return nil
}

func parseCSV(t *testing.T, data string) *ParsedFile {
	t.Helper()
	parsed, err := Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	return parsed
}

func TestParse_SkipsBlankLinesAndToleratesRaggedRows(t *testing.T) {
	data := "name,phone,city\n" +
		"Alice,1234567,Lahore\n" +
		"\n" +
		"Bob,7654321\n" +
		"Carol,5550001,Karachi,extra\n"

	parsed := parseCSV(t, data)

	if len(parsed.Headers) != 3 {
		t.Fatalf("expected 3 headers, got %d", len(parsed.Headers))
	}
	if len(parsed.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(parsed.Rows))
	}
	if parsed.Rows[1]["city"] != "" {
		t.Errorf("short row should leave missing field empty, got %q", parsed.Rows[1]["city"])
	}
	if parsed.Rows[2]["city"] != "Karachi" {
		t.Errorf("long row should keep mapped fields, got %q", parsed.Rows[2]["city"])
	}
}

func TestDetectPhoneColumn(t *testing.T) {
	tests := []struct {
		headers []string
		want    string
		found   bool
	}{
		{[]string{"Name", "Phone Number", "City"}, "Phone Number", true},
		{[]string{"Name", "MOBILE", "City"}, "MOBILE", true},
		{[]string{"Name", "contact_number"}, "contact_number", true},
		{[]string{"Name", "City"}, "", false},
		// First match wins.
		{[]string{"phone_home", "mobile"}, "phone_home", true},
	}

	for _, tt := range tests {
		got, found := DetectPhoneColumn(tt.headers)
		if got != tt.want || found != tt.found {
			t.Errorf("DetectPhoneColumn(%v) = (%q, %t), want (%q, %t)",
				tt.headers, got, found, tt.want, tt.found)
		}
	}
}

// Normalizing an already-normalized number yields the same value, and
// formatted variants of one number converge on the same digits.
func TestNormalizePhone_Idempotent(t *testing.T) {
	first := NormalizePhone("+92 300-1234567", "92")
	second := NormalizePhone(first, "92")
	if first != second {
		t.Errorf("normalization not idempotent: %q then %q", first, second)
	}

	plain := NormalizePhone("923001234567", "92")
	if first != plain {
		t.Errorf("formatted and plain input diverge: %q vs %q", first, plain)
	}
	if first != "923001234567" {
		t.Errorf("expected 923001234567, got %q", first)
	}
}

func TestNormalizePhone_PrefixNotDoubled(t *testing.T) {
	if got := NormalizePhone("3001234567", "92"); got != "923001234567" {
		t.Errorf("expected prefix prepended, got %q", got)
	}
	if got := NormalizePhone("923001234567", "92"); got != "923001234567" {
		t.Errorf("prefix must not double, got %q", got)
	}
	if got := NormalizePhone("no digits here", "92"); got != "" {
		t.Errorf("digit-free cell should normalize to empty, got %q", got)
	}
}

func TestExtractCandidates(t *testing.T) {
	got := ExtractCandidates("[1234567890, 1234567891]", nil)
	if len(got) != 2 || got[0] != "1234567890" || got[1] != "1234567891" {
		t.Fatalf("bracketed list: got %v", got)
	}

	got = ExtractCandidates("+92 300-1234567", nil)
	if len(got) != 1 {
		t.Fatalf("single number with separators must stay one candidate, got %v", got)
	}

	got = ExtractCandidates("", nil)
	if len(got) != 0 {
		t.Fatalf("empty cell: got %v", got)
	}
}

const fiveRowCSV = "name,phone\n" +
	"A,1111111\n" +
	"B,2222222\n" +
	"C,\"[1234567890, 1234567891]\"\n" +
	"D,4444444\n" +
	"E,5555555\n"

// Use-first keeps every row, taking the first number of the multi cell.
func TestImport_MultiUseFirst(t *testing.T) {
	fake := &fakeSubmitter{}
	parsed := parseCSV(t, fiveRowCSV)

	result, err := New(fake).Import(context.Background(), parsed, Options{
		ListName:    "demo_list",
		Username:    "demo_user",
		Mapping:     FieldMapping{Name: "name"},
		MultiPolicy: MultiUseFirst,
	})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}

	if result.Submitted != 5 {
		t.Fatalf("expected 5 submitted, got %d", result.Submitted)
	}
	if fake.contacts[2].Number != "1234567890" {
		t.Errorf("multi cell should use first number, got %q", fake.contacts[2].Number)
	}
}

// Skip-multi drops exactly the multi-number row.
func TestImport_MultiSkipRow(t *testing.T) {
	fake := &fakeSubmitter{}
	parsed := parseCSV(t, fiveRowCSV)

	result, err := New(fake).Import(context.Background(), parsed, Options{
		ListName:    "demo_list",
		Username:    "demo_user",
		Mapping:     FieldMapping{Name: "name"},
		MultiPolicy: MultiSkipRow,
	})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}

	if result.Submitted != 4 || result.Dropped != 1 {
		t.Fatalf("expected 4 submitted / 1 dropped, got %d / %d", result.Submitted, result.Dropped)
	}
	for _, contact := range fake.contacts {
		if contact.Name == "C" {
			t.Errorf("multi row was submitted despite skip policy")
		}
	}
}

// The MultiDetected callback fires at most once and its answer binds the
// whole batch.
func TestImport_MultiPromptOnce(t *testing.T) {
	data := "name,phone\n" +
		"A,\"[111, 222]\"\n" +
		"B,\"[333, 444]\"\n"
	fake := &fakeSubmitter{}
	parsed := parseCSV(t, data)

	prompts := 0
	result, err := New(fake).Import(context.Background(), parsed, Options{
		ListName:    "demo_list",
		Username:    "demo_user",
		Mapping:     FieldMapping{Name: "name"},
		MultiPolicy: MultiAsk,
		MultiDetected: func(cell string) MultiPolicy {
			prompts++
			return MultiSkipRow
		},
	})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}

	if prompts != 1 {
		t.Errorf("expected exactly 1 prompt, got %d", prompts)
	}
	if result.Dropped != 2 {
		t.Errorf("policy must apply to the whole batch, dropped=%d", result.Dropped)
	}
}

// Rows with an empty or digit-free phone cell never reach submission.
func TestImport_EmptyNumbersDropped(t *testing.T) {
	data := "name,phone\n" +
		"A,1111111\n" +
		"B,\n" +
		"C,n/a\n" +
		"D,4444444\n"
	fake := &fakeSubmitter{}
	parsed := parseCSV(t, data)

	result, err := New(fake).Import(context.Background(), parsed, Options{
		ListName: "demo_list",
		Username: "demo_user",
		Mapping:  FieldMapping{Name: "name"},
	})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}

	if result.Submitted != 2 {
		t.Fatalf("expected 2 submitted, got %d", result.Submitted)
	}
	if result.Submitted != result.Total-result.Dropped {
		t.Errorf("submitted (%d) != total (%d) - dropped (%d)",
			result.Submitted, result.Total, result.Dropped)
	}
	if len(result.Warnings) == 0 {
		t.Errorf("dropped rows must produce warnings")
	}
}

func TestImport_RowSubsetting(t *testing.T) {
	fake := &fakeSubmitter{}
	parsed := parseCSV(t, fiveRowCSV)

	result, err := New(fake).Import(context.Background(), parsed, Options{
		ListName:    "demo_list",
		Username:    "demo_user",
		Mapping:     FieldMapping{Name: "name"},
		MultiPolicy: MultiUseFirst,
		SkipN:       1,
		FirstN:      2,
	})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}

	if result.Total != 2 {
		t.Fatalf("expected 2 rows after subsetting, got %d", result.Total)
	}
	if fake.contacts[0].Name != "B" || fake.contacts[1].Name != "C" {
		t.Errorf("wrong subset: %q, %q", fake.contacts[0].Name, fake.contacts[1].Name)
	}
}

// An existing list is a recoverable conflict; contacts still go in.
func TestImport_ListConflictRecoverable(t *testing.T) {
	fake := &fakeSubmitter{
		failCreate: &client.ConflictError{Op: "create contact list", Resource: "list", Message: "List already exists"},
	}
	parsed := parseCSV(t, "name,phone\nA,1111111\n")

	result, err := New(fake).Import(context.Background(), parsed, Options{
		ListName: "demo_list",
		Username: "demo_user",
		Mapping:  FieldMapping{Name: "name"},
	})
	if err != nil {
		t.Fatalf("conflict on list creation should not abort the import: %v", err)
	}
	if result.Submitted != 1 {
		t.Errorf("expected 1 submitted, got %d", result.Submitted)
	}
}

// One failing contact is counted, the rest of the batch continues.
func TestImport_PerRowFailureDoesNotAbort(t *testing.T) {
	fake := &fakeSubmitter{
		failContacts: map[string]error{
			"2222222": fmt.Errorf("service rejected it"),
		},
	}
	parsed := parseCSV(t, "name,phone\nA,1111111\nB,2222222\nC,3333333\n")

	result, err := New(fake).Import(context.Background(), parsed, Options{
		ListName: "demo_list",
		Username: "demo_user",
		Mapping:  FieldMapping{Name: "name"},
	})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}

	if result.Failed != 1 || result.Submitted != 2 {
		t.Fatalf("expected 2 submitted / 1 failed, got %d / %d", result.Submitted, result.Failed)
	}
}

func TestImport_CustomColumnsToAdditionalDetails(t *testing.T) {
	data := "name,phone,favourite_team\nA,1111111,Lions\n"
	fake := &fakeSubmitter{}
	parsed := parseCSV(t, data)

	_, err := New(fake).Import(context.Background(), parsed, Options{
		ListName: "demo_list",
		Username: "demo_user",
		Mapping: FieldMapping{
			Name:   "name",
			Custom: map[string]string{"team": "favourite_team"},
		},
	})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}

	if got := fake.contacts[0].AdditionalDetails["team"]; got != "Lions" {
		t.Errorf("custom column not captured, got %q", got)
	}
}

func TestImport_NoPhoneColumnFails(t *testing.T) {
	fake := &fakeSubmitter{}
	parsed := parseCSV(t, "name,city\nA,Lahore\n")

	_, err := New(fake).Import(context.Background(), parsed, Options{
		ListName: "demo_list",
		Username: "demo_user",
	})
	if err == nil {
		t.Fatal("expected an error when no phone column can be found")
	}
	if len(fake.createdLists) != 0 {
		t.Errorf("no network call may happen before the column is resolved")
	}
}
