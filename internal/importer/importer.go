package importer

import (
	"context"
	"fmt"
	"regexp"

	"github.com/whatsappmarket/campaign-console/internal/client"
	"github.com/whatsappmarket/campaign-console/internal/domain"
	"github.com/whatsappmarket/campaign-console/pkg/logger"
	validatorpkg "github.com/whatsappmarket/campaign-console/pkg/validator"
)

// MultiPolicy decides what to do with a cell that encodes more than one
// phone number. The choice is batch-uniform: made once, applied to every
// row of the import.
type MultiPolicy int

const (
	// MultiAsk defers the decision to the MultiDetected callback the first
	// time a multi-number cell shows up.
	MultiAsk MultiPolicy = iota
	// MultiUseFirst keeps the row, using the first number in the cell.
	MultiUseFirst
	// MultiSkipRow drops the whole row.
	MultiSkipRow
)

// FieldMapping maps semantic contact fields to header names. Unmapped fields
// stay empty. Custom maps an additional_details key to the header whose cell
// feeds it.
type FieldMapping struct {
	Name                 string
	Interests            string
	Age                  string
	Location             string
	Gender               string
	Language             string
	Occupation           string
	PreferredContactTime string
	Tags                 string

	Custom map[string]string
}

// Options configures one import batch.
type Options struct {
	ListName string
	Username string

	// PhoneColumn names the header holding phone numbers; empty means
	// auto-detect.
	PhoneColumn string
	Mapping     FieldMapping

	// Prefix is prepended to normalized numbers (country code), empty
	// disables it.
	Prefix string

	// NumberPattern overrides the default comma-split candidate extraction
	// with a regexp whose matches are the candidates.
	NumberPattern *regexp.Regexp

	MultiPolicy MultiPolicy
	// MultiDetected is consulted at most once per batch, when MultiPolicy is
	// MultiAsk and a multi-number cell is first seen. Nil defaults to
	// MultiUseFirst.
	MultiDetected func(cell string) MultiPolicy

	// FirstN keeps only the first N data rows (0 keeps all); SkipN drops the
	// first N before FirstN applies. For staged rollouts.
	FirstN int
	SkipN  int
}

// Result summarizes one import batch.
type Result struct {
	Total     int
	Submitted int
	Dropped   int
	Failed    int
	Warnings  []string
}

func (r *Result) warnf(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	r.Warnings = append(r.Warnings, msg)
	logger.Warnf("import: %s", msg)
}

// contactSubmitter is the slice of the remote client the importer needs.
type contactSubmitter interface {
	CreateContactList(ctx context.Context, listName, username string) error
	AddContact(ctx context.Context, contact domain.Contact) error
}

type Importer struct {
	api contactSubmitter
}

func New(api contactSubmitter) *Importer {
	return &Importer{api: api}
}

// Import creates the list once, then submits each validated row
// sequentially. Submissions stay sequential on purpose: the remote service's
// ordering and rate tolerance are unknown, so one contact is acknowledged
// before the next is attempted. A failed row is counted and reported but
// does not abort the rest of the batch.
func (imp *Importer) Import(ctx context.Context, file *ParsedFile, opts Options) (*Result, error) {
	if opts.ListName == "" {
		return nil, validatorpkg.NewFieldError("list_name", "list name is required")
	}
	if opts.Username == "" {
		return nil, validatorpkg.NewFieldError("username", "username is required")
	}

	phoneColumn := opts.PhoneColumn
	if phoneColumn == "" {
		detected, ok := DetectPhoneColumn(file.Headers)
		if !ok {
			return nil, validatorpkg.NewFieldError("phone_column",
				"no phone column given and none of the headers look like one")
		}
		phoneColumn = detected
	}

	rows := subsetRows(file.Rows, opts.SkipN, opts.FirstN)
	result := &Result{Total: len(rows)}

	if err := imp.api.CreateContactList(ctx, opts.ListName, opts.Username); err != nil {
		if !client.IsConflict(err) {
			return nil, err
		}
		result.warnf("list %q already exists, adding to it", opts.ListName)
	}

	policy := opts.MultiPolicy
	for _, row := range rows {
		number, ok := imp.resolveNumber(row[phoneColumn], opts, &policy, result)
		if !ok {
			result.Dropped++
			continue
		}

		contact := buildContact(row, number, opts)
		if err := imp.api.AddContact(ctx, contact); err != nil {
			result.Failed++
			result.warnf("submit %s: %v", number, err)
			continue
		}
		result.Submitted++
	}

	logger.Infof("import: list %q: %d rows, %d submitted, %d dropped, %d failed",
		opts.ListName, result.Total, result.Submitted, result.Dropped, result.Failed)
	return result, nil
}

// resolveNumber turns a raw phone cell into one normalized number, applying
// the batch-wide multiplicity policy. ok=false means the row is dropped.
func (imp *Importer) resolveNumber(cell string, opts Options, policy *MultiPolicy, result *Result) (string, bool) {
	candidates := ExtractCandidates(cell, opts.NumberPattern)
	if len(candidates) == 0 {
		result.warnf("skipping row with empty phone cell %q", cell)
		return "", false
	}

	if len(candidates) > 1 {
		if *policy == MultiAsk {
			if opts.MultiDetected != nil {
				*policy = opts.MultiDetected(cell)
			}
			if *policy == MultiAsk {
				*policy = MultiUseFirst
			}
		}
		if *policy == MultiSkipRow {
			result.warnf("skipping row with multiple numbers %q", cell)
			return "", false
		}
	}

	number := NormalizePhone(candidates[0], opts.Prefix)
	if number == "" {
		result.warnf("skipping row with no digits in phone cell %q", cell)
		return "", false
	}
	return number, true
}

func subsetRows(rows []Row, skipN, firstN int) []Row {
	if skipN > 0 {
		if skipN >= len(rows) {
			return nil
		}
		rows = rows[skipN:]
	}
	if firstN > 0 && firstN < len(rows) {
		rows = rows[:firstN]
	}
	return rows
}

func buildContact(row Row, number string, opts Options) domain.Contact {
	m := opts.Mapping
	contact := domain.Contact{
		ListName:             opts.ListName,
		Username:             opts.Username,
		Number:               number,
		Name:                 row[m.Name],
		Interests:            row[m.Interests],
		Age:                  row[m.Age],
		Location:             row[m.Location],
		Gender:               row[m.Gender],
		Language:             row[m.Language],
		Occupation:           row[m.Occupation],
		PreferredContactTime: row[m.PreferredContactTime],
		Tags:                 row[m.Tags],
	}
	if len(m.Custom) > 0 {
		contact.AdditionalDetails = make(map[string]string, len(m.Custom))
		for key, header := range m.Custom {
			contact.AdditionalDetails[key] = row[header]
		}
	}
	return contact
}
