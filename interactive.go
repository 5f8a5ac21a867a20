package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/whatsappmarket/campaign-console/internal/domain"
	"github.com/whatsappmarket/campaign-console/internal/importer"
	"github.com/whatsappmarket/campaign-console/internal/runner"
)

var stdin = bufio.NewScanner(os.Stdin)

func readLine(prompt string) string {
	fmt.Print(prompt)
	if !stdin.Scan() {
		return ""
	}
	return strings.TrimSpace(stdin.Text())
}

func confirm(question string) bool {
	answer := readLine(question + " [y/N] ")
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}

// promptMultiPolicy is asked once per import batch, the first time a cell
// with several numbers shows up; the answer applies to every row.
func promptMultiPolicy(cell string) importer.MultiPolicy {
	fmt.Printf("a row contains multiple numbers: %q\n", cell)
	for {
		answer := readLine("use [f]irst number or [s]kip such rows? ")
		switch strings.ToLower(answer) {
		case "f", "first":
			return importer.MultiUseFirst
		case "s", "skip":
			return importer.MultiSkipRow
		}
	}
}

// process runs the primary loop with a human operator at the terminal.
func (co *console) process(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	id := fs.String("id", "", "campaign id")
	fs.Parse(args)

	operator := runner.OperatorFunc(func(ctx context.Context, number *domain.CampaignNumber) (domain.Outcome, error) {
		fmt.Printf("\nnumber: %s", number.Number)
		if number.Name != "" {
			fmt.Printf("  (%s)", number.Name)
		}
		fmt.Println()
		if number.Message != "" {
			fmt.Printf("message: %s\n", number.Message)
		}
		if number.ImageURL != "" {
			fmt.Printf("media:   %s\n", number.ImageURL)
		}

		outcome := domain.Outcome{}
		for {
			switch strings.ToLower(readLine("outcome [s]ent / [f]ailed / [q]uit: ")) {
			case "s", "sent":
				outcome.Status = domain.NumberSent
			case "f", "failed":
				outcome.Status = domain.NumberFailed
			case "q", "quit":
				return outcome, fmt.Errorf("stopped by operator")
			default:
				continue
			}
			break
		}

		for outcome.Notes == "" {
			outcome.Notes = readLine("notes (required): ")
		}
		outcome.Feedback = readFeedback()
		return outcome, nil
	})

	stats, err := runner.New(co.api).ProcessCampaign(ctx, *id, operator)
	fmt.Printf("\nsession: %d handled (%d sent, %d failed)\n", stats.Handled, stats.Sent, stats.Failed)
	if stats.Exhausted {
		fmt.Println("campaign fully processed")
	}
	return err
}

// readFeedback collects free-form key=value pairs; they travel to the
// service untouched.
func readFeedback() map[string]any {
	var feedback map[string]any
	for {
		line := readLine("feedback key=value (empty to finish): ")
		if line == "" {
			return feedback
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			fmt.Println("expected key=value")
			continue
		}
		if feedback == nil {
			feedback = make(map[string]any)
		}
		feedback[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
}

// review runs the secondary loop with a human reviewer at the terminal.
func (co *console) review(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("review", flag.ExitOnError)
	id := fs.String("id", "", "campaign id")
	fs.Parse(args)

	reviewer := runner.ReviewerFunc(func(ctx context.Context, number *domain.CampaignNumber) (domain.ReviewDecision, error) {
		fmt.Printf("\nnumber: %s  (status: %s, %d left to review)\n", number.Number, number.Status, number.Remaining)
		if number.Notes != "" {
			fmt.Printf("operator notes: %s\n", number.Notes)
		}
		for key, value := range number.NumberDetails {
			fmt.Printf("  %s: %v\n", key, value)
		}

		for {
			switch strings.ToLower(readLine("verdict [a]pprove / [r]eject / [q]uit: ")) {
			case "a", "approve":
				return domain.ReviewDecision{Approved: true, Notes: "Approved"}, nil
			case "r", "reject":
				notes := readLine("rejection notes: ")
				if notes == "" {
					notes = "Rejected"
				}
				return domain.ReviewDecision{Approved: false, Notes: notes}, nil
			case "q", "quit":
				return domain.ReviewDecision{}, fmt.Errorf("stopped by reviewer")
			}
		}
	})

	stats, err := runner.New(co.api).ReviewCampaign(ctx, *id, reviewer)
	fmt.Printf("\nsession: %d reviewed (%d approved, %d rejected)\n", stats.Handled, stats.Approved, stats.Rejected)
	if stats.Exhausted {
		fmt.Println("nothing left to review")
	}
	return err
}
