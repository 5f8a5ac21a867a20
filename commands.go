package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/whatsappmarket/campaign-console/environments"
	"github.com/whatsappmarket/campaign-console/internal/client"
	"github.com/whatsappmarket/campaign-console/internal/domain"
	"github.com/whatsappmarket/campaign-console/internal/importer"
	"github.com/whatsappmarket/campaign-console/internal/session"
	"github.com/whatsappmarket/campaign-console/internal/status"
	"github.com/whatsappmarket/campaign-console/pkg/logger"
)

type console struct {
	api *client.Client
	cfg *environments.Config
}

func (co *console) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "account name")
	password := fs.String("password", "", "account password")
	role := fs.String("role", session.RoleMarketer, "marketer or crowdsource")
	fs.Parse(args)

	message, err := co.api.RegisterUser(ctx, *username, *password, *role)
	if client.IsConflict(err) {
		// Recoverable: the account exists, keep using it.
		fmt.Printf("user %q already exists, continuing with it\n", *username)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println(message)
	return nil
}

func (co *console) createList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-list", flag.ExitOnError)
	name := fs.String("name", "", "list name")
	username := fs.String("username", "", "list owner")
	fs.Parse(args)

	if err := co.api.CreateContactList(ctx, domain.SanitizeName(*name), *username); err != nil {
		return err
	}
	fmt.Printf("list %q created\n", domain.SanitizeName(*name))
	return nil
}

func (co *console) addContact(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-contact", flag.ExitOnError)
	list := fs.String("list", "", "list name")
	username := fs.String("username", "", "list owner")
	number := fs.String("number", "", "phone number")
	name := fs.String("name", "", "contact name")
	interests := fs.String("interests", "", "")
	age := fs.String("age", "", "")
	location := fs.String("location", "", "")
	gender := fs.String("gender", "", "")
	language := fs.String("language", "", "")
	occupation := fs.String("occupation", "", "")
	preferredTime := fs.String("preferred-time", "", "preferred contact time")
	tags := fs.String("tags", "", "")
	details := fs.String("details", "", "extra key=value pairs, comma separated")
	fs.Parse(args)

	contact := domain.Contact{
		ListName:             *list,
		Username:             *username,
		Number:               importer.NormalizePhone(*number, co.cfg.Import.PhonePrefix),
		Name:                 *name,
		Interests:            *interests,
		Age:                  *age,
		Location:             *location,
		Gender:               *gender,
		Language:             *language,
		Occupation:           *occupation,
		PreferredContactTime: *preferredTime,
		Tags:                 *tags,
		AdditionalDetails:    parsePairs(*details),
	}
	if err := co.api.AddContact(ctx, contact); err != nil {
		return err
	}
	fmt.Printf("added %s to %q\n", contact.Number, *list)
	return nil
}

func (co *console) importCSV(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "CSV file to import")
	list := fs.String("list", "", "target list name")
	username := fs.String("username", "", "list owner")
	phoneColumn := fs.String("phone-column", "", "header of the phone column (empty = auto-detect)")
	mapping := fs.String("map", "", "field=header pairs, comma separated (name, interests, age, location, gender, language, occupation, preferred_contact_time, tags)")
	custom := fs.String("custom", "", "detailkey=header pairs captured into additional_details")
	prefix := fs.String("prefix", co.cfg.Import.PhonePrefix, "country-code prefix for normalized numbers")
	multi := fs.String("multi", "ask", "multi-number cell policy: ask, first or skip")
	pattern := fs.String("pattern", "", "regexp whose matches are the number candidates in a cell")
	firstN := fs.Int("first-n", 0, "use only the first N rows (0 = all)")
	skipN := fs.Int("skip-n", 0, "skip the first N rows")
	fs.Parse(args)

	if *file == "" {
		return fmt.Errorf("-file is required")
	}
	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	// A parse error aborts here, before any network call.
	parsed, err := importer.Parse(f)
	if err != nil {
		return err
	}

	opts := importer.Options{
		ListName:    domain.SanitizeName(*list),
		Username:    *username,
		PhoneColumn: *phoneColumn,
		Mapping:     buildMapping(parsePairs(*mapping), parsePairs(*custom)),
		Prefix:      *prefix,
		FirstN:      *firstN,
		SkipN:       *skipN,
	}
	switch *multi {
	case "first":
		opts.MultiPolicy = importer.MultiUseFirst
	case "skip":
		opts.MultiPolicy = importer.MultiSkipRow
	case "ask":
		opts.MultiPolicy = importer.MultiAsk
		opts.MultiDetected = promptMultiPolicy
	default:
		return fmt.Errorf("-multi must be ask, first or skip")
	}
	if *pattern != "" {
		re, err := regexp.Compile(*pattern)
		if err != nil {
			return fmt.Errorf("bad -pattern: %w", err)
		}
		opts.NumberPattern = re
	}

	result, err := importer.New(co.api).Import(ctx, parsed, opts)
	if err != nil {
		return err
	}
	fmt.Printf("imported into %q: %d rows, %d submitted, %d dropped, %d failed\n",
		opts.ListName, result.Total, result.Submitted, result.Dropped, result.Failed)
	for _, warning := range result.Warnings {
		fmt.Println("  warning:", warning)
	}
	return nil
}

func (co *console) createCampaign(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-campaign", flag.ExitOnError)
	name := fs.String("name", "", "campaign name")
	username := fs.String("username", "", "campaign owner")
	list := fs.String("list", "", "contact list the campaign sends to")
	content := fs.String("content", "", "message content")
	media := fs.String("media", "", "optional media file attached as a binary part")
	details := fs.String("details", "", "extra key=value pairs, comma separated")
	fs.Parse(args)

	req := client.CreateCampaignRequest{
		Name:              *name,
		Username:          *username,
		NumberList:        *list,
		Content:           *content,
		AdditionalDetails: parsePairs(*details),
	}
	if *media != "" {
		f, err := os.Open(*media)
		if err != nil {
			return err
		}
		defer f.Close()
		req.Media = f
		req.MediaName = filepath.Base(*media)
	}

	campaignID, err := co.api.CreateCampaign(ctx, req)
	if err != nil {
		return err
	}

	sess := session.New(*username, session.RoleMarketer)
	sess.SelectList(*list)
	sess.SelectCampaign(campaignID)
	fmt.Printf("campaign created: %s\n", campaignID)
	return nil
}

func (co *console) execute(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("execute", flag.ExitOnError)
	id := fs.String("id", "", "campaign id")
	batch := fs.Int("batch", co.cfg.Execute.BatchSize, "batch size")
	offset := fs.Int("offset", co.cfg.Execute.Offset, "offset into the list")
	yes := fs.Bool("yes", false, "skip the re-execution confirmation")
	fs.Parse(args)

	// Execution is not known to be idempotent; if the campaign already has
	// execution data, make the user confirm before sending again.
	if !*yes {
		cs, rawText, err := co.api.GetCampaignStatus(ctx, *id)
		if err == nil {
			summary := status.Summarize(*id, cs, rawText)
			if summary.State != status.StateNotExecuted && summary.State != status.StateUnavailable {
				if !confirm(fmt.Sprintf("campaign %s already has execution data (%d sent, %d pending); execute again?",
					*id, summary.Sent, summary.Pending)) {
					fmt.Println("aborted")
					return nil
				}
			}
		}
	}

	result, err := co.api.ExecuteCampaign(ctx, *id, *batch, *offset)
	if err != nil {
		return err
	}
	fmt.Printf("execution started: %v\n", result)
	return nil
}

func (co *console) status(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	id := fs.String("id", "", "campaign id")
	fs.Parse(args)

	cs, rawText, err := co.api.GetCampaignStatus(ctx, *id)
	if err != nil {
		return err
	}
	printSummary(status.Summarize(*id, cs, rawText))
	return nil
}

func (co *console) watch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	id := fs.String("id", "", "campaign id")
	interval := fs.Duration("interval", co.cfg.Poll.Interval, "poll interval")
	fs.Parse(args)

	done := make(chan struct{})
	var once bool
	poller := status.NewPoller(co.api, *id, *interval, func(summary status.Summary) {
		printSummary(summary)
		if summary.State == status.StateCompleted && !once {
			once = true
			close(done)
		}
	})

	poller.Start(ctx)
	defer poller.Stop()

	select {
	case <-done:
		fmt.Println("campaign completed")
	case <-ctx.Done():
		fmt.Println("stopped watching")
	}
	return nil
}

func (co *console) campaigns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("campaigns", flag.ExitOnError)
	username := fs.String("username", "", "only this owner's campaigns (empty = all)")
	fs.Parse(args)

	var list []domain.Campaign
	var err error
	if *username != "" {
		list, err = co.api.ListCampaigns(ctx, *username)
	} else {
		list, err = co.api.ListAllCampaigns(ctx)
	}
	if err != nil {
		return err
	}

	for _, campaign := range list {
		cs, rawText, err := co.api.GetCampaignStatus(ctx, campaign.CampaignID)
		var summary status.Summary
		if err != nil {
			// Read failures degrade the row, they do not break the view.
			summary = status.Unavailable(campaign.CampaignID, err)
		} else {
			summary = status.Summarize(campaign.CampaignID, cs, rawText)
		}
		fmt.Printf("%-36s  %-20s  %s\n", campaign.CampaignID, campaign.Name, formatSummary(summary))
	}
	return nil
}

func (co *console) smokeTest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("smoke-test", flag.ExitOnError)
	username := fs.String("username", "demo_user", "account to run the flow as")
	password := fs.String("password", "pass123", "account password")
	fs.Parse(args)

	stamp := time.Now().Unix()
	listName := fmt.Sprintf("list_%d", stamp)
	campaignName := fmt.Sprintf("campaign_%d", stamp)

	sess := session.New(*username, session.RoleMarketer)

	logger.Infof("registering user %s", sess.Username)
	if _, err := co.api.RegisterUser(ctx, sess.Username, *password, sess.Role); err != nil {
		if !client.IsConflict(err) {
			return err
		}
		logger.Infof("user exists, continuing")
	}

	logger.Infof("creating list %s", listName)
	if err := co.api.CreateContactList(ctx, listName, sess.Username); err != nil {
		return err
	}
	sess.SelectList(listName)

	for i := 1; i <= 5; i++ {
		contact := domain.Contact{
			ListName:             listName,
			Username:             sess.Username,
			Number:               fmt.Sprintf("1234567890%d", i),
			Name:                 fmt.Sprintf("Test User %d", i),
			Interests:            "Technology",
			Age:                  "25-35",
			Location:             fmt.Sprintf("City %d", i),
			Gender:               "Other",
			Language:             "English",
			Occupation:           "Professional",
			PreferredContactTime: "Evening",
			Tags:                 "test",
		}
		if err := co.api.AddContact(ctx, contact); err != nil {
			return err
		}
		logger.Infof("added number %d to list", i)
	}

	logger.Infof("creating campaign %s", campaignName)
	campaignID, err := co.api.CreateCampaign(ctx, client.CreateCampaignRequest{
		Name:       campaignName,
		Username:   sess.Username,
		NumberList: listName,
		Content:    "Test campaign message",
	})
	if err != nil {
		return err
	}
	sess.SelectCampaign(campaignID)

	logger.Infof("executing campaign %s", campaignID)
	if _, err := co.api.ExecuteCampaign(ctx, campaignID, 10, 0); err != nil {
		return err
	}

	pending, err := co.api.ListPendingCampaigns(ctx)
	if err != nil {
		return err
	}
	logger.Infof("pending campaigns: %d", pending)

	fmt.Printf("smoke test passed: campaign %s with list %s\n", sess.ActiveCampaign, sess.ActiveList)
	return nil
}

func parsePairs(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	pairs := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		pairs[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return pairs
}

func buildMapping(fields, custom map[string]string) importer.FieldMapping {
	return importer.FieldMapping{
		Name:                 fields["name"],
		Interests:            fields["interests"],
		Age:                  fields["age"],
		Location:             fields["location"],
		Gender:               fields["gender"],
		Language:             fields["language"],
		Occupation:           fields["occupation"],
		PreferredContactTime: fields["preferred_contact_time"],
		Tags:                 fields["tags"],
		Custom:               custom,
	}
}

func printSummary(summary status.Summary) {
	fmt.Printf("%s  %s\n", time.Now().Format("15:04:05"), formatSummary(summary))
}

func formatSummary(summary status.Summary) string {
	switch summary.State {
	case status.StateNotExecuted:
		return "not yet executed"
	case status.StateUnavailable:
		return "status unavailable: " + summary.Note
	}
	s := fmt.Sprintf("%s  sent=%d pending=%d failed=%d total=%d",
		summary.State, summary.Sent, summary.Pending, summary.Failed, summary.Total)
	if summary.Inconsistent {
		s += "  [counters inconsistent, possible lost update]"
	}
	return s
}
