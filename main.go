package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/whatsappmarket/campaign-console/environments"
	"github.com/whatsappmarket/campaign-console/internal/client"
	"github.com/whatsappmarket/campaign-console/pkg/logger"
	validatorpkg "github.com/whatsappmarket/campaign-console/pkg/validator"
)

const usageText = `campaign-console: drive the hosted WhatsApp campaign service

Usage: campaign-console <command> [flags]

Commands:
  register         register an account (conflict with an existing one is fine)
  create-list      create a named contact list
  add-contact      add a single contact to a list
  import           import a CSV file into a list
  create-campaign  create a campaign from a list and message content
  execute          enqueue a campaign's numbers for sending
  process          interactively work through a campaign's pending numbers
  review           interactively review processed numbers
  status           show a campaign's counters once
  watch            poll a campaign's counters until completed or interrupted
  campaigns        list campaigns with their live status
  smoke-test       run the scripted end-to-end flow against the service

Run 'campaign-console <command> -h' for the command's flags.`

func main() {
	logger.Init()
	cfg := environments.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usageText)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(cfg.API)
	co := &console{api: api, cfg: cfg}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "register":
		err = co.register(ctx, args)
	case "create-list":
		err = co.createList(ctx, args)
	case "add-contact":
		err = co.addContact(ctx, args)
	case "import":
		err = co.importCSV(ctx, args)
	case "create-campaign":
		err = co.createCampaign(ctx, args)
	case "execute":
		err = co.execute(ctx, args)
	case "process":
		err = co.process(ctx, args)
	case "review":
		err = co.review(ctx, args)
	case "status":
		err = co.status(ctx, args)
	case "watch":
		err = co.watch(ctx, args)
	case "campaigns":
		err = co.campaigns(ctx, args)
	case "smoke-test":
		err = co.smokeTest(ctx, args)
	case "help", "-h", "--help":
		fmt.Println(usageText)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", command, usageText)
		os.Exit(2)
	}

	if err != nil {
		exitWithError(err)
	}
}

func exitWithError(err error) {
	var ve *validatorpkg.ValidationError
	var nf *client.NotFoundError
	var te *client.TransportError

	switch {
	case errors.As(err, &ve):
		fmt.Fprintf(os.Stderr, "invalid input: %v\n", ve)
	case errors.As(err, &nf):
		fmt.Fprintf(os.Stderr, "%v\ncheck the campaign id / number and try again\n", nf)
	case errors.As(err, &te):
		if te.Timeout() {
			fmt.Fprintf(os.Stderr, "%v\nthe service did not answer in time; re-run when ready (nothing is retried automatically)\n", te)
		} else {
			fmt.Fprintf(os.Stderr, "%v\n", te)
		}
	default:
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
	os.Exit(1)
}
