package status

import (
	"context"
	"sync"
	"time"

	"github.com/whatsappmarket/campaign-console/internal/domain"
	"github.com/whatsappmarket/campaign-console/pkg/logger"
)

// statusFetcher is the slice of the remote client the poller needs.
type statusFetcher interface {
	GetCampaignStatus(ctx context.Context, campaignID string) (*domain.CampaignStatus, string, error)
}

// Poller refreshes one campaign's summary on a fixed interval while its view
// is active. Read failures degrade the summary to unavailable; they never
// stop the loop; only Stop or context cancellation does. All reads here are
// idempotent, so in-flight requests are not cancelled on Stop, just
// abandoned.
type Poller struct {
	api        statusFetcher
	campaignID string
	interval   time.Duration
	onUpdate   func(Summary)

	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
	mu       sync.RWMutex

	lastSummary  Summary
	lastPolledAt time.Time
	polls        int64
}

// NewPoller builds a poller. onUpdate is invoked after every poll, including
// failed ones, with the freshest summary; it may be nil.
func NewPoller(api statusFetcher, campaignID string, interval time.Duration, onUpdate func(Summary)) *Poller {
	return &Poller{
		api:        api,
		campaignID: campaignID,
		interval:   interval,
		onUpdate:   onUpdate,
	}
}

func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		logger.Warnf("Poller for campaign %s is already running", p.campaignID)
		return
	}
	p.running = true
	p.stopChan = make(chan struct{})
	p.doneChan = make(chan struct{})
	p.mu.Unlock()

	logger.Infof("Polling campaign %s every %v", p.campaignID, p.interval)

	go p.run(ctx)
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.doneChan)
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.poll(ctx)

		case <-p.stopChan:
			return

		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	cs, rawText, err := p.api.GetCampaignStatus(ctx, p.campaignID)

	var summary Summary
	if err != nil {
		logger.Warnf("campaign %s: status poll failed: %v", p.campaignID, err)
		summary = Unavailable(p.campaignID, err)
	} else {
		summary = Summarize(p.campaignID, cs, rawText)
	}

	p.mu.Lock()
	p.lastSummary = summary
	p.lastPolledAt = time.Now()
	p.polls++
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(summary)
	}
}

// Stop tears the poller down and waits for the loop to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	stopChan := p.stopChan
	doneChan := p.doneChan
	p.mu.Unlock()

	close(stopChan)
	<-doneChan

	logger.Infof("Stopped polling campaign %s", p.campaignID)
}

func (p *Poller) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// Last returns the freshest summary and when it was taken. The zero time
// means no poll has completed yet.
func (p *Poller) Last() (Summary, time.Time) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSummary, p.lastPolledAt
}

// Polls returns how many polls have run.
func (p *Poller) Polls() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.polls
}
