package simulator

import (
	"sync"
	"time"

	"github.com/whatsappmarket/campaign-console/internal/domain"
)

// store is the simulator's whole world: users, contact lists, campaigns and
// their per-number state, all in memory. The real service owns this data; the
// simulator only needs to mimic its observable behavior, so nothing here
// survives a restart.
type store struct {
	mu        sync.Mutex
	users     map[string]userRecord
	lists     map[listKey][]domain.Contact
	campaigns map[string]*campaignState
}

type userRecord struct {
	Password string
	Role     string
}

// listKey scopes a list to its owner: list names are only unique per user.
type listKey struct {
	Owner string
	Name  string
}

type campaignState struct {
	ID         string
	Name       string
	Owner      string
	Content    string
	NumberList string
	MediaName  string
	CreatedAt  time.Time

	Executed bool
	Numbers  []*numberState
}

type numberState struct {
	Number  string
	Name    string
	Details map[string]any

	Status   domain.NumberStatus
	Notes    string
	Feedback map[string]any
	SentAt   *time.Time

	// HandedOut marks a number already returned by next-number in some
	// session; the live service hands each pending number out exactly once.
	HandedOut bool

	Reviewed    bool
	Approved    bool
	ReviewNotes string
}

func newStore() *store {
	return &store{
		users:     make(map[string]userRecord),
		lists:     make(map[listKey][]domain.Contact),
		campaigns: make(map[string]*campaignState),
	}
}

func (c *campaignState) pendingCount() int {
	n := 0
	for _, num := range c.Numbers {
		if num.Status == domain.NumberPending {
			n++
		}
	}
	return n
}

func (c *campaignState) counts() (sent, pending, failed int) {
	for _, num := range c.Numbers {
		switch num.Status {
		case domain.NumberSent:
			sent++
		case domain.NumberFailed:
			failed++
		default:
			pending++
		}
	}
	return
}

func (c *campaignState) findNumber(number string) *numberState {
	for _, num := range c.Numbers {
		if num.Number == number {
			return num
		}
	}
	return nil
}

// unreviewedCount counts processed numbers still awaiting a review verdict.
func (c *campaignState) unreviewedCount() int {
	n := 0
	for _, num := range c.Numbers {
		if num.Status != domain.NumberPending && !num.Reviewed {
			n++
		}
	}
	return n
}
