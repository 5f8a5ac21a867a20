package session

// Session is the in-memory identity and selection state for one console run:
// who is acting, and which list/campaign the current workflow is bound to.
// It is passed explicitly to whatever needs identity, never read from a
// module-level constant, and holds nothing durable: the remote service owns the account,
// this side only remembers it for the lifetime of the process.
//
// Views read it freely and only the action that established a value writes
// it, so no locking is needed.
type Session struct {
	Username string
	Role     string

	ActiveList     string
	ActiveCampaign string
}

const (
	RoleMarketer    = "marketer"
	RoleCrowdsource = "crowdsource"
)

func New(username, role string) *Session {
	return &Session{Username: username, Role: role}
}

// Authenticated reports whether an identity has been established.
func (s *Session) Authenticated() bool {
	return s != nil && s.Username != ""
}

// SelectList records the list the workflow is operating on.
func (s *Session) SelectList(name string) {
	s.ActiveList = name
}

// SelectCampaign records the campaign the workflow is operating on.
func (s *Session) SelectCampaign(id string) {
	s.ActiveCampaign = id
}
