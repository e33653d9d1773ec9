package session

// Identity is the authenticated user as reported by the backend.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
	Role     string `json:"role,omitempty"`
}

func (i Identity) HasUserID() bool { return i.ID > 0 }

// DisplayName prefers the full name over the login name.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Username
}

// MenuNode is one authorization entry. Nodes without a path are category
// headers.
type MenuNode struct {
	OptionID int64      `json:"option_id"`
	Label    string     `json:"label"`
	Path     string     `json:"path,omitempty"`
	Icon     string     `json:"icon,omitempty"`
	Children []MenuNode `json:"children,omitempty"`
}

func (n MenuNode) Navigable() bool { return n.Path != "" }

func (n MenuNode) HasChildren() bool { return len(n.Children) > 0 }

type LoadingState int

const (
	Initializing LoadingState = iota
	Ready
)

func (s LoadingState) String() string {
	if s == Ready {
		return "ready"
	}
	return "initializing"
}

// Session is a read-only snapshot of the store. Entries are shared with the
// store and must not be modified.
type Session struct {
	Identity *Identity
	Entries  []MenuNode
	State    LoadingState
}

func (s Session) Authenticated() bool { return s.Identity != nil }

// Result is the outcome of a credential operation shown to the user.
type Result struct {
	Success bool
	Message string
}
