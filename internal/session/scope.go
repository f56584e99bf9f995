package session

// Scope names where a session is held.
type Scope int

const (
	ScopeNone Scope = iota
	// ScopeTab lives as long as the browser session.
	ScopeTab
	// ScopeDurable survives browser restarts.
	ScopeDurable
)

// ScopeFor maps the login "remember me" choice to a scope.
func ScopeFor(remember bool) Scope {
	if remember {
		return ScopeDurable
	}
	return ScopeTab
}

func (s Scope) String() string {
	switch s {
	case ScopeTab:
		return "tab"
	case ScopeDurable:
		return "durable"
	default:
		return "none"
	}
}

func (s Scope) other() Scope {
	if s == ScopeDurable {
		return ScopeTab
	}
	return ScopeDurable
}
