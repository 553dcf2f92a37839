package connectors

// static is a connector with a fixed catalog. The built-in sources are
// all static; connectors that probe for an optional dependency provide
// their own implementation.
type static struct {
	slug     string
	label    string
	contexts []string
	actions  []string
}

func (s static) Slug() string       { return s.slug }
func (s static) Label() string      { return s.label }
func (s static) Contexts() []string { return append([]string(nil), s.contexts...) }
func (s static) Actions() []string  { return append([]string(nil), s.actions...) }
func (s static) IsAvailable() bool  { return true }

// Posts covers content lifecycle events.
func Posts() Connector {
	return static{
		slug:     "posts",
		label:    "Posts",
		contexts: []string{"post", "page"},
		actions:  []string{"created", "updated", "deleted", "trashed", "restored"},
	}
}

// Users covers account lifecycle and session events.
func Users() Connector {
	return static{
		slug:     "users",
		label:    "Users",
		contexts: []string{"users", "sessions", "profiles"},
		actions:  []string{"created", "updated", "deleted", "login", "logout", "password-reset"},
	}
}

// Settings covers configuration changes.
func Settings() Connector {
	return static{
		slug:     "settings",
		label:    "Settings",
		contexts: []string{"settings"},
		actions:  []string{"updated"},
	}
}

// Builtin returns the connectors every deployment registers.
func Builtin() []Connector {
	return []Connector{Posts(), Users(), Settings()}
}
