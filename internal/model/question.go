package model

// InputKind defines how a question is answered
type InputKind string

const (
	InputBool   InputKind = "BOOL"   // Yes / No
	InputText   InputKind = "TEXT"   // Free text
	InputSelect InputKind = "SELECT" // One of Options, or free text when AllowOther is set
)

// Question describes one askable field of the case record
type Question struct {
	Field      Field     `json:"field"`
	Stage      Stage     `json:"stage"`
	Kind       InputKind `json:"kind"`
	Prompt     string    `json:"prompt"`
	Options    []string  `json:"options,omitempty"`    // SELECT only
	AllowOther bool      `json:"allowOther,omitempty"` // SELECT: free text replaces the last option
}

// HasOption reports whether v is one of the fixed options.
func (q Question) HasOption(v string) bool {
	for _, o := range q.Options {
		if o == v {
			return true
		}
	}
	return false
}
