package criteria

import "strings"

// Kind is the closed set of criterion variants.
type Kind string

const (
	KindRubric   Kind = "rubric"
	KindFlexible Kind = "flexible"
	KindCheckbox Kind = "checkbox"
)

// ParseKind matches s case-insensitively against the known variants.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindRubric, KindFlexible, KindCheckbox:
		return k, true
	}
	return "", false
}

type Level struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Mark        float64 `json:"mark"`
}

type Criterion struct {
	ID           int64   `json:"id"`
	AssignmentID int64   `json:"assignment_id"`
	Name         string  `json:"name"`
	Kind         Kind    `json:"type"`
	MaxMark      float64 `json:"max_mark"`
	Description  string  `json:"description"`
	Position     int     `json:"position"`
	Bonus        bool    `json:"bonus"`
	TAVisible    bool    `json:"ta_visible"`
	PeerVisible  bool    `json:"peer_visible"`
	Levels       []Level `json:"levels,omitempty"` // rubric only
}

type Assignment struct {
	ID              int64  `json:"id"`
	ShortIdentifier string `json:"short_identifier"`
	Description     string `json:"description,omitempty"`
}

// EntryError is one rejected document entry.
type EntryError struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
	Detail string `json:"-"`
}

type Summary struct {
	Count int `json:"count"`
}

type ImportResult struct {
	Created []Criterion  `json:"created"`
	Errors  []EntryError `json:"errors"`
	Summary Summary      `json:"summary"`
}

// ErrorNames lists the rejected entry names in document order.
func (r ImportResult) ErrorNames() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Name)
	}
	return out
}

// ErrorMessage renders the user-facing report: one shared reason followed by
// the failing names, e.g. "invalid format: cr40, cr70". Empty when nothing failed.
func (r ImportResult) ErrorMessage() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return ReasonInvalidFormat + ": " + strings.Join(r.ErrorNames(), ", ")
}
