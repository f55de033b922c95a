package presence

import "strings"

// Status is the presence shown to the remote audience. The zero value is
// the absent status: the target is not running and nothing is shown.
// Statuses are compared with ==.
type Status struct {
	text    string
	present bool
}

// Absent returns the status published when presence is cleared.
func Absent() Status {
	return Status{}
}

// NewStatus returns a present status with the given text.
func NewStatus(text string) Status {
	return Status{text: text, present: true}
}

// Text returns the status text, or "" for the absent status.
func (s Status) Text() string {
	return s.text
}

// Present reports whether the status carries text to publish.
func (s Status) Present() bool {
	return s.present
}

func (s Status) String() string {
	if !s.present {
		return "<absent>"
	}
	return s.text
}

// Format renders the status text for a running target.
type Format struct {
	Working  string // applied to the document name; may contain one %s
	Browsing string // used when no document is open
}

// DefaultFormat returns the stock status templates.
func DefaultFormat() Format {
	return Format{
		Working:  "Working on %s",
		Browsing: "Browsing projects",
	}
}

// Render computes the status for a running target with the given active
// document. An empty document means none is open.
func (f Format) Render(document string) Status {
	def := DefaultFormat()
	working, browsing := f.Working, f.Browsing
	if working == "" {
		working = def.Working
	}
	if browsing == "" {
		browsing = def.Browsing
	}

	if document == "" {
		return NewStatus(browsing)
	}
	if strings.Count(working, "%s") == 1 {
		return NewStatus(strings.Replace(working, "%s", document, 1))
	}
	return NewStatus(strings.TrimSpace(working) + " " + document)
}
