package types

import "fmt"

// Advisory is a non-fatal report. Advisories never abort a run; they are
// collected while compiling and emitted while running.
type Advisory struct {
	// Source names the component or task kind that produced the advisory.
	Source string `json:"source"`
	// Field is the job field the advisory concerns, if any.
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (a Advisory) String() string {
	if a.Field != "" {
		return fmt.Sprintf("%s: %s: %s", a.Source, a.Field, a.Message)
	}
	return fmt.Sprintf("%s: %s", a.Source, a.Message)
}
