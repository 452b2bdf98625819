package advisory

import "strings"

// Field is one "Label: value" line of a response.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Analysis is a parsed advisory response.
type Analysis struct {
	Raw    string  `json:"raw"`
	Fields []Field `json:"fields"`
}

// ParseAnalysis keeps every line containing a colon, split at the first one.
// Other lines are dropped; Raw keeps the full text.
func ParseAnalysis(text string) Analysis {
	a := Analysis{Raw: text, Fields: []Field{}}
	for _, line := range strings.Split(text, "\n") {
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		a.Fields = append(a.Fields, Field{
			Label: strings.TrimSpace(label),
			Value: strings.TrimSpace(value),
		})
	}
	return a
}

// Get returns the value of the first field whose label matches, ignoring
// case.
func (a Analysis) Get(label string) string {
	for _, f := range a.Fields {
		if strings.EqualFold(f.Label, label) {
			return f.Value
		}
	}
	return ""
}

func (a Analysis) Status() string { return a.Get("Status") }
func (a Analysis) Reason() string { return a.Get("Reason") }
func (a Analysis) Action() string { return a.Get("Action") }
