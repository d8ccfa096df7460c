package diff

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/pluginforge/pluginvcs/vcs/state"
)

// textualFields names the fields whose bodies are multi-line text.
// Line statistics are computed for these only; patch operations stay
// field-level regardless.
var textualFields = map[state.ComponentType][]string{
	state.TypeScript:    {"source"},
	state.TypeMigration: {"up_sql", "down_sql"},
	state.TypeWidget:    {"template"},
	state.TypeAdminPage: {"template"},
}

func countLines(t state.ComponentType, before, after state.Element, inBefore, inAfter bool, d *TypeDiff) {
	fields, ok := textualFields[t]
	if !ok {
		return
	}

	for _, f := range fields {
		var oldText, newText string
		if inBefore {
			oldText = stringField(before, f)
		}
		if inAfter {
			newText = stringField(after, f)
		}
		if oldText == newText {
			continue
		}

		added, deleted := lineDelta(oldText, newText)
		d.LinesAdded += added
		d.LinesDeleted += deleted
	}
}

// lineDelta counts inserted and deleted lines between two text bodies
func lineDelta(oldText, newText string) (added, deleted int) {
	matcher := difflib.NewMatcher(splitLines(oldText), splitLines(newText))
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'i':
			added += op.J2 - op.J1
		case 'd':
			deleted += op.I2 - op.I1
		case 'r':
			added += op.J2 - op.J1
			deleted += op.I2 - op.I1
		}
	}
	return added, deleted
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func stringField(e state.Element, field string) string {
	raw, ok := e.Fields[field]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func jsonString(s string) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode key: %w", err)
	}
	return b, nil
}
