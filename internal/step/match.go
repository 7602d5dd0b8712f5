package step

import (
	"fmt"
	"regexp"
)

// Kind is how a Match locates its element.
type Kind int

const (
	KindText    Kind = iota // exact visible text
	KindPattern             // regular expression over visible text
	KindRole                // ARIA role plus accessible name
	KindCSS                 // plain CSS selector
)

// Match describes one way of finding an element. The first element found wins.
type Match struct {
	Kind    Kind
	Scope   string // CSS scope for text and pattern matches, empty for the whole page
	Text    string
	Pattern *regexp.Regexp
	Role    string
	CSS     string
}

func ExactText(scope, text string) Match {
	return Match{Kind: KindText, Scope: scope, Text: text}
}

func TextPattern(scope string, re *regexp.Regexp) Match {
	return Match{Kind: KindPattern, Scope: scope, Pattern: re}
}

func Role(role, name string) Match {
	return Match{Kind: KindRole, Role: role, Text: name}
}

func CSS(selector string) Match {
	return Match{Kind: KindCSS, CSS: selector}
}

func (m Match) String() string {
	var s string
	switch m.Kind {
	case KindText:
		s = fmt.Sprintf("text %q", m.Text)
	case KindPattern:
		if m.Pattern == nil {
			return "pattern <nil>"
		}
		s = "pattern /" + m.Pattern.String() + "/"
	case KindRole:
		return fmt.Sprintf("role %s %q", m.Role, m.Text)
	case KindCSS:
		return "css " + m.CSS
	default:
		return fmt.Sprintf("match(%d)", int(m.Kind))
	}
	if m.Scope != "" {
		s += " in " + m.Scope
	}
	return s
}
