// Package outline turns a pasted plain-text list into candidate goals.
//
// Lines that start with a digit, a bullet (* • - –) or two or more dots are
// sub-items. Any other line is a heading. A heading directly followed by
// sub-items becomes an objective that those sub-items hang under.
package outline

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/arnold/goalgraph-api/internal/models"
)

type Item struct {
	Title    string          `json:"title"`
	GoalType models.GoalType `json:"goalType"`
	// ParentIndex points at another Item in the same result, or is nil.
	ParentIndex *int `json:"parentIndex"`
}

// Parse never fails; empty input yields an empty list.
func Parse(text string, defaultType models.GoalType) []Item {
	var lines []string
	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			lines = append(lines, line)
		}
	}

	items := make([]Item, 0, len(lines))
	var parent *int
	for i, line := range lines {
		if !IsSubItem(line) {
			item := Item{Title: line, GoalType: defaultType}
			parent = nil
			if i+1 < len(lines) && IsSubItem(lines[i+1]) {
				item.GoalType = models.GoalTypeInspirationalObjective
				idx := len(items)
				parent = &idx
			}
			items = append(items, item)
			continue
		}

		title := stripMarker(line)
		if parent == nil {
			idx := len(items)
			items = append(items, Item{Title: title, GoalType: defaultType})
			parent = &idx
			continue
		}
		p := *parent
		items = append(items, Item{Title: title, GoalType: defaultType, ParentIndex: &p})
	}
	return items
}

func IsSubItem(line string) bool {
	r, _ := utf8.DecodeRuneInString(line)
	switch {
	case unicode.IsDigit(r):
		return true
	case r == '*' || r == '•' || r == '-' || r == '–':
		return true
	case strings.HasPrefix(line, ".."):
		return true
	}
	return false
}

// stripMarker removes list numbering and bullets: "1. x", "2) x", "- x", ".. x".
func stripMarker(line string) string {
	rest := line
	if digitsOff := strings.TrimLeftFunc(line, unicode.IsDigit); digitsOff != line {
		if strings.HasPrefix(digitsOff, ".") || strings.HasPrefix(digitsOff, ")") {
			rest = digitsOff[1:]
		}
	}
	rest = strings.TrimLeft(rest, "*•-–.")
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return line
	}
	return rest
}
