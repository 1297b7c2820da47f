package builder

import (
	"strings"
	"unicode/utf8"
)

// MemoBudget is the maximum memo size in bytes.
const MemoBudget = 28

// Memo is the structured input of a transaction memo.
type Memo struct {
	// Identifiers are included first, in order.
	Identifiers []string
	// Text is appended last and dropped when no room remains.
	Text string
}

// Compose renders the memo within MemoBudget. Parts are joined by a single space and
// truncated on rune boundaries.
func (m Memo) Compose() string {
	parts := make([]string, 0, len(m.Identifiers)+1)
	used := 0

	add := func(s string) bool {
		s = strings.TrimSpace(s)
		if s == "" {
			return true
		}
		room := MemoBudget - used
		if len(parts) > 0 {
			room--
		}
		part := strings.TrimRight(truncate(s, room), " ")
		if part == "" {
			return false
		}
		if len(parts) > 0 {
			used++
		}
		parts = append(parts, part)
		used += len(part)
		return true
	}

	for _, id := range m.Identifiers {
		if !add(id) {
			return strings.Join(parts, " ")
		}
	}
	add(m.Text)
	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
