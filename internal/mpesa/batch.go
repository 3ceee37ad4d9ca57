package mpesa

import (
	"strings"
)

// Entry is one confirmation plus the metadata lines that followed it.
type Entry struct {
	Message  string
	Metadata []string
}

// IsConfirmation reports whether line looks like an outgoing or incoming
// M-PESA confirmation.
func IsConfirmation(line string) bool {
	if !strings.Contains(line, "Confirmed.") {
		return false
	}
	return strings.Contains(line, "sent to") ||
		strings.Contains(line, "paid to") ||
		strings.Contains(line, "received")
}

// SplitBatch splits pasted text into confirmations. Category and reason lines
// ("c:", "Category:", "r:", "Reason:") attach to the preceding confirmation;
// anything else is ignored.
func SplitBatch(text string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if IsConfirmation(line) {
			entries = append(entries, Entry{Message: line, Metadata: []string{}})
			continue
		}
		if len(entries) > 0 && isMetadata(line) {
			last := &entries[len(entries)-1]
			last.Metadata = append(last.Metadata, line)
		}
	}
	return entries
}

// ParseMetadata reads category and reason from metadata lines. The category
// defaults to "uncategorized".
func ParseMetadata(lines []string) (category, reason string) {
	category = "uncategorized"
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if v, ok := cutAny(line, "Category:", "c:"); ok {
			category = v
		} else if v, ok := cutAny(line, "Reason:", "r:"); ok {
			reason = v
		}
	}
	return category, reason
}

func isMetadata(line string) bool {
	_, cat := cutAny(line, "Category:", "c:")
	_, why := cutAny(line, "Reason:", "r:")
	return cat || why
}

func cutAny(line string, prefixes ...string) (string, bool) {
	for _, p := range prefixes {
		if v, ok := strings.CutPrefix(line, p); ok {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}
