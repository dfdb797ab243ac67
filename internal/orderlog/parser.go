package orderlog

import (
	"regexp"
	"strings"
)

var (
	// printTimePattern marks the print time header that stamps every following entry
	printTimePattern = regexp.MustCompile(`列印時間:(\d{4}/\d{2}/\d{2} \d{2}:\d{2})`)

	// ancillaryPattern marks specimen and ancillary lines that never continue an order
	ancillaryPattern = regexp.MustCompile(`(?i)\*:EMR|BLOOD GAS|EKG|Consult`)

	// specimenTokenPattern matches a standalone specimen type (blood, urine, stool, venous blood)
	specimenTokenPattern = regexp.MustCompile(`\b(B|U|S|BV)\b`)
)

// header markers of the order sheet column titles and signature lines
var headerMarkers = []string{"類別", "醫師:"}

// SplitLines concatenates the given log blobs in order and splits them into lines.
// Blank blobs are skipped.
func SplitLines(texts ...string) []string {
	var lines []string
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		lines = append(lines, strings.Split(text, "\n")...)
	}
	return lines
}

// Parse segments raw log lines into entries, preserving source order.
//
// Every non-blank line that is not a timestamp marker, a header, an annotation
// or a continuation starts a new entry; nothing else is dropped.
func Parse(lines []string) []*Entry {
	var (
		entries     []*Entry
		currentTime *string
		last        *Entry
	)

	for _, raw := range lines {
		raw = strings.TrimRight(raw, "\r\n")
		stripped := strings.TrimSpace(raw)

		if m := printTimePattern.FindStringSubmatch(raw); m != nil {
			ts := m[1]
			currentTime = &ts
			continue
		}
		if stripped == "" || isHeader(raw) {
			continue
		}

		if fields := strings.Fields(stripped); len(fields) > 0 {
			if action, ok := actionCodes[fields[0]]; ok {
				content := strings.TrimSpace(stripped[len(fields[0]):])
				last = newEntry(currentTime, raw, content, action)
				entries = append(entries, last)
				continue
			}
		}

		if strings.HasPrefix(stripped, "(") || strings.HasPrefix(stripped, "..") {
			if last != nil {
				last.Notes = append(last.Notes, stripped)
			}
			continue
		}

		if last != nil && isContinuation(raw, stripped) {
			last.Details += " " + stripped
			last.Name += " " + stripped
			continue
		}

		last = newEntry(currentTime, raw, stripped, ActionNone)
		entries = append(entries, last)
	}

	return entries
}

func isHeader(raw string) bool {
	for _, marker := range headerMarkers {
		if strings.Contains(raw, marker) {
			return true
		}
	}
	return false
}

// isContinuation reports whether an indented line extends the previous order
// rather than starting a specimen or ancillary entry of its own.
func isContinuation(raw, stripped string) bool {
	if !strings.HasPrefix(raw, " ") && !strings.HasPrefix(raw, "\t") {
		return false
	}
	if ancillaryPattern.MatchString(stripped) {
		return false
	}
	return !specimenTokenPattern.MatchString(stripped)
}
