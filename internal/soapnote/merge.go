package soapnote

import (
	"regexp"
	"strings"
	"unicode"
)

// nextTag is the start of the following bracketed section header
var nextTag = regexp.MustCompile(`\n\s*\[`)

// Merge inserts the tagged blocks of updates into base.
//
// Each section found in updates is placed at the end of the matching section
// of base, or appended as a new section when base has no such tag. Sections
// are applied in the fixed order of Sections. Merge is deterministic but not
// idempotent: merging the same updates twice inserts the blocks twice.
func Merge(base, updates string) string {
	if strings.TrimSpace(updates) == "" {
		return base
	}

	blocks := ParseUpdates(updates)
	text := base
	for _, s := range Sections {
		lines := blocks[s]
		if len(lines) == 0 {
			continue
		}
		text = mergeSection(text, s, strings.Join(lines, "\n"))
	}
	return text
}

func mergeSection(text string, s Section, block string) string {
	loc := tagPatterns[s].FindStringIndex(text)
	if loc == nil {
		return trimRight(text) + "\n\n" + s.Tag() + "\n" + block + "\n"
	}

	start := loc[1]
	next := nextTag.FindStringIndex(text[start:])
	if next == nil {
		return trimRight(text) + "\n" + block + "\n"
	}

	at := start + next[0]
	return trimRight(text[:at]) + "\n" + block + "\n\n" + trimLeft(text[at:])
}

// ParseUpdates groups the non-blank lines of updates under the section header
// preceding them. A header is a line equal to a tag once trimmed; lines before
// the first header are dropped. Lines keep their original indentation.
func ParseUpdates(updates string) map[Section][]string {
	blocks := make(map[Section][]string)

	var (
		current Section
		active  bool
	)
	for _, line := range strings.Split(updates, "\n") {
		stripped := strings.TrimSpace(line)
		if s, ok := sectionForHeader(stripped); ok {
			current, active = s, true
			continue
		}
		if active && stripped != "" {
			blocks[current] = append(blocks[current], line)
		}
	}
	return blocks
}

func trimRight(s string) string { return strings.TrimRightFunc(s, unicode.IsSpace) }

func trimLeft(s string) string { return strings.TrimLeftFunc(s, unicode.IsSpace) }
