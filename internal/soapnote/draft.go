package soapnote

import (
	"fmt"
	"strings"
)

// NewProblemBase is the text a newly created problem starts from
const NewProblemBase = "New Problem: \n"

const (
	discontinuedMarker = "[DC]"
	reasonBlank        = "____________"
)

// Item is a staged order as shown in a draft
type Item struct {
	Display string `json:"display"`
	Details string `json:"details"`
}

// Draft is the prefilled update text for a commit and the raw details of
// every item it mentions.
type Draft struct {
	Updates    string   `json:"updates"`
	References []string `json:"references"`
}

// DraftUpdates builds the editable update text from staged items, one tagged
// block per non-empty section in merge order.
func DraftUpdates(staged map[Section][]Item) Draft {
	var (
		lines []string
		refs  []string
	)
	for _, s := range Sections {
		items := staged[s]
		if len(items) == 0 {
			continue
		}
		lines = append(lines, s.Tag())
		for _, it := range items {
			lines = append(lines, draftLine(s, it.Display))
			refs = append(refs, fmt.Sprintf("%s: %s", it.Display, it.Details))
		}
		lines = append(lines, "")
	}

	return Draft{
		Updates:    strings.TrimSpace(strings.Join(lines, "\n")),
		References: refs,
	}
}

func draftLine(s Section, display string) string {
	switch s {
	case SectionCurrentManagement, SectionPastTreatment:
		if strings.Contains(display, discontinuedMarker) {
			return fmt.Sprintf("- %s due to %s", display, reasonBlank)
		}
		return fmt.Sprintf("- %s for %s", display, reasonBlank)
	case SectionConsult:
		return "- F/U " + display
	default:
		return "- " + display
	}
}
