package orderlog

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// columnGap separates the order text from trailing annotation columns
	columnGap = regexp.MustCompile(`\s{2,}`)

	// tubeMarker is the feeding-tube channel suffix, e.g. (管1)
	tubeMarker = regexp.MustCompile(`\(管\d+\)`)

	// dosePattern is a quantity with unit and optional rate suffix, e.g. 500mg, 1.2 g, 5mcg/kg/min
	dosePattern = regexp.MustCompile(`(?i)\b\d+(\.\d+)?\s*(mg|g|gm|mL|ml|mcg|mEq|vial|tab|amp|cap|iu)(/[A-Za-z]+)*\b`)

	// regimenToken is a standalone route, frequency or dosage-form word left after the dose
	regimenToken = regexp.MustCompile(`(?i)\b(Q\d+[HM]|QD|BID|TID|QID|ONCE|PRN|IVF|IV|PO|TOPI|tab|cap|amp|vial)\b`)

	// danglingComma is a comma left behind once the dose after it was removed
	danglingComma = regexp.MustCompile(`,(\s|$)`)

	whitespaceRun = regexp.MustCompile(`\s+`)
)

// NormalizeDrugName reduces a raw medication description to its grouping key.
// Descriptions differing only by dose, route, frequency, tube marker or
// annotation columns share a key.
func NormalizeDrugName(name string) string {
	name = firstColumn(name)
	name = tubeMarker.ReplaceAllString(name, "")
	name = dosePattern.ReplaceAllString(name, "")
	name = regimenToken.ReplaceAllString(name, "")
	name = danglingComma.ReplaceAllString(name, "${1}")
	name = whitespaceRun.ReplaceAllString(name, " ")
	return titleCase(strings.TrimSpace(name))
}

// cleanOrderName is the grouping key of a non-medication order.
// ok is false for names too short to be meaningful.
func cleanOrderName(name string) (string, bool) {
	clean := strings.TrimSpace(firstColumn(name))
	if clean == "" || clean == "." || utf8.RuneCountInString(clean) <= 2 {
		return "", false
	}
	return titleCase(clean), true
}

func firstColumn(s string) string {
	return columnGap.Split(s, 2)[0]
}

// titleCase upper-cases the first letter of every word and lower-cases the rest.
// A Caser keeps state, so one is built per call.
func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}
