package orderlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_OrderSheet(t *testing.T) {
	lines := []string{
		"列印時間:2024/05/01 08:30",
		"類別  醫囑內容",
		"NEW Augmentin 1.2g IV Q8H",
		"   (pharmacist checked)",
		"DC  Tylenol 500mg PO QID",
		"CBC/DC",
		"   with differential",
		"   B *:EMR",
		"",
		"醫師: Dr. Wang",
	}

	entries := Parse(lines)
	require.Len(t, entries, 4)

	assert.Equal(t, ActionNew, entries[0].Action)
	assert.Equal(t, "Augmentin 1.2g IV Q8H", entries[0].Name)
	assert.Equal(t, []string{"(pharmacist checked)"}, entries[0].Notes)

	assert.Equal(t, ActionDC, entries[1].Action)
	assert.Equal(t, "Tylenol 500mg PO QID", entries[1].Name)
	assert.Equal(t, "Tylenol 500mg PO QID", entries[1].Details)

	assert.Equal(t, ActionNone, entries[2].Action)
	assert.Equal(t, "CBC/DC with differential", entries[2].Name)
	assert.Equal(t, "CBC/DC with differential", entries[2].Details)

	assert.Equal(t, "B *:EMR", entries[3].Name)

	for _, e := range entries {
		require.NotNil(t, e.Timestamp)
		assert.Equal(t, "2024/05/01 08:30", *e.Timestamp)
	}
}

func TestParse_TimestampInheritance(t *testing.T) {
	entries := Parse([]string{
		"NEW Heparin 5000iu SC Q12H",
		"列印時間:2024/05/01 08:30",
		"NEW Cefazolin 1g IV Q8H",
		"列印時間:2024/05/02 09:00",
		"DC Cefazolin 1g IV Q8H",
	})

	require.Len(t, entries, 3)
	assert.Nil(t, entries[0].Timestamp)
	assert.Equal(t, "2024/05/01 08:30", *entries[1].Timestamp)
	assert.Equal(t, "2024/05/02 09:00", *entries[2].Timestamp)
}

func TestParse_IndentedFirstLineStartsEntry(t *testing.T) {
	entries := Parse([]string{"   Vancomycin 1g IV Q12H"})

	require.Len(t, entries, 1)
	assert.Equal(t, "Vancomycin 1g IV Q12H", entries[0].Name)
	assert.Equal(t, ActionNone, entries[0].Action)
}

func TestParse_AnnotationWithoutEntryIsDropped(t *testing.T) {
	entries := Parse([]string{"(stat)", "..verbal order", "NEW Foley care"})

	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Notes)
}

func TestParse_SpecimenLineIsNotContinuation(t *testing.T) {
	entries := Parse([]string{
		"Urine routine",
		"   U",
		"   BLOOD GAS arterial",
		"   EKG 12 leads",
		"   Consult ID",
	})

	require.Len(t, entries, 5)
	assert.Equal(t, "Urine routine", entries[0].Name)
	assert.Equal(t, "U", entries[1].Name)
	assert.Equal(t, "BLOOD GAS arterial", entries[2].Name)
	assert.Equal(t, "EKG 12 leads", entries[3].Name)
	assert.Equal(t, "Consult ID", entries[4].Name)
}

func TestParse_SpecimenAfterCJKIsNotContinuation(t *testing.T) {
	entries := Parse([]string{
		"Blood culture x2",
		"   血液B",
	})

	require.Len(t, entries, 2)
	assert.Equal(t, "Blood culture x2", entries[0].Name)
	assert.Equal(t, "血液B", entries[1].Name)
}

func TestParse_NoLineIsDropped(t *testing.T) {
	lines := []string{
		"Chest PA view",
		"Sputum culture",
		"NEW Ceftriaxone 2g IV QD",
		"CHG Ceftriaxone 1g IV QD",
		"EXTN Ceftriaxone 1g IV QD",
		"Abdomen echo",
	}

	entries := Parse(lines)
	require.Len(t, entries, len(lines))
	assert.Equal(t, "Chest PA view", entries[0].Name)
	assert.Equal(t, "Sputum culture", entries[1].Name)
	assert.Equal(t, ActionChange, entries[3].Action)
	assert.Equal(t, ActionExtend, entries[4].Action)
	assert.Equal(t, "Abdomen echo", entries[5].Name)
}

func TestParse_StripsCarriageReturn(t *testing.T) {
	entries := Parse([]string{"NEW Famotidine 20mg PO BID\r"})

	require.Len(t, entries, 1)
	assert.Equal(t, "Famotidine 20mg PO BID", entries[0].Name)
}

func TestSplitLines_ConcatenatesInOrder(t *testing.T) {
	lines := SplitLines("a\nb", "   ", "c")
	assert.Equal(t, []string{"a", "b", "c"}, lines)
}
