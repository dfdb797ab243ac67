package orderlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(s string) *string { return &s }

func TestAggregate_NewThenDCIsDiscontinued(t *testing.T) {
	meds, orders, n := Extract([]string{
		"NEW Augmentin 1.2g IV Q8H",
		"DC Augmentin 1.2g IV Q8H",
	})

	assert.Equal(t, 2, n)
	assert.Empty(t, orders)
	require.Len(t, meds, 1)
	assert.Equal(t, Medication{
		Name:    "Augmentin",
		Status:  StatusDiscontinued,
		Display: "[DC] Augmentin",
		Details: "Augmentin 1.2g IV Q8H",
	}, meds[0])
}

func TestAggregate_DCThenNewIsActive(t *testing.T) {
	meds, _, _ := Extract([]string{
		"列印時間:2024/05/01 08:30",
		"DC Augmentin 1.2g IV Q8H",
		"列印時間:2024/05/02 08:30",
		"NEW Augmentin 1.2g IV Q8H",
	})

	require.Len(t, meds, 1)
	assert.Equal(t, StatusActive, meds[0].Status)
	assert.Equal(t, "[Add] Augmentin", meds[0].Display)
}

func TestAggregate_RouteChangeSharesOneGroup(t *testing.T) {
	meds, _, _ := Extract([]string{
		"列印時間:2024/05/01 08:30",
		"NEW Morphine 2mg IV Q4H",
		"列印時間:2024/05/02 08:30",
		"DC Morphine 2mg IV Q4H",
		"NEW Morphine 10mg PO Q4H",
	})

	require.Len(t, meds, 1)
	assert.Equal(t, Medication{
		Name:    "Morphine",
		Status:  StatusActive,
		Display: "[Add] Morphine",
		Details: "Morphine 10mg PO Q4H",
	}, meds[0])
}

func TestAggregate_LatestTimestampWinsOverListPosition(t *testing.T) {
	entries := []*Entry{
		{Timestamp: ts("2024/05/02 08:00"), Name: "Cefazolin 1g IV", Details: "later", Action: ActionNew, IsMedication: true},
		{Timestamp: ts("2024/05/01 08:00"), Name: "Cefazolin 2g IV", Details: "earlier", Action: ActionDC, IsMedication: true},
	}

	meds, _ := Aggregate(entries)
	require.Len(t, meds, 1)
	assert.Equal(t, StatusActive, meds[0].Status)
	assert.Equal(t, "later", meds[0].Details)
}

func TestAggregate_MissingTimestampIsEarliest(t *testing.T) {
	entries := []*Entry{
		{Timestamp: ts("2024/05/01 08:00"), Name: "Heparin 5000iu", Action: ActionDCExpired, IsMedication: true},
		{Name: "Heparin 5000iu", Action: ActionNew, IsMedication: true},
	}

	meds, _ := Aggregate(entries)
	require.Len(t, meds, 1)
	assert.Equal(t, StatusDiscontinued, meds[0].Status)
}

func TestAggregate_SortsActiveFirst(t *testing.T) {
	meds, _, _ := Extract([]string{
		"DC Zosyn 4.5g IV Q6H",
		"NEW Vancomycin 1g IV Q12H",
		"DC Amikacin 500mg IV QD",
		"NEW Acetaminophen 500mg PO QID",
	})

	var names []string
	for _, m := range meds {
		names = append(names, m.Display)
	}
	assert.Equal(t, []string{
		"[Add] Acetaminophen",
		"[Add] Vancomycin",
		"[DC] Amikacin",
		"[DC] Zosyn",
	}, names)
}

func TestAggregate_OtherOrdersLastWriteWins(t *testing.T) {
	entries := []*Entry{
		{Name: "Chest PA view", Details: "first"},
		{Name: "ab", Details: "too short"},
		{Name: ".", Details: "dot"},
		{Name: "Abdomen echo", Details: "echo"},
		{Name: "CHEST PA VIEW", Details: "second"},
	}

	_, orders := Aggregate(entries)
	assert.Equal(t, []Order{
		{Name: "Abdomen Echo", Display: "Abdomen Echo", Details: "echo"},
		{Name: "Chest Pa View", Display: "Chest Pa View", Details: "second"},
	}, orders)
}

func TestStatusTransition(t *testing.T) {
	assert.Equal(t, StatusDiscontinued, StatusActive.Transition(ActionDCChange))
	assert.Equal(t, StatusActive, StatusDiscontinued.Transition(ActionNew))
	assert.Equal(t, StatusActive, StatusDiscontinued.Transition(ActionNone))
	assert.Equal(t, StatusDiscontinued, StatusDiscontinued.Transition(ActionDC))
}
