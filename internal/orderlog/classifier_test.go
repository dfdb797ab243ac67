package orderlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		wantMed bool
	}{
		{
			name:  "dot prefix is never medication",
			entry: Entry{Name: ".Diet control", Details: ".Diet control 500ml PO"},
		},
		{
			name:  "specimen token wins over route",
			entry: Entry{Name: "Blood culture", Details: "Blood culture B IV"},
		},
		{
			name:  "specimen token right after cjk text",
			entry: Entry{Name: "血液培養", Details: "血液培養B PRN"},
		},
		{
			name:  "specimen with emr marker",
			entry: Entry{Name: "Urine culture", Details: "Urine culture U *:EMR"},
		},
		{
			name:    "frequency and route",
			entry:   Entry{Name: "Ceftriaxone", Details: "Ceftriaxone 2g IV QD"},
			wantMed: true,
		},
		{
			name:    "q-hour frequency",
			entry:   Entry{Name: "Tramadol", Details: "Tramadol q6h"},
			wantMed: true,
		},
		{
			name:    "dose unit only",
			entry:   Entry{Name: "Ketorolac", Details: "Ketorolac 30mg"},
			wantMed: true,
		},
		{
			name:    "signal in notes",
			entry:   Entry{Name: "Heparin flush", Details: "Heparin flush", Notes: []string{"(PRN)"}},
			wantMed: true,
		},
		{
			name:  "imaging order",
			entry: Entry{Name: "Chest PA view", Details: "Chest PA view"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.entry
			got := Classify(&e)
			assert.Same(t, &e, got)
			assert.Equal(t, tt.wantMed, got.IsMedication)
		})
	}
}

func TestClassifyAll_IsTotal(t *testing.T) {
	entries := Parse([]string{
		"NEW Augmentin 1.2g IV Q8H",
		"CBC/DC",
		".hold",
		"Sputum culture S",
	})
	ClassifyAll(entries)

	got := make([]bool, 0, len(entries))
	for _, e := range entries {
		got = append(got, e.IsMedication)
	}
	assert.Equal(t, []bool{true, false, false, false}, got)
}
