package orderlog

import "sort"

const (
	displayAdd = "[Add] "
	displayDC  = "[DC] "
)

// Aggregate groups classified entries into the medication and other-order pools.
//
// Medications are grouped by canonical name and take their status and details
// from the chronologically latest entry. Other orders are keyed by their cleaned
// name; a later entry with the same key replaces the earlier one.
func Aggregate(entries []*Entry) ([]Medication, []Order) {
	var keys []string
	groups := make(map[string][]*Entry)

	others := make(map[string]Order)
	for _, e := range entries {
		if e.IsMedication {
			key := NormalizeDrugName(e.Name)
			if _, seen := groups[key]; !seen {
				keys = append(keys, key)
			}
			groups[key] = append(groups[key], e)
			continue
		}

		if name, ok := cleanOrderName(e.Name); ok {
			others[name] = Order{Name: name, Display: name, Details: e.Details}
		}
	}

	meds := make([]Medication, 0, len(keys))
	for _, key := range keys {
		meds = append(meds, resolve(key, groups[key]))
	}
	SortMedications(meds)

	orders := make([]Order, 0, len(others))
	for _, o := range others {
		orders = append(orders, o)
	}
	SortOrders(orders)

	return meds, orders
}

// resolve replays a medication's history in time order. Earliest precedes:
// entries without a timestamp sort first, equal timestamps keep source order.
func resolve(name string, history []*Entry) Medication {
	sorted := make([]*Entry, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return timestampBefore(sorted[i].Timestamp, sorted[j].Timestamp)
	})

	status := StatusActive
	for _, e := range sorted {
		status = status.Transition(e.Action)
	}
	last := sorted[len(sorted)-1]

	display := displayAdd + name
	if status == StatusDiscontinued {
		display = displayDC + name
	}

	return Medication{
		Name:    name,
		Status:  status,
		Display: display,
		Details: last.Details,
	}
}

func timestampBefore(a, b *string) bool {
	switch {
	case a == nil:
		return b != nil
	case b == nil:
		return false
	default:
		return *a < *b
	}
}

// SortMedications orders active medications first, then by name
func SortMedications(meds []Medication) {
	sort.SliceStable(meds, func(i, j int) bool {
		ai, aj := meds[i].Status == StatusActive, meds[j].Status == StatusActive
		if ai != aj {
			return ai
		}
		return meds[i].Name < meds[j].Name
	})
}

// SortOrders orders other orders by name
func SortOrders(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Name < orders[j].Name
	})
}

// Extract runs the full pipeline over raw log lines
func Extract(lines []string) ([]Medication, []Order, int) {
	entries := ClassifyAll(Parse(lines))
	meds, orders := Aggregate(entries)
	return meds, orders, len(entries)
}
