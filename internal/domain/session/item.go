package session

import (
	"github.com/drfirst/go-soap/internal/orderlog"
	"github.com/drfirst/go-soap/internal/soapnote"
)

// ItemKind tells which pool an item belongs to
type ItemKind string

const (
	KindMedication ItemKind = "medication"
	KindOther      ItemKind = "other"
)

// StagedItem is a pool item assigned to a section but not yet committed.
// Exactly one of Medication and Order is set.
type StagedItem struct {
	Kind       ItemKind             `json:"kind"`
	Medication *orderlog.Medication `json:"medication,omitempty"`
	Order      *orderlog.Order      `json:"order,omitempty"`
}

func medicationItem(m orderlog.Medication) StagedItem {
	return StagedItem{Kind: KindMedication, Medication: &m}
}

func orderItem(o orderlog.Order) StagedItem {
	return StagedItem{Kind: KindOther, Order: &o}
}

// Name is the pool key of the item
func (i StagedItem) Name() string {
	if i.Medication != nil {
		return i.Medication.Name
	}
	if i.Order != nil {
		return i.Order.Name
	}
	return ""
}

// Display is the label shown for the item
func (i StagedItem) Display() string {
	if i.Medication != nil {
		return i.Medication.Display
	}
	if i.Order != nil {
		return i.Order.Display
	}
	return ""
}

// Details is the raw order text behind the item
func (i StagedItem) Details() string {
	if i.Medication != nil {
		return i.Medication.Details
	}
	if i.Order != nil {
		return i.Order.Details
	}
	return ""
}

func (i StagedItem) draftItem() soapnote.Item {
	return soapnote.Item{Display: i.Display(), Details: i.Details()}
}

// cloneStaged copies a staging map, dropping empty sections
func cloneStaged(staged map[soapnote.Section][]StagedItem) map[soapnote.Section][]StagedItem {
	out := make(map[soapnote.Section][]StagedItem, len(staged))
	for s, items := range staged {
		if len(items) == 0 {
			continue
		}
		cp := make([]StagedItem, len(items))
		for i, it := range items {
			cp[i] = it
			if it.Medication != nil {
				m := *it.Medication
				cp[i].Medication = &m
			}
			if it.Order != nil {
				o := *it.Order
				cp[i].Order = &o
			}
		}
		out[s] = cp
	}
	return out
}
