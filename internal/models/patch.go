package models

import "time"

// ItemPatch is a partial update to a ContentItem. Nil fields are left
// untouched. It is applied identically by the stores (durable copy) and by
// the list state (optimistic local copy) so the two stay in agreement.
type ItemPatch struct {
	DisplayName     *string
	Locator         *string
	ProcessingState *ProcessingState
	Anonymize       *bool
	ErrorDetail     *string
}

// IsZero reports whether the patch changes nothing.
func (p ItemPatch) IsZero() bool {
	return p.DisplayName == nil && p.Locator == nil &&
		p.ProcessingState == nil && p.Anonymize == nil && p.ErrorDetail == nil
}

// Apply merges the patch into item, refreshing UpdatedAt to now.
//
// ErrorDetail handling follows the lifecycle invariant: a transition to any
// state other than StateError clears the detail, and an explicit ErrorDetail
// is kept only while the resulting state is StateError.
func (p ItemPatch) Apply(item *ContentItem, now time.Time) {
	if p.DisplayName != nil {
		item.DisplayName = *p.DisplayName
	}
	if p.Locator != nil {
		item.Locator = *p.Locator
	}
	if p.ProcessingState != nil {
		item.ProcessingState = *p.ProcessingState
		if *p.ProcessingState != StateError {
			item.ErrorDetail = ""
		}
	}
	if p.ErrorDetail != nil && item.ProcessingState == StateError {
		item.ErrorDetail = *p.ErrorDetail
	}
	if p.Anonymize != nil {
		item.Anonymize = *p.Anonymize
	}
	item.UpdatedAt = now
}

// Helpers for building patches without local pointer boilerplate.

func String(s string) *string                  { return &s }
func Bool(b bool) *bool                        { return &b }
func State(s ProcessingState) *ProcessingState { return &s }
