package billing

import (
	"fmt"

	"github.com/satheeshds/invoicing/models"
)

// Selection tracks which charges of a project are selected for the next
// invoice and the override of each. A charge has an override exactly while
// it is selected.
type Selection struct {
	charges   []models.ChargeRecord
	index     map[string]int
	overrides map[string]models.LineOverride
	version   uint64
}

// NewSelection starts an empty selection over charges, kept in the given order.
func NewSelection(charges []models.ChargeRecord) *Selection {
	s := &Selection{overrides: make(map[string]models.LineOverride)}
	s.load(charges)
	return s
}

func (s *Selection) load(charges []models.ChargeRecord) {
	s.charges = append([]models.ChargeRecord(nil), charges...)
	s.index = make(map[string]int, len(charges))
	for i, c := range s.charges {
		s.index[c.ID] = i
	}
}

// Version changes on every mutation.
func (s *Selection) Version() uint64 {
	return s.version
}

// Charges returns every known charge, selectable or not.
func (s *Selection) Charges() []models.ChargeRecord {
	return append([]models.ChargeRecord(nil), s.charges...)
}

// Select adds a charge with the default override. Selecting an already
// selected charge keeps its override.
func (s *Selection) Select(id string) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCharge, id)
	}
	if !s.charges[i].Selectable() {
		return fmt.Errorf("%w: %s is %s", ErrNotSelectable, id, s.charges[i].Status)
	}
	if _, ok := s.overrides[id]; ok {
		return nil
	}
	s.overrides[id] = models.DefaultOverride()
	s.version++
	return nil
}

// SelectMany selects all ids or, when any of them cannot be selected, none.
func (s *Selection) SelectMany(ids []string) error {
	for _, id := range ids {
		i, ok := s.index[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCharge, id)
		}
		if !s.charges[i].Selectable() {
			return fmt.Errorf("%w: %s is %s", ErrNotSelectable, id, s.charges[i].Status)
		}
	}
	for _, id := range ids {
		if err := s.Select(id); err != nil {
			return err
		}
	}
	return nil
}

// Deselect drops a charge and its override.
func (s *Selection) Deselect(id string) {
	if _, ok := s.overrides[id]; !ok {
		return
	}
	delete(s.overrides, id)
	s.version++
}

// SelectAll selects every unbilled charge that has no override yet and
// returns how many were added. Existing overrides are left untouched.
func (s *Selection) SelectAll() int {
	added := 0
	for _, c := range s.charges {
		if !c.Selectable() {
			continue
		}
		if _, ok := s.overrides[c.ID]; ok {
			continue
		}
		s.overrides[c.ID] = models.DefaultOverride()
		added++
	}
	if added > 0 {
		s.version++
	}
	return added
}

// Clear deselects everything.
func (s *Selection) Clear() {
	if len(s.overrides) == 0 {
		return
	}
	s.overrides = make(map[string]models.LineOverride)
	s.version++
}

// SetOverride replaces the remark and tax type of a selected charge.
func (s *Selection) SetOverride(id string, o models.LineOverride) error {
	if _, ok := s.overrides[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotSelected, id)
	}
	if !ValidTaxType(o.TaxType) {
		return fmt.Errorf("%w: %q", ErrInvalidTaxType, o.TaxType)
	}
	s.overrides[id] = o
	s.version++
	return nil
}

// Override returns the override of a selected charge.
func (s *Selection) Override(id string) (models.LineOverride, bool) {
	o, ok := s.overrides[id]
	return o, ok
}

// Overrides returns a copy of the override map.
func (s *Selection) Overrides() map[string]models.LineOverride {
	out := make(map[string]models.LineOverride, len(s.overrides))
	for k, v := range s.overrides {
		out[k] = v
	}
	return out
}

// Selected returns the selected charges in source order.
func (s *Selection) Selected() []models.ChargeRecord {
	out := make([]models.ChargeRecord, 0, len(s.overrides))
	for _, c := range s.charges {
		if _, ok := s.overrides[c.ID]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Reload swaps in a fresh charge list. Overrides are rekeyed through m
// (virtual id -> persisted id) and dropped for charges that are gone or no
// longer unbilled.
func (s *Selection) Reload(charges []models.ChargeRecord, m Mapping) {
	s.load(charges)
	next := make(map[string]models.LineOverride, len(s.overrides))
	for id, o := range s.overrides {
		id = m.Resolve(id)
		i, ok := s.index[id]
		if !ok || !s.charges[i].Selectable() {
			continue
		}
		next[id] = o
	}
	s.overrides = next
	s.version++
}

// Rekey rewrites promoted virtual charges to their persisted ids in place.
func (s *Selection) Rekey(m Mapping) {
	if len(m) == 0 {
		return
	}
	charges := make([]models.ChargeRecord, 0, len(s.charges))
	seen := make(map[string]bool, len(s.charges))
	for _, c := range s.charges {
		if to, ok := m[c.ID]; ok {
			c.ID = to
			c.IsVirtual = false
		}
		// A virtual charge may resolve to a record already listed.
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		charges = append(charges, c)
	}
	s.Reload(charges, m)
}

// MarkBilled flags the given charges as billed and deselects them.
func (s *Selection) MarkBilled(ids []string) {
	for _, id := range ids {
		if i, ok := s.index[id]; ok {
			s.charges[i].Status = models.ChargeBilled
		}
		delete(s.overrides, id)
	}
	s.version++
}
