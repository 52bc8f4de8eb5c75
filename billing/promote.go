package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/satheeshds/invoicing/models"
)

// VirtualIDPrefix marks locally generated ids of charges materialized from
// quotation items.
const VirtualIDPrefix = "virtual-"

// VirtualID is the local id of the virtual charge for a quotation item. It is
// derived from the item id so reloading the same quotation yields the same ids.
func VirtualID(quotationItemID string) string {
	return VirtualIDPrefix + quotationItemID
}

// ChargeStore is the hosted persistence of charge records.
type ChargeStore interface {
	ListChargeRecords(ctx context.Context, projectID string) ([]models.ChargeRecord, error)
	PromoteCharges(ctx context.Context, projectID string, items []models.NewChargeRecord) ([]models.ChargeRecord, error)
}

// Locker serializes submissions of one project across operators. Obtain
// returns ErrPromotionLocked when someone else holds the key.
type Locker interface {
	Obtain(ctx context.Context, key string) (release func(), err error)
}

// Mapping rewrites virtual charge ids to the ids assigned on promotion.
type Mapping map[string]string

// Resolve maps id, or returns it unchanged when it has no entry.
func (m Mapping) Resolve(id string) string {
	if to, ok := m[id]; ok {
		return to
	}
	return id
}

// Apply returns a copy of charges with promoted ids rewritten.
func (m Mapping) Apply(charges []models.ChargeRecord) []models.ChargeRecord {
	out := make([]models.ChargeRecord, len(charges))
	for i, c := range charges {
		if to, ok := m[c.ID]; ok {
			c.ID = to
			c.IsVirtual = false
		}
		out[i] = c
	}
	return out
}

// MergeCharges lists persisted charges followed by one virtual charge per
// quotation item that has not been promoted yet. An item counts as promoted
// when a persisted charge references it, billed or not.
func MergeCharges(persisted []models.ChargeRecord, items []models.QuotationItem, projectID string, now time.Time) []models.ChargeRecord {
	promoted := make(map[string]bool, len(persisted))
	out := make([]models.ChargeRecord, 0, len(persisted)+len(items))
	for _, c := range persisted {
		c.IsVirtual = false
		if c.SourceQuotationItemID != nil {
			promoted[*c.SourceQuotationItemID] = true
		}
		out = append(out, c)
	}
	for _, it := range items {
		if promoted[it.ID] {
			continue
		}
		qid := it.ID
		out = append(out, models.ChargeRecord{
			ID:                    VirtualID(it.ID),
			ProjectID:             projectID,
			Description:           it.Description,
			Amount:                it.Amount,
			Currency:              it.Currency,
			ServiceType:           it.ServiceType,
			Status:                models.ChargeUnbilled,
			CreatedAt:             now,
			IsVirtual:             true,
			SourceQuotationItemID: &qid,
		})
	}
	return out
}

// Promoter persists the virtual charges of a selection before they can be
// referenced by an invoice.
type Promoter struct {
	Store  ChargeStore
	Locker Locker
}

// Lock takes the project lock shared by promotion and invoice creation. The
// returned release func is never nil.
func (p *Promoter) Lock(ctx context.Context, projectID string) (func(), error) {
	if p.Locker == nil {
		return func() {}, nil
	}
	release, err := p.Locker.Obtain(ctx, "promote:"+projectID)
	if err != nil {
		return nil, &PromotionFailure{ProjectID: projectID, Err: err}
	}
	return release, nil
}

// Promote takes the project lock and promotes selected. See PromoteLocked.
func (p *Promoter) Promote(ctx context.Context, projectID string, selected []models.ChargeRecord) (Mapping, error) {
	release, err := p.Lock(ctx, projectID)
	if err != nil {
		return nil, err
	}
	defer release()
	return p.PromoteLocked(ctx, projectID, selected)
}

// PromoteLocked persists every virtual charge in selected with one batch call
// and returns the mapping from virtual to persisted ids. The caller holds the
// project lock. Real charges are not touched but must still be unbilled. A
// virtual charge whose quotation item already has an unbilled persisted
// record is mapped to that record instead of being persisted twice.
func (p *Promoter) PromoteLocked(ctx context.Context, projectID string, selected []models.ChargeRecord) (Mapping, error) {
	mapping := Mapping{}
	if len(selected) == 0 {
		return mapping, nil
	}

	existing, err := p.Store.ListChargeRecords(ctx, projectID)
	if err != nil {
		return nil, &PromotionFailure{ProjectID: projectID, Err: fmt.Errorf("listing persisted charges: %w", err)}
	}
	byID := make(map[string]models.ChargeRecord, len(existing))
	for _, e := range existing {
		byID[e.ID] = e
	}

	var virtual []models.ChargeRecord
	for _, c := range selected {
		if c.IsVirtual {
			virtual = append(virtual, c)
			continue
		}
		if e, ok := byID[c.ID]; ok && !e.Selectable() {
			return nil, &PromotionFailure{ProjectID: projectID, Err: fmt.Errorf("%w: charge %s is %s", ErrAlreadyBilled, c.ID, e.Status)}
		}
	}
	if len(virtual) == 0 {
		return mapping, nil
	}

	claimed := make(map[string]bool)
	var pending []models.ChargeRecord
	for _, v := range virtual {
		e, ok := findByQuotationItem(existing, v.SourceQuotationItemID, claimed)
		if !ok {
			pending = append(pending, v)
			continue
		}
		if !e.Selectable() {
			return nil, &PromotionFailure{ProjectID: projectID, Err: fmt.Errorf("%w: %s", ErrAlreadyBilled, *v.SourceQuotationItemID)}
		}
		slog.Info("virtual charge already promoted", "project_id", projectID, "virtual_id", v.ID, "charge_id", e.ID)
		mapping[v.ID] = e.ID
		claimed[e.ID] = true
	}
	if len(pending) == 0 {
		return mapping, nil
	}

	items := make([]models.NewChargeRecord, 0, len(pending))
	for _, v := range pending {
		items = append(items, models.NewChargeRecord{
			Description:           v.Description,
			Amount:                v.Amount,
			Currency:              v.Currency,
			ServiceType:           v.ServiceType,
			Status:                models.ChargeUnbilled,
			SourceQuotationItemID: v.SourceQuotationItemID,
		})
	}
	persisted, err := p.Store.PromoteCharges(ctx, projectID, items)
	if err != nil {
		return nil, &PromotionFailure{ProjectID: projectID, Err: err}
	}
	if len(persisted) == 0 {
		return nil, &PromotionFailure{ProjectID: projectID, Err: fmt.Errorf("%w: batch returned no items", ErrMalformedResponse)}
	}
	slog.Info("promoted virtual charges", "project_id", projectID, "count", len(persisted))

	var unmapped []string
	for _, v := range pending {
		id, ok := matchPersisted(v, persisted, claimed)
		if !ok {
			unmapped = append(unmapped, v.ID)
			continue
		}
		mapping[v.ID] = id
		claimed[id] = true
	}
	if len(unmapped) > 0 {
		return mapping, &InconsistentMapping{Unmapped: unmapped, Resolved: mapping}
	}
	return mapping, nil
}

// findByQuotationItem returns an unclaimed record created from the quotation
// item, preferring an unbilled one.
func findByQuotationItem(records []models.ChargeRecord, qid *string, claimed map[string]bool) (models.ChargeRecord, bool) {
	if qid == nil {
		return models.ChargeRecord{}, false
	}
	var billed *models.ChargeRecord
	for i, r := range records {
		if claimed[r.ID] || r.SourceQuotationItemID == nil || *r.SourceQuotationItemID != *qid {
			continue
		}
		if r.Selectable() {
			return r, true
		}
		if billed == nil {
			billed = &records[i]
		}
	}
	if billed != nil {
		return *billed, true
	}
	return models.ChargeRecord{}, false
}

// matchPersisted finds the record created for v: first by quotation item,
// then by equal description and amount. Each record matches at most one
// virtual charge.
func matchPersisted(v models.ChargeRecord, persisted []models.ChargeRecord, claimed map[string]bool) (string, bool) {
	if r, ok := findByQuotationItem(persisted, v.SourceQuotationItemID, claimed); ok {
		return r.ID, true
	}
	for _, r := range persisted {
		if claimed[r.ID] {
			continue
		}
		if r.Description == v.Description && r.Amount == v.Amount {
			return r.ID, true
		}
	}
	return "", false
}
