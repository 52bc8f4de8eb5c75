package billing

import (
	"errors"
	"testing"

	"github.com/satheeshds/invoicing/models"
)

func newTestSelection() *Selection {
	billed := charge("c3", 30000, "PHP")
	billed.Status = models.ChargeBilled
	return NewSelection([]models.ChargeRecord{
		charge("c1", 10000, "PHP"),
		charge("c2", 20000, "PHP"),
		billed,
	})
}

func TestSelectionDeselectDropsOverride(t *testing.T) {
	s := newTestSelection()
	if err := s.SelectMany([]string{"c1", "c2"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetOverride("c2", models.LineOverride{Remarks: "rush", TaxType: models.TaxVAT}); err != nil {
		t.Fatal(err)
	}
	s.Deselect("c2")

	if _, ok := s.Override("c2"); ok {
		t.Error("override of deselected charge still present")
	}
	inv := ComputeDraft(DraftInput{
		Charges:     s.Selected(),
		Overrides:   s.Overrides(),
		Currency:    "PHP",
		InvoiceDate: models.NewDate(testNow),
	})
	if inv.TotalAmount != 10000 {
		t.Errorf("total = %s, want 100.00", inv.TotalAmount)
	}

	// Selecting again starts from the default override.
	if err := s.Select("c2"); err != nil {
		t.Fatal(err)
	}
	if o, _ := s.Override("c2"); o != models.DefaultOverride() {
		t.Errorf("override = %+v, want default", o)
	}
}

func TestSelectionSelectAllIdempotent(t *testing.T) {
	s := newTestSelection()
	if err := s.Select("c1"); err != nil {
		t.Fatal(err)
	}
	custom := models.LineOverride{Remarks: "keep me", TaxType: models.TaxVAT}
	if err := s.SetOverride("c1", custom); err != nil {
		t.Fatal(err)
	}

	if n := s.SelectAll(); n != 1 {
		t.Errorf("first SelectAll added %d, want 1", n)
	}
	v := s.Version()
	if n := s.SelectAll(); n != 0 {
		t.Errorf("second SelectAll added %d, want 0", n)
	}
	if s.Version() != v {
		t.Error("no-op SelectAll changed the version")
	}
	if o, _ := s.Override("c1"); o != custom {
		t.Errorf("override = %+v, want %+v", o, custom)
	}
	if got := len(s.Selected()); got != 2 {
		t.Errorf("selected %d charges, want 2 (billed charge excluded)", got)
	}
}

func TestSelectionRejects(t *testing.T) {
	s := newTestSelection()

	if err := s.Select("c3"); !errors.Is(err, ErrNotSelectable) {
		t.Errorf("select billed: err = %v, want ErrNotSelectable", err)
	}
	if err := s.Select("nope"); !errors.Is(err, ErrUnknownCharge) {
		t.Errorf("select unknown: err = %v, want ErrUnknownCharge", err)
	}
	if err := s.SelectMany([]string{"c1", "c3"}); !errors.Is(err, ErrNotSelectable) {
		t.Errorf("select many: err = %v, want ErrNotSelectable", err)
	}
	if len(s.Selected()) != 0 {
		t.Error("partial SelectMany left charges selected")
	}
	if err := s.SetOverride("c1", models.DefaultOverride()); !errors.Is(err, ErrNotSelected) {
		t.Errorf("override unselected: err = %v, want ErrNotSelected", err)
	}
	if err := s.Select("c1"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetOverride("c1", models.LineOverride{TaxType: "ZERO"}); !errors.Is(err, ErrInvalidTaxType) {
		t.Errorf("bad tax type: err = %v, want ErrInvalidTaxType", err)
	}
}

func TestSelectionSelectedKeepsSourceOrder(t *testing.T) {
	s := newTestSelection()
	if err := s.SelectMany([]string{"c2", "c1"}); err != nil {
		t.Fatal(err)
	}
	got := s.Selected()
	if len(got) != 2 || got[0].ID != "c1" || got[1].ID != "c2" {
		t.Errorf("selected = %v, want [c1 c2]", chargeIDs(got))
	}
}

func TestSelectionRekey(t *testing.T) {
	v := charge(VirtualID("q1"), 5000, "PHP")
	v.IsVirtual = true
	v.SourceQuotationItemID = strPtr("q1")
	s := NewSelection([]models.ChargeRecord{charge("c1", 100, "PHP"), v})
	s.SelectAll()
	o := models.LineOverride{Remarks: "from quote", TaxType: models.TaxVAT}
	if err := s.SetOverride(v.ID, o); err != nil {
		t.Fatal(err)
	}

	s.Rekey(Mapping{v.ID: "bi-9"})

	if _, ok := s.Override(v.ID); ok {
		t.Error("virtual id still selected after rekey")
	}
	if got, ok := s.Override("bi-9"); !ok || got != o {
		t.Errorf("override of persisted id = %+v %v, want %+v", got, ok, o)
	}
	for _, c := range s.Charges() {
		if c.ID == "bi-9" && c.IsVirtual {
			t.Error("rekeyed charge still virtual")
		}
	}
}

func TestSelectionReloadDropsBilled(t *testing.T) {
	s := newTestSelection()
	s.SelectAll()

	fresh := []models.ChargeRecord{charge("c1", 10000, "PHP"), charge("c2", 20000, "PHP")}
	fresh[1].Status = models.ChargeBilled
	s.Reload(fresh, nil)

	got := s.Selected()
	if len(got) != 1 || got[0].ID != "c1" {
		t.Errorf("selected = %v, want [c1]", chargeIDs(got))
	}
	if _, ok := s.Override("c2"); ok {
		t.Error("override kept for billed charge")
	}
}

func TestSelectionMarkBilled(t *testing.T) {
	s := newTestSelection()
	s.SelectAll()
	s.MarkBilled([]string{"c1", "c2"})
	if len(s.Selected()) != 0 {
		t.Error("billed charges still selected")
	}
	if err := s.Select("c1"); !errors.Is(err, ErrNotSelectable) {
		t.Errorf("select billed: err = %v, want ErrNotSelectable", err)
	}
}
