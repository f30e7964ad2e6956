package core

import (
	"errors"
	"testing"
)

func TestRecordValidate(t *testing.T) {
	good := ActivityRecord{ID: "1", Date: "2025-08-27", Type: Prune, Quantity: 5, Notes: "ok"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	zero := ActivityRecord{ID: "2", Date: "2025-08-27", Type: Spacer}
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero quantity should be valid, got %v", err)
	}

	cases := []struct {
		rec   ActivityRecord
		field string
	}{
		{ActivityRecord{ID: "", Date: "2025-08-27", Type: Prune}, "id"},
		{ActivityRecord{ID: "  ", Date: "2025-08-27", Type: Prune}, "id"},
		{ActivityRecord{ID: "1", Date: "2025-8-27", Type: Prune}, "date"},
		{ActivityRecord{ID: "1", Date: "2025-02-30", Type: Prune}, "date"},
		{ActivityRecord{ID: "1", Date: "27/08/2025", Type: Prune}, "date"},
		{ActivityRecord{ID: "1", Date: "2025-08-27", Type: "mowing"}, "type"},
		{ActivityRecord{ID: "1", Date: "2025-08-27", Type: Prune, Quantity: -1}, "qty"},
	}
	for i, tc := range cases {
		err := tc.rec.Validate()
		var verr ValidationErrors
		if !errors.As(err, &verr) {
			t.Fatalf("case %d expected ValidationErrors, got %v", i, err)
		}
		if len(verr.FieldErrors[tc.field]) == 0 {
			t.Fatalf("case %d expected error on %q, got %v", i, tc.field, verr.FieldErrors)
		}
	}
}

func TestValidateCollectsAllFields(t *testing.T) {
	err := ActivityRecord{Date: "x", Type: "x", Quantity: -3}.Validate()
	var verr ValidationErrors
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	for _, f := range []string{"id", "date", "type", "qty"} {
		if _, ok := verr.FieldErrors[f]; !ok {
			t.Fatalf("missing field error for %s: %v", f, verr.FieldErrors)
		}
	}
}

func TestParseActivityType(t *testing.T) {
	cases := []struct {
		in   string
		want ActivityType
		ok   bool
	}{
		{"prune", Prune, true},
		{"SPACER", Spacer, true},
		{"poda", Prune, true},
		{"espacador", Spacer, true},
		{" Poda ", Prune, true},
		{"", "", false},
		{"mowing", "", false},
	}
	for _, tc := range cases {
		got, err := ParseActivityType(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
			}
		} else if !errors.Is(err, ErrUnknownType) {
			t.Fatalf("%q expected ErrUnknownType, got %v", tc.in, err)
		}
	}
}

func TestTypeLabels(t *testing.T) {
	if Prune.Label() != "Poda de Árvore" {
		t.Fatalf("prune label: %q", Prune.Label())
	}
	if Spacer.Label() != "Instalação Espaçador" {
		t.Fatalf("spacer label: %q", Spacer.Label())
	}
	if ActivityType("other").Label() != "other" {
		t.Fatalf("unknown types should fall back to their tag")
	}
	if got := KnownTypes(); len(got) != 2 || got[0] != Prune || got[1] != Spacer {
		t.Fatalf("unexpected known types: %v", got)
	}
}

func TestParseCompany(t *testing.T) {
	for _, in := range []string{"EMS", "ems", " Ess "} {
		if _, err := ParseCompany(in); err != nil {
			t.Fatalf("%q expected ok, got %v", in, err)
		}
	}
	if _, err := ParseCompany("XYZ"); !errors.Is(err, ErrUnknownCompany) {
		t.Fatalf("expected ErrUnknownCompany, got %v", err)
	}
}

func TestRolePermissions(t *testing.T) {
	if Operator.CanWrite() {
		t.Fatalf("operator must be read-only")
	}
	if !Manager.CanWrite() {
		t.Fatalf("manager must have full access")
	}
	if r, err := ParseRole("gestor"); err != nil || r != Manager {
		t.Fatalf("gestor should map to manager, got %q %v", r, err)
	}
	if r, err := ParseRole("operador"); err != nil || r != Operator {
		t.Fatalf("operador should map to operator, got %q %v", r, err)
	}
	if _, err := ParseRole("admin"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestActivityRecordNormalize(t *testing.T) {
	got := ActivityRecord{ID: "  r1 ", Date: "2025-08-01", Type: "Poda", Quantity: 1}.Normalize()
	if got.ID != "r1" || got.Type != Prune {
		t.Fatalf("unexpected normalized record: %+v", got)
	}

	odd := ActivityRecord{ID: "r2", Type: "mowing"}.Normalize()
	if odd.Type != "mowing" {
		t.Fatalf("unknown types must pass through, got %q", odd.Type)
	}
}
