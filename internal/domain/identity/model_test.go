package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestFormatPatientCode(t *testing.T) {
	tests := []struct {
		year, seq int
		want      string
	}{
		{2025, 1, "P-2025-0001"},
		{2025, 42, "P-2025-0042"},
		{2026, 12345, "P-2026-12345"},
	}
	for _, tt := range tests {
		if got := FormatPatientCode(tt.year, tt.seq); got != tt.want {
			t.Errorf("FormatPatientCode(%d, %d) = %s, want %s", tt.year, tt.seq, got, tt.want)
		}
	}
	if PatientCodePrefix(2025) != "P-2025-" {
		t.Errorf("unexpected prefix %s", PatientCodePrefix(2025))
	}
}

func TestAgeOn(t *testing.T) {
	now := time.Date(2025, 3, 1, 23, 59, 0, 0, time.UTC)
	tests := []struct {
		dob  string
		want int
	}{
		{"2025-03-01", 0},
		{"2023-03-01", 2},
		{"2015-03-02", 9},
		{"1985-01-01", 40},
		{"2025-03-02", -1},
	}
	for _, tt := range tests {
		dob, err := ParseDateOfBirth(tt.dob)
		if err != nil {
			t.Fatalf("parse %s: %v", tt.dob, err)
		}
		if got := AgeOn(dob, now); got != tt.want {
			t.Errorf("AgeOn(%s) = %d, want %d", tt.dob, got, tt.want)
		}
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "first.last@hospital.example.org"}
	invalid := []string{"", "plain", "a@b", "a b@c.d", "@b.co"}
	for _, e := range valid {
		if !ValidEmail(e) {
			t.Errorf("expected %q to be valid", e)
		}
	}
	for _, e := range invalid {
		if ValidEmail(e) {
			t.Errorf("expected %q to be invalid", e)
		}
	}
}

func TestPatientPatch_Apply(t *testing.T) {
	addr := "old address"
	p := &Patient{FirstName: "A", LastName: "B", Email: "a@b.co", Address: &addr}
	newAddr := "new address"
	height := 170.5

	(&PatientPatch{LastName: strPtr("C"), Address: &newAddr, Height: &height}).Apply(p)

	if p.FirstName != "A" || p.LastName != "C" || p.Email != "a@b.co" {
		t.Errorf("unexpected names after patch: %+v", p)
	}
	if *p.Address != "new address" || *p.Height != 170.5 {
		t.Errorf("unexpected optional fields after patch: %+v", p)
	}
}

func TestDoctorPatch_ApplyDepartment(t *testing.T) {
	oldDept := uuid.New()
	name := "Cardiology"
	d := &Doctor{FirstName: "A", DepartmentID: &oldDept, DepartmentName: &name, Experience: 3}
	newDept := uuid.New()

	(&DoctorPatch{DepartmentID: &newDept}).Apply(d)

	if *d.DepartmentID != newDept {
		t.Errorf("expected department %s, got %s", newDept, *d.DepartmentID)
	}
	if d.DepartmentName != nil {
		t.Error("expected stale department name to be cleared")
	}
	if d.Experience != 3 {
		t.Errorf("expected experience kept, got %d", d.Experience)
	}
}
