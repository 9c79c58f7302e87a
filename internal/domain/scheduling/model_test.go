package scheduling

import "testing"

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"10:00", "10:00", true},
		{"09:30:00", "09:30", true},
		{"23:59:59", "23:59", true},
		{"24:00", "", false},
		{"9am", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, err := NormalizeTime(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("NormalizeTime(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	if got, err := NormalizeDate("2025-06-01"); err != nil || got != "2025-06-01" {
		t.Errorf("unexpected %q, %v", got, err)
	}
	for _, bad := range []string{"2025-02-30", "01/06/2025", "2025-6-1"} {
		if _, err := NormalizeDate(bad); err == nil {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range Statuses {
		if !ValidStatus(s) {
			t.Errorf("expected %s to be valid", s)
		}
	}
	if ValidStatus("Approved") || ValidStatus("") {
		t.Error("expected status matching to be exact")
	}
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{"": PolicyPermissive, "permissive": PolicyPermissive, "strict": PolicyStrict} {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParsePolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePolicy("lenient"); err == nil {
		t.Error("expected unknown policy to fail")
	}
}

func TestPolicy_Allows(t *testing.T) {
	if !PolicyPermissive.Allows(StatusCompleted, StatusPending) {
		t.Error("expected permissive policy to allow any change")
	}
	if PolicyStrict.Allows(StatusCompleted, StatusCancelled) {
		t.Error("expected completed to be terminal under strict policy")
	}
	if !PolicyStrict.Allows(StatusPending, StatusApproved) {
		t.Error("expected pending -> approved under strict policy")
	}
}
