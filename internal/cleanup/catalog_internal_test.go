package cleanup

import "testing"

func TestRuleMatcher(t *testing.T) {
	tests := []struct {
		rule Rule
		name string
		want bool
	}{
		{"install/*.bin", "Driver2CD1.bin", true},
		{"install/*.bin", "Driver2CD1.bin.bak", false},
		{"install/*.bin", "xbin", false},
		{"install/SLUS_*.61", "SLUS_006.61", true},
		{"install/SLUS_*.61", "SLUS_006.18", false},
		{"DRIVER2/*.idx", "A.idx", true},
		{"DRIVER2/*.idx", "A(idx", false},
	}
	for _, tt := range tests {
		if got := tt.rule.matcher().MatchString(tt.name); got != tt.want {
			t.Errorf("%s vs %q = %v, want %v", tt.rule, tt.name, got, tt.want)
		}
	}
}
