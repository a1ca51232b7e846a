package commsutil

import "testing"

func TestBuildErrorSubject(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"key", "Admin/DeleteTask", "playfab.errors.Admin.DeleteTask"},
		{"path", "/Event/WriteEvents", "playfab.errors.Event.WriteEvents"},
		{"wildcards", "Custom/a.b*c>", "playfab.errors.Custom.a_b_c_"},
		{"empty segment", "Admin//X", "playfab.errors.Admin._.X"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildErrorSubject(tt.key)
			if got != tt.want {
				t.Errorf("BuildErrorSubject(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}
