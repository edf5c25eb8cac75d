package semver

import (
	"strings"
	"testing"
)

func TestCheckCompat(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		version    string
		wantErr    bool
	}{
		{"empty constraint accepts any", "", "0.0.1-alpha", false},
		{"caret match", "^1.2.0", "1.4.7", false},
		{"caret major bump rejected", "^1.2.0", "2.0.0", true},
		{"range match", ">=1.0.0 <2.0.0", "1.9.9", false},
		{"below range", ">=1.0.0 <2.0.0", "0.9.0", true},
		{"v prefix tolerated", "^1.0.0", "v1.3.0", false},
		{"invalid constraint", "not-a-range", "1.0.0", true},
		{"invalid version", "^1.0.0", "garbage", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCompat(tt.constraint, tt.version)
			if (err != nil) != tt.wantErr {
				t.Errorf("semver:compat_test - CheckCompat(%q, %q) = %v, wantErr %v",
					tt.constraint, tt.version, err, tt.wantErr)
			}
		})
	}
}

func TestCheckCompat_ReasonNamesBothSides(t *testing.T) {
	err := CheckCompat("^2.0.0", "1.5.0")
	if err == nil {
		t.Fatal("semver:compat_test - expected mismatch error")
	}
	if !strings.Contains(err.Error(), "1.5.0") || !strings.Contains(err.Error(), "^2.0.0") {
		t.Errorf("semver:compat_test - error should carry version and constraint: %v", err)
	}
}

func TestNormalize(t *testing.T) {
	got, err := Normalize("v1.2.0")
	if err != nil {
		t.Fatalf("semver:compat_test - Normalize failed: %v", err)
	}
	if got != "1.2.0" {
		t.Errorf("semver:compat_test - Normalize = %q, want 1.2.0", got)
	}

	if _, err := Normalize("not.a.version.at.all"); err == nil {
		t.Error("semver:compat_test - expected error for invalid version")
	}
}
