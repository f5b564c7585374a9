package version

import (
	"strings"
	"testing"
)

func TestVersionStringNonEmpty(t *testing.T) {
	if s := String(); s == "" {
		t.Fatalf("version string is empty")
	}
}

func TestVersionStringCarriesVersion(t *testing.T) {
	if !strings.Contains(String(), Version) {
		t.Fatalf("version string %q does not contain %q", String(), Version)
	}
}
