package geo

import (
	"net"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mmdb"))
	if err == nil {
		t.Fatal("expected error for missing database")
	}
}

func TestOpenGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.mmdb")
	if err := os.WriteFile(path, []byte("not a maxmind database"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected error for invalid database")
	}
}

func TestLookupLocalSkipsDatabase(t *testing.T) {
	l := &Locator{}
	for _, ip := range []string{"127.0.0.1", "192.168.1.1", "10.0.0.5", "::1", "fe80::1"} {
		loc, err := l.Lookup(net.ParseIP(ip))
		if err != nil {
			t.Fatalf("%s: %v", ip, err)
		}
		if loc.String() != "Local network" {
			t.Errorf("%s: got %q", ip, loc)
		}
	}
	if _, err := l.Lookup(nil); err == nil {
		t.Error("expected error for nil address")
	}
}

func TestLocationString(t *testing.T) {
	tests := []struct {
		loc  Location
		want string
	}{
		{Location{}, "Unknown"},
		{Location{CountryCode: "FI"}, "FI"},
		{Location{CountryCode: "FI", Country: "Finland"}, "Finland"},
		{Location{CountryCode: "FI", Country: "Finland", City: "Helsinki"}, "Helsinki, Finland"},
	}
	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("%+v: got %q, want %q", tt.loc, got, tt.want)
		}
	}
}

func TestCloseNil(t *testing.T) {
	var l *Locator
	if err := l.Close(); err != nil {
		t.Errorf("Close on nil: %v", err)
	}
}
