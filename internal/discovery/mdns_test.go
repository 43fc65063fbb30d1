package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func boxEntry(instance string, txt []string) *zeroconf.ServiceEntry {
	entry := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	entry.HostName = instance + ".local."
	entry.Port = 8089
	entry.Text = txt
	entry.AddrIPv4 = []net.IP{net.IPv4(192, 168, 1, 30)}
	return entry
}

func TestParseServiceEntry(t *testing.T) {
	entry := boxEntry("riego", []string{"path=/api/status", "version=v2.5.0"})

	box := parseServiceEntry(entry)
	if box == nil {
		t.Fatal("expected a box, got nil")
	}
	if box.Instance != "riego" || box.IP != "192.168.1.30" || box.Port != 8089 {
		t.Errorf("box = %+v, want riego at 192.168.1.30:8089", box)
	}
	if box.Version != "v2.5.0" {
		t.Errorf("version = %q, want v2.5.0", box.Version)
	}
	if got := box.StatusURL(); got != "http://192.168.1.30:8089/api/status" {
		t.Errorf("StatusURL() = %q", got)
	}
}

func TestParseServiceEntryIgnoresOtherServices(t *testing.T) {
	tests := []struct {
		name string
		txt  []string
	}{
		{"no txt records", nil},
		{"different path", []string{"path=/"}},
		{"path without value", []string{"path"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if box := parseServiceEntry(boxEntry("printer", tt.txt)); box != nil {
				t.Errorf("parseServiceEntry() = %+v, want nil", box)
			}
		})
	}
}

func TestParseServiceEntryNeedsAddress(t *testing.T) {
	entry := boxEntry("riego", []string{"path=/api/status"})
	entry.AddrIPv4 = nil

	if box := parseServiceEntry(entry); box != nil {
		t.Errorf("parseServiceEntry() = %+v, want nil without an address", box)
	}
}

func TestParseServiceEntryPrefersIPv4(t *testing.T) {
	entry := boxEntry("riego", []string{"path=/api/status"})
	entry.AddrIPv6 = []net.IP{net.ParseIP("fe80::1")}

	box := parseServiceEntry(entry)
	if box == nil || box.IP != "192.168.1.30" {
		t.Errorf("box = %+v, want IPv4 address preferred", box)
	}
}
