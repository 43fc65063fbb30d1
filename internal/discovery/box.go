package discovery

import (
	"fmt"
	"time"
)

// Box is one irrigation controller found on the network.
type Box struct {
	// Instance is the announced mDNS instance name (e.g. "riego").
	Instance string

	// Hostname is the mDNS hostname.
	Hostname string

	// IP is the address the status API answers on (IPv4 preferred).
	IP string

	// Port is the status API port.
	Port int

	// Version is the daemon version from the TXT record, if announced.
	Version string

	// DiscoveredAt is when the box was seen.
	DiscoveredAt time.Time
}

// String returns a human-readable one-liner for listings.
func (b *Box) String() string {
	if b.Version != "" {
		return fmt.Sprintf("%s (%s) at %s:%d, version %s", b.Instance, b.Hostname, b.IP, b.Port, b.Version)
	}
	return fmt.Sprintf("%s (%s) at %s:%d", b.Instance, b.Hostname, b.IP, b.Port)
}

// BaseURL returns the HTTP base URL of the box.
func (b *Box) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", b.IP, b.Port)
}

// StatusURL returns the status endpoint URL of the box.
func (b *Box) StatusURL() string {
	return b.BaseURL() + statusPath
}
