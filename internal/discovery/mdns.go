package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType matches the announce on the server side.
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain.
	ServiceDomain = "local."

	// DefaultScanTimeout bounds a scan when the caller's context has no
	// deadline of its own.
	DefaultScanTimeout = 5 * time.Second

	// statusPath is the TXT record path identifying an irrigation box
	// among generic _http._tcp services.
	statusPath = "/api/status"
)

// Scanner browses mDNS for irrigation boxes.
type Scanner struct {
	// Timeout is the maximum time to wait for answers.
	Timeout time.Duration
}

// NewScanner returns a scanner with the default timeout.
func NewScanner() *Scanner {
	return &Scanner{Timeout: DefaultScanTimeout}
}

// Scan browses the local network and returns every box that answered
// within the timeout.
func (s *Scanner) Scan(ctx context.Context) ([]*Box, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan []*Box, 1)
	go func() {
		var boxes []*Box
		for entry := range entries {
			if box := parseServiceEntry(entry); box != nil {
				boxes = append(boxes, box)
			}
		}
		done <- boxes
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("browse mDNS services: %w", err)
	}

	// Browse closes the entries channel when the context expires.
	return <-done, nil
}

// parseServiceEntry converts a zeroconf entry into a Box, or nil when the
// entry is some other HTTP service.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Box {
	meta := parseTXT(entry.Text)
	if meta["path"] != statusPath {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = 80
	}

	return &Box{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Version:      meta["version"],
		DiscoveredAt: time.Now(),
	}
}

func parseTXT(records []string) map[string]string {
	meta := make(map[string]string, len(records))
	for _, txt := range records {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			meta[parts[0]] = parts[1]
		} else {
			meta[parts[0]] = ""
		}
	}
	return meta
}
