// Package discovery finds irrigation boxes on the local network. Boxes
// announce their status API over mDNS as an _http._tcp service with a
// path=/api/status TXT record; the scanner browses for that signature and
// returns the matching endpoints.
package discovery
