// Package server exposes the irrigation box over HTTP while the daemon
// runs: a JSON status endpoint, a websocket event stream, Prometheus
// metrics and a development-only simulated-fault endpoint. The service is
// announced over mDNS so the box can be found on the local network without
// configuration.
//
// The server only reads controller state through point-in-time snapshots;
// it never drives the control loop.
package server
