// Package discovery finds ONVIF cameras on the local network and drives
// full discovery passes.
//
// # Discovery Process
//
// One pass works as follows:
//  1. Broadcasts a WS-Discovery probe for network video transmitters
//     (UDP multicast to 239.255.255.250:3702)
//  2. Collects ProbeMatch replies until the collection window closes
//  3. Merges matches from any secondary sources (mDNS) and deduplicates
//  4. Concurrently opens an authenticated session per responder, each
//     bounded by a per-device deadline
//  5. Aggregates the successful sessions and atomically publishes the
//     result to the device registry
//
// Per-device failures (bad credentials, no profiles, stalled handshake)
// are logged and drop only that device; the pass itself fails only when
// the probe cannot be sent at all. Passes are serialized: starting a pass
// while one is in flight returns ErrBusy.
//
// # Usage Example
//
//	orch := discovery.New(discovery.NewUDPProber(), session.NewOpener(), reg)
//	records, err := orch.Discover(ctx, discovery.Request{
//	    Credentials: device.Credentials{Username: "admin", Password: "secret"},
//	    Timeout:     5 * time.Second,
//	})
//
// # Network Requirements
//
//   - Requires multicast support on the network interface
//   - Devices must be on the same local network segment
//   - Firewall must allow WS-Discovery (UDP port 3702) and, when the
//     mDNS source is enabled, UDP port 5353
package discovery
