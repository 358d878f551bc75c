package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// mdnsServiceType is the mDNS service type cameras advertise under.
	// ONVIF does not mandate mDNS, but many cameras expose their web
	// service this way alongside WS-Discovery.
	mdnsServiceType = "_http._tcp"

	// mdnsServiceDomain is the mDNS domain (typically "local.")
	mdnsServiceDomain = "local."

	// defaultDeviceServicePath is where the ONVIF management service
	// lives on essentially all cameras
	defaultDeviceServicePath = "/onvif/device_service"
)

// MDNSProber is a secondary discovery source that browses mDNS service
// advertisements and surfaces camera-looking services as probe matches.
// It supplements the WS-Discovery probe for devices on networks where
// multicast UDP to 3702 is filtered but mDNS is not.
type MDNSProber struct{}

// NewMDNSProber creates an mDNS discovery source.
func NewMDNSProber() *MDNSProber {
	return &MDNSProber{}
}

// Probe browses for HTTP services until timeout elapses and converts
// camera-looking entries into probe matches. The orchestrator treats this
// source as best-effort: errors here degrade discovery, never fail it.
func (p *MDNSProber) Probe(ctx context.Context, timeout time.Duration) ([]ProbeMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	matches := make([]ProbeMatch, 0)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for entry := range entries {
			if match, ok := parseServiceEntry(entry); ok {
				matches = append(matches, match)
			}
		}
	}()

	if err := resolver.Browse(ctx, mdnsServiceType, mdnsServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for the browse to finish (timeout or cancellation); zeroconf
	// closes the entries channel when the context ends
	<-ctx.Done()
	<-done

	return matches, nil
}

// parseServiceEntry converts a zeroconf service entry to a probe match.
// Returns false for services that do not look like cameras.
func parseServiceEntry(entry *zeroconf.ServiceEntry) (ProbeMatch, bool) {
	if !looksLikeCamera(entry) {
		return ProbeMatch{}, false
	}

	// Prefer IPv4
	var host string
	for _, addr := range entry.AddrIPv4 {
		host = addr.String()
		break
	}
	if host == "" && len(entry.AddrIPv6) > 0 {
		host = entry.AddrIPv6[0].String()
	}
	if host == "" {
		return ProbeMatch{}, false
	}

	port := entry.Port
	if port == 0 {
		port = 80
	}

	return ProbeMatch{
		XAddrs: []string{fmt.Sprintf("http://%s:%d%s", host, port, defaultDeviceServicePath)},
		Name:   entry.Instance,
	}, true
}

// looksLikeCamera filters mDNS entries down to plausible ONVIF devices:
// either the instance name mentions a camera vocabulary word or a TXT
// record points at an ONVIF path.
func looksLikeCamera(entry *zeroconf.ServiceEntry) bool {
	instance := strings.ToLower(entry.Instance)
	for _, hint := range []string{"onvif", "camera", "ipcam", "ipc", "nvt"} {
		if strings.Contains(instance, hint) {
			return true
		}
	}

	for _, txt := range entry.Text {
		if strings.Contains(strings.ToLower(txt), "onvif") {
			return true
		}
	}

	return false
}
