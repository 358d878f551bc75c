package discovery

import (
	"context"
	"encoding/xml"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/camrelay/camrelay/internal/logging"
)

const (
	// MulticastAddr is the WS-Discovery multicast group and port
	MulticastAddr = "239.255.255.250:3702"

	// readBufferSize is large enough for any single ProbeMatch datagram
	readBufferSize = 8192

	// ioMargin bounds how long a probe may run past its collection
	// window for socket teardown
	ioMargin = 500 * time.Millisecond
)

// ProbeMatch is one raw reply to a discovery probe: the responder's
// advertised service endpoints (ordered, first is primary), an optional
// name hint, and the WS-Discovery endpoint reference. A ProbeMatch lives
// only for the duration of one discovery pass.
type ProbeMatch struct {
	// EndpointRef is the responder's stable endpoint reference
	// (typically "urn:uuid:..."), when advertised
	EndpointRef string

	// XAddrs are the advertised service endpoint URIs in responder order
	XAddrs []string

	// Name is the human-readable name hint from the responder's scopes,
	// empty when not advertised
	Name string
}

// Primary returns the primary service endpoint URI, or "" for a match
// with no endpoints.
func (m ProbeMatch) Primary() string {
	if len(m.XAddrs) == 0 {
		return ""
	}
	return m.XAddrs[0]
}

// Prober collects raw probe responses for a bounded duration. An empty
// result is not an error; only failure to send the probe itself is.
type Prober interface {
	Probe(ctx context.Context, timeout time.Duration) ([]ProbeMatch, error)
}

// TransportError is a probe-send failure. It fails the whole discovery
// pass, unlike per-device failures which only exclude one device.
type TransportError struct {
	Err error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("discovery transport failure: %v", e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *TransportError) Unwrap() error {
	return e.Err
}

// UDPProber sends a WS-Discovery probe on the local network and collects
// ProbeMatch replies until the collection window closes.
type UDPProber struct {
	// Addr is the multicast destination (defaults to MulticastAddr)
	Addr string
}

// NewUDPProber creates a prober targeting the standard WS-Discovery group.
func NewUDPProber() *UDPProber {
	return &UDPProber{Addr: MulticastAddr}
}

// Probe broadcasts one NetworkVideoTransmitter probe and accumulates
// replies arriving before timeout elapses. The returned sequence is
// deduplicated by endpoint reference; devices answering on several
// interfaces appear once.
func (p *UDPProber) Probe(ctx context.Context, timeout time.Duration) ([]ProbeMatch, error) {
	addr := p.Addr
	if addr == "" {
		addr = MulticastAddr
	}

	raddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() { _ = conn.Close() }()

	// Cancel the read loop when the caller's context ends early
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	message := probeEnvelope(uuid.NewString())
	if _, err := conn.WriteTo([]byte(message), raddr); err != nil {
		return nil, &TransportError{Err: err}
	}

	deadline := time.Now().Add(timeout)
	if err := conn.SetReadDeadline(deadline.Add(ioMargin)); err != nil {
		return nil, &TransportError{Err: err}
	}

	var matches []ProbeMatch
	seen := make(map[string]bool)
	buf := make([]byte, readBufferSize)

	for time.Now().Before(deadline) {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			// Deadline or context cancellation ends collection; either
			// way the accumulated matches stand
			break
		}

		for _, match := range parseProbeMatches(buf[:n]) {
			key := match.EndpointRef
			if key == "" {
				key = match.Primary()
			}
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			matches = append(matches, match)

			logging.Debug("Probe match received",
				zap.String("from", from.String()),
				zap.String("endpoint", match.EndpointRef),
				zap.String("xaddr", match.Primary()),
			)
		}
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	return matches, nil
}

// probeEnvelope renders the WS-Discovery probe for network video
// transmitters. messageID must be unique per probe; responders echo it in
// RelatesTo.
func probeEnvelope(messageID string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>` +
		`<e:Envelope xmlns:e="http://www.w3.org/2003/05/soap-envelope"` +
		` xmlns:w="http://schemas.xmlsoap.org/ws/2004/08/addressing"` +
		` xmlns:d="http://schemas.xmlsoap.org/ws/2005/04/discovery"` +
		` xmlns:dn="http://www.onvif.org/ver10/network/wsdl">` +
		`<e:Header>` +
		`<w:MessageID>uuid:` + messageID + `</w:MessageID>` +
		`<w:To e:mustUnderstand="true">urn:schemas-xmlsoap-org:ws:2005:04:discovery</w:To>` +
		`<w:Action e:mustUnderstand="true">http://schemas.xmlsoap.org/ws/2005/04/discovery/Probe</w:Action>` +
		`</e:Header>` +
		`<e:Body><d:Probe><d:Types>dn:NetworkVideoTransmitter</d:Types></d:Probe></e:Body>` +
		`</e:Envelope>`
}

type probeMatchEnvelope struct {
	Body struct {
		ProbeMatches struct {
			Match []struct {
				EndpointReference struct {
					Address string `xml:"Address"`
				} `xml:"EndpointReference"`
				Scopes string `xml:"Scopes"`
				XAddrs string `xml:"XAddrs"`
			} `xml:"ProbeMatch"`
		} `xml:"ProbeMatches"`
	} `xml:"Body"`
}

// parseProbeMatches extracts zero or more ProbeMatch entries from one
// response datagram. Malformed datagrams yield nothing; a broken responder
// never fails a pass.
func parseProbeMatches(data []byte) []ProbeMatch {
	var env probeMatchEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return nil
	}

	var matches []ProbeMatch
	for _, m := range env.Body.ProbeMatches.Match {
		xaddrs := strings.Fields(m.XAddrs)
		if len(xaddrs) == 0 {
			continue
		}
		matches = append(matches, ProbeMatch{
			EndpointRef: strings.TrimSpace(m.EndpointReference.Address),
			XAddrs:      xaddrs,
			Name:        nameFromScopes(m.Scopes),
		})
	}
	return matches
}

// nameFromScopes extracts the display name hint from WS-Discovery scopes.
// ONVIF devices advertise it as "onvif://www.onvif.org/name/<escaped name>".
func nameFromScopes(scopes string) string {
	const namePrefix = "onvif://www.onvif.org/name/"

	for _, scope := range strings.Fields(scopes) {
		if !strings.HasPrefix(scope, namePrefix) {
			continue
		}
		raw := scope[len(namePrefix):]
		if name, err := url.PathUnescape(raw); err == nil {
			return name
		}
		return raw
	}
	return ""
}
