package device

import (
	"fmt"
	"net/url"
)

// Credentials is the credential pair supplied with a discovery request.
// Credentials are never persisted; they live for the duration of one pass.
type Credentials struct {
	Username string
	Password string
}

// Identity describes one responding device before a session is opened.
// It is derived from a raw probe response and is always constructible:
// the parser that produces it never fails.
type Identity struct {
	// ID is the stable device id when the responder advertised one
	// (WS-Discovery endpoint reference), otherwise empty until session
	// open assigns one. Not guaranteed stable across passes unless the
	// device exposes a hardware identifier.
	ID string

	// XAddr is the primary service endpoint URI
	XAddr string

	// Address is the hostname/IP extracted from XAddr, or the raw XAddr
	// string when URI parsing fails
	Address string

	// Name is the advertised display name, or Address when absent
	Name string
}

// Record is the externally visible result of a successful session open:
// the identity plus the resolved access URLs. Immutable once constructed.
type Record struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	XAddr       string `json:"xaddr"`
	RTSPURL     string `json:"rtspUrl,omitempty"`
	SnapshotURL string `json:"snapshotUrl,omitempty"`

	// Manufacturer and Model come from device information enrichment and
	// may be empty for devices that reject the call.
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
}

// HasStream reports whether a stream-access URL was resolved.
func (r Record) HasStream() bool {
	return r.RTSPURL != ""
}

// HasSnapshot reports whether a snapshot-access URL was resolved.
func (r Record) HasSnapshot() bool {
	return r.SnapshotURL != ""
}

// String returns a human-readable string representation of the record
func (r Record) String() string {
	return fmt.Sprintf("Device %s (%s) at %s", r.ID, r.Name, r.Address)
}

// AddressFromXAddr extracts the hostname from a service endpoint URI.
// On parse failure it returns the raw URI string unchanged, so the result
// is always usable as a display address. This function is total.
func AddressFromXAddr(xaddr string) string {
	u, err := url.Parse(xaddr)
	if err != nil || u.Hostname() == "" {
		return xaddr
	}
	return u.Hostname()
}
