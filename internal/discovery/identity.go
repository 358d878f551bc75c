package discovery

import "github.com/camrelay/camrelay/internal/device"

// ParseIdentity derives a device identity from a raw probe match. This
// function is total: it never fails, and an unparseable endpoint URI
// simply becomes the identity's address verbatim. The display name falls
// back to the resolved address when the responder advertised no name.
func ParseIdentity(m ProbeMatch) device.Identity {
	xaddr := m.Primary()
	address := device.AddressFromXAddr(xaddr)

	name := m.Name
	if name == "" {
		name = address
	}

	return device.Identity{
		ID:      m.EndpointRef,
		XAddr:   xaddr,
		Address: address,
		Name:    name,
	}
}
