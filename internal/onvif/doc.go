// Package onvif implements the subset of the ONVIF SOAP protocol needed to
// open a camera session: device information, capability resolution, media
// profile enumeration, and stream/snapshot URI resolution.
//
// Every call carries a fresh WS-UsernameToken security header with a
// password digest (Base64(SHA1(nonce + created + password))) as required by
// the ONVIF Core specification. Response parsing matches XML element local
// names only, so the namespace prefixes individual vendors use do not
// matter.
//
// # Usage Example
//
//	client := onvif.NewClient("http://192.168.1.64:8000/onvif/device_service", user, pass)
//	info, err := client.GetDeviceInformation(ctx)
//	if err != nil {
//	    // *onvif.Fault with IsAuthFault() distinguishes bad credentials
//	}
//	profiles, err := client.GetProfiles(ctx)
//	uri, err := client.GetStreamURI(ctx, profiles[0].Token)
//
// WS-Discovery probing lives in the discovery package; this package only
// speaks to devices whose endpoint is already known.
package onvif
