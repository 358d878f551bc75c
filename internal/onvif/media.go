package onvif

import (
	"context"
	"fmt"
)

// Profile is one media profile advertised by a device.
type Profile struct {
	Token string `xml:"token,attr"`
	Name  string `xml:"Name"`
}

type profilesEnvelope struct {
	Body struct {
		Response struct {
			Profiles []Profile `xml:"Profiles"`
		} `xml:"GetProfilesResponse"`
	} `xml:"Body"`
}

// GetProfiles enumerates the device's media profiles in device order.
func (c *Client) GetProfiles(ctx context.Context) ([]Profile, error) {
	var env profilesEnvelope
	if err := c.Call(ctx, c.mediaEndpoint(), `<trt:GetProfiles/>`, &env); err != nil {
		return nil, err
	}
	return env.Body.Response.Profiles, nil
}

type mediaURIEnvelope struct {
	Body struct {
		StreamResponse struct {
			MediaURI struct {
				URI string `xml:"Uri"`
			} `xml:"MediaUri"`
		} `xml:"GetStreamUriResponse"`
		SnapshotResponse struct {
			MediaURI struct {
				URI string `xml:"Uri"`
			} `xml:"MediaUri"`
		} `xml:"GetSnapshotUriResponse"`
	} `xml:"Body"`
}

// GetStreamURI resolves the RTSP stream URI for a profile.
func (c *Client) GetStreamURI(ctx context.Context, profileToken string) (string, error) {
	body := `<trt:GetStreamUri>` +
		`<trt:StreamSetup>` +
		`<tt:Stream>RTP-Unicast</tt:Stream>` +
		`<tt:Transport><tt:Protocol>RTSP</tt:Protocol></tt:Transport>` +
		`</trt:StreamSetup>` +
		`<trt:ProfileToken>` + xmlEscape(profileToken) + `</trt:ProfileToken>` +
		`</trt:GetStreamUri>`

	var env mediaURIEnvelope
	if err := c.Call(ctx, c.mediaEndpoint(), body, &env); err != nil {
		return "", err
	}

	uri := env.Body.StreamResponse.MediaURI.URI
	if uri == "" {
		return "", fmt.Errorf("device returned empty stream URI for profile %q", profileToken)
	}
	return uri, nil
}

// GetSnapshotURI resolves the HTTP snapshot URI for a profile.
func (c *Client) GetSnapshotURI(ctx context.Context, profileToken string) (string, error) {
	body := `<trt:GetSnapshotUri>` +
		`<trt:ProfileToken>` + xmlEscape(profileToken) + `</trt:ProfileToken>` +
		`</trt:GetSnapshotUri>`

	var env mediaURIEnvelope
	if err := c.Call(ctx, c.mediaEndpoint(), body, &env); err != nil {
		return "", err
	}

	uri := env.Body.SnapshotResponse.MediaURI.URI
	if uri == "" {
		return "", fmt.Errorf("device returned empty snapshot URI for profile %q", profileToken)
	}
	return uri, nil
}
