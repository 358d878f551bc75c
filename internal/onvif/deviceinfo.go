package onvif

import "context"

// DeviceInformation is the response to a GetDeviceInformation call.
type DeviceInformation struct {
	Manufacturer    string
	Model           string
	FirmwareVersion string
	SerialNumber    string
	HardwareID      string
}

type deviceInformationEnvelope struct {
	Body struct {
		Response struct {
			Manufacturer    string `xml:"Manufacturer"`
			Model           string `xml:"Model"`
			FirmwareVersion string `xml:"FirmwareVersion"`
			SerialNumber    string `xml:"SerialNumber"`
			HardwareID      string `xml:"HardwareId"`
		} `xml:"GetDeviceInformationResponse"`
	} `xml:"Body"`
}

// GetDeviceInformation retrieves manufacturer, model and serial details.
// This is the first authenticated call a session makes: it verifies both
// reachability and the credential pair.
func (c *Client) GetDeviceInformation(ctx context.Context) (DeviceInformation, error) {
	var env deviceInformationEnvelope
	err := c.Call(ctx, c.XAddr, `<tds:GetDeviceInformation/>`, &env)
	if err != nil {
		return DeviceInformation{}, err
	}

	r := env.Body.Response
	return DeviceInformation{
		Manufacturer:    r.Manufacturer,
		Model:           r.Model,
		FirmwareVersion: r.FirmwareVersion,
		SerialNumber:    r.SerialNumber,
		HardwareID:      r.HardwareID,
	}, nil
}

type capabilitiesEnvelope struct {
	Body struct {
		Response struct {
			Capabilities struct {
				Media struct {
					XAddr string `xml:"XAddr"`
				} `xml:"Media"`
			} `xml:"Capabilities"`
		} `xml:"GetCapabilitiesResponse"`
	} `xml:"Body"`
}

// ResolveMediaEndpoint asks the device for its capability set and records
// the media service endpoint for subsequent media calls. Failure is soft:
// media calls fall back to the management endpoint, which many devices
// accept.
func (c *Client) ResolveMediaEndpoint(ctx context.Context) error {
	var env capabilitiesEnvelope
	body := `<tds:GetCapabilities><tds:Category>Media</tds:Category></tds:GetCapabilities>`
	if err := c.Call(ctx, c.XAddr, body, &env); err != nil {
		return err
	}

	if xaddr := env.Body.Response.Capabilities.Media.XAddr; xaddr != "" {
		c.mediaXAddr = xaddr
	}
	return nil
}
