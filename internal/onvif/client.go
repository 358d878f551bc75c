package onvif

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the default per-request timeout for SOAP calls
	DefaultTimeout = 10 * time.Second

	// soapContentType is the SOAP 1.2 media type
	soapContentType = "application/soap+xml; charset=utf-8"

	// maxResponseBytes bounds how much of a device response is read.
	// ONVIF responses are small; anything bigger is a misbehaving device.
	maxResponseBytes = 1 << 20
)

// StatusError is a non-2xx HTTP response that carried no SOAP fault.
type StatusError struct {
	StatusCode int
}

// Error implements the error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("device returned HTTP %d", e.StatusCode)
}

// Client is a SOAP client bound to one device service endpoint.
// A fresh WS-UsernameToken digest is attached to every call.
type Client struct {
	// XAddr is the device management service endpoint URI
	XAddr string

	// Username and Password authenticate SOAP calls via WS-UsernameToken
	Username string
	Password string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// mediaXAddr is the media service endpoint resolved from capabilities.
	// Empty until GetCapabilities succeeds; calls fall back to XAddr.
	mediaXAddr string
}

// NewClient creates a SOAP client for the device at the given endpoint URI.
func NewClient(xaddr, username, password string) *Client {
	return &Client{
		XAddr:      xaddr,
		Username:   username,
		Password:   password,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// Call posts a request body to the given service endpoint and unmarshals
// the response envelope into out. A SOAP fault in the response is returned
// as a *Fault error regardless of HTTP status.
func (c *Client) Call(ctx context.Context, endpoint, body string, out interface{}) error {
	envelope, err := buildEnvelope(c.Username, c.Password, body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(envelope))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", soapContentType)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Devices report faults with 400/500 status codes; a fault body takes
	// precedence over the bare status
	if fault := parseFault(data); fault != nil {
		return fault
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode}
	}

	if out == nil {
		return nil
	}

	if err := xml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// mediaEndpoint returns the media service endpoint, falling back to the
// management endpoint when capabilities have not been resolved.
func (c *Client) mediaEndpoint() string {
	if c.mediaXAddr != "" {
		return c.mediaXAddr
	}
	return c.XAddr
}
