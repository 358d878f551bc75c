package onvif

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// Namespace prefixes used in request envelopes:
//
//	s   http://www.w3.org/2003/05/soap-envelope
//	tds http://www.onvif.org/ver10/device/wsdl
//	trt http://www.onvif.org/ver10/media/wsdl
//	tt  http://www.onvif.org/ver10/schema
const envelopeOpen = `<?xml version="1.0" encoding="UTF-8"?>` +
	`<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope"` +
	` xmlns:tds="http://www.onvif.org/ver10/device/wsdl"` +
	` xmlns:trt="http://www.onvif.org/ver10/media/wsdl"` +
	` xmlns:tt="http://www.onvif.org/ver10/schema">`

// wsse/wsu namespaces for the UsernameToken security header
const (
	nsSecExt   = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
	nsUtility  = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd"
	nsDigest   = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordDigest"
	nsB64Nonce = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-soap-message-security-1.0#Base64Binary"
)

// createdFormat is the timestamp layout ONVIF devices expect in the
// wsu:Created element
const createdFormat = "2006-01-02T15:04:05.000Z"

// securityToken holds one WS-UsernameToken digest. A fresh token is
// generated per request; devices reject reused nonces.
type securityToken struct {
	Username string
	Digest   string
	Nonce    string
	Created  string
}

// newSecurityToken computes the ONVIF password digest:
// Base64(SHA1(nonce + created + password))
func newSecurityToken(username, password string) (*securityToken, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	created := time.Now().UTC().Format(createdFormat)

	h := sha1.New()
	h.Write(nonce)
	h.Write([]byte(created))
	h.Write([]byte(password))

	return &securityToken{
		Username: username,
		Digest:   base64.StdEncoding.EncodeToString(h.Sum(nil)),
		Nonce:    base64.StdEncoding.EncodeToString(nonce),
		Created:  created,
	}, nil
}

// header renders the wsse:Security SOAP header for this token.
func (t *securityToken) header() string {
	var b strings.Builder
	b.WriteString(`<s:Header><Security s:mustUnderstand="1" xmlns="` + nsSecExt + `">`)
	b.WriteString(`<UsernameToken>`)
	b.WriteString(`<Username>` + xmlEscape(t.Username) + `</Username>`)
	b.WriteString(`<Password Type="` + nsDigest + `">` + t.Digest + `</Password>`)
	b.WriteString(`<Nonce EncodingType="` + nsB64Nonce + `">` + t.Nonce + `</Nonce>`)
	b.WriteString(`<Created xmlns="` + nsUtility + `">` + t.Created + `</Created>`)
	b.WriteString(`</UsernameToken></Security></s:Header>`)
	return b.String()
}

// buildEnvelope wraps a request body in a SOAP 1.2 envelope. When
// credentials are present a fresh UsernameToken security header is added.
func buildEnvelope(username, password, body string) (string, error) {
	var b strings.Builder
	b.WriteString(envelopeOpen)

	if username != "" || password != "" {
		token, err := newSecurityToken(username, password)
		if err != nil {
			return "", err
		}
		b.WriteString(token.header())
	}

	b.WriteString(`<s:Body>`)
	b.WriteString(body)
	b.WriteString(`</s:Body></s:Envelope>`)
	return b.String(), nil
}

// xmlEscape escapes text for embedding in an XML element
func xmlEscape(s string) string {
	var b strings.Builder
	// xml.EscapeText only fails on a writer error; strings.Builder never errors
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// Fault is a SOAP fault returned by a device. The XML structs below match
// element local names only, so any namespace prefix the device uses works.
type Fault struct {
	Code    string
	Subcode string
	Reason  string
}

// Error implements the error interface
func (f *Fault) Error() string {
	if f.Reason != "" {
		return fmt.Sprintf("device fault: %s (%s)", f.Reason, f.Subcode)
	}
	return fmt.Sprintf("device fault: %s", f.Subcode)
}

// IsAuthFault reports whether the fault indicates rejected credentials.
// ONVIF devices signal this with the NotAuthorized subcode, but some
// implementations only populate the reason text.
func (f *Fault) IsAuthFault() bool {
	if strings.Contains(f.Subcode, "NotAuthorized") {
		return true
	}
	reason := strings.ToLower(f.Reason)
	return strings.Contains(reason, "not authorized") ||
		strings.Contains(reason, "authority failure") ||
		strings.Contains(reason, "unauthorized") ||
		strings.Contains(reason, "authentication")
}

type faultEnvelope struct {
	Body struct {
		Fault *faultBody `xml:"Fault"`
	} `xml:"Body"`
}

type faultBody struct {
	Code struct {
		Value   string `xml:"Value"`
		Subcode struct {
			Value string `xml:"Value"`
		} `xml:"Subcode"`
	} `xml:"Code"`
	Reason struct {
		Text string `xml:"Text"`
	} `xml:"Reason"`
}

// parseFault extracts a SOAP fault from a response body. Returns nil when
// the body carries no fault.
func parseFault(data []byte) *Fault {
	var env faultEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return nil
	}
	if env.Body.Fault == nil {
		return nil
	}
	return &Fault{
		Code:    env.Body.Fault.Code.Value,
		Subcode: env.Body.Fault.Code.Subcode.Value,
		Reason:  strings.TrimSpace(env.Body.Fault.Reason.Text),
	}
}
