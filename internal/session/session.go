package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/camrelay/camrelay/internal/device"
	"github.com/camrelay/camrelay/internal/logging"
	"github.com/camrelay/camrelay/internal/onvif"
)

// Opener opens an authenticated session against one discovered device and
// resolves its access URLs. Implementations must be safe for concurrent
// use; the orchestrator fans out one Open call per probe response.
type Opener interface {
	Open(ctx context.Context, identity device.Identity, creds device.Credentials) (device.Record, error)
}

// ClientFactory builds the SOAP client used for a session. Swappable for
// test doubles.
type ClientFactory func(xaddr, username, password string) *onvif.Client

// OnvifOpener is the production Opener backed by the onvif SOAP client.
type OnvifOpener struct {
	// Factory builds per-device SOAP clients (defaults to onvif.NewClient)
	Factory ClientFactory
}

// NewOpener creates an OnvifOpener with the default client factory.
func NewOpener() *OnvifOpener {
	return &OnvifOpener{Factory: onvif.NewClient}
}

// Open runs the session-open sequence against one device:
//
//  1. authenticate via GetDeviceInformation (also yields the hardware
//     serial used as a pass-stable id)
//  2. enumerate media profiles; the first device-listed profile wins
//  3. resolve the RTSP stream URI for the active profile
//  4. resolve the HTTP snapshot URI for the active profile
//
// Steps 3 and 4 are independent: a device that resolves only one of the
// two URLs is still usable and is returned with the other field empty.
// Only a device that resolves neither is rejected.
func (o *OnvifOpener) Open(ctx context.Context, identity device.Identity, creds device.Credentials) (device.Record, error) {
	factory := o.Factory
	if factory == nil {
		factory = onvif.NewClient
	}
	client := factory(identity.XAddr, creds.Username, creds.Password)

	info, err := client.GetDeviceInformation(ctx)
	if err != nil {
		return device.Record{}, classifyOpenError(identity.Address, err)
	}

	// Media capability resolution is best-effort: media calls fall back
	// to the management endpoint when it fails
	if err := client.ResolveMediaEndpoint(ctx); err != nil {
		logging.Debug("Media endpoint resolution failed, using management endpoint",
			zap.String("address", identity.Address),
			zap.Error(err),
		)
	}

	profiles, err := client.GetProfiles(ctx)
	if err != nil {
		return device.Record{}, newError(KindNoProfiles, identity.Address, err)
	}
	if len(profiles) == 0 {
		return device.Record{}, newError(KindNoProfiles, identity.Address, errors.New("device returned no media profiles"))
	}

	// No quality negotiation: first-listed profile wins
	profile := profiles[0]

	streamURL, streamErr := client.GetStreamURI(ctx, profile.Token)
	if streamErr != nil {
		logging.Debug("Stream URI resolution failed",
			zap.String("address", identity.Address),
			zap.String("profile", profile.Token),
			zap.Error(streamErr),
		)
	}

	snapshotURL, snapshotErr := client.GetSnapshotURI(ctx, profile.Token)
	if snapshotErr != nil {
		logging.Debug("Snapshot URI resolution failed",
			zap.String("address", identity.Address),
			zap.String("profile", profile.Token),
			zap.Error(snapshotErr),
		)
	}

	if streamErr != nil && snapshotErr != nil {
		// No usable access point at all
		return device.Record{}, newError(KindStreamResolution, identity.Address, errors.Join(streamErr, snapshotErr))
	}

	return device.Record{
		ID:           deviceID(identity, info),
		Name:         identity.Name,
		Address:      identity.Address,
		XAddr:        identity.XAddr,
		RTSPURL:      streamURL,
		SnapshotURL:  snapshotURL,
		Manufacturer: info.Manufacturer,
		Model:        info.Model,
	}, nil
}

// deviceID picks the most stable identifier available: the hardware serial
// when the device reports one, then the WS-Discovery endpoint reference,
// and finally a per-pass UUID. Only the serial is stable across passes;
// callers that need cross-pass identity without one should key off the
// address instead.
func deviceID(identity device.Identity, info onvif.DeviceInformation) string {
	if info.SerialNumber != "" {
		return info.SerialNumber
	}
	if identity.ID != "" {
		return identity.ID
	}
	return uuid.NewString()
}
