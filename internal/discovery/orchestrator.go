package discovery

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/camrelay/camrelay/internal/config"
	"github.com/camrelay/camrelay/internal/device"
	"github.com/camrelay/camrelay/internal/logging"
	"github.com/camrelay/camrelay/internal/registry"
	"github.com/camrelay/camrelay/internal/session"
)

// ErrBusy is returned when a discovery pass is requested while another is
// still in flight. Passes are serialized so a later publish can never race
// with an earlier one.
var ErrBusy = errors.New("discovery pass already in progress")

// Request describes one discovery pass.
type Request struct {
	// Credentials authenticate session opens against each responder
	Credentials device.Credentials

	// Timeout is the probe collection window. Zero means the configured
	// default (5s). Must not be negative.
	Timeout time.Duration
}

// Orchestrator drives discovery passes: probe, concurrent per-device
// session opens, aggregation, and the atomic registry publish.
type Orchestrator struct {
	prober    Prober
	secondary []Prober
	opener    session.Opener
	registry  *registry.Registry

	// inflight serializes passes; TryLock gives the busy signal
	inflight sync.Mutex
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSecondary adds a best-effort discovery source (e.g. mDNS) whose
// matches merge into every pass. Secondary source failures degrade the
// pass, they never fail it.
func WithSecondary(p Prober) Option {
	return func(o *Orchestrator) {
		o.secondary = append(o.secondary, p)
	}
}

// New creates an orchestrator. The prober and opener are injected so test
// doubles and alternative transports slot in without global state.
func New(prober Prober, opener session.Opener, reg *registry.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		prober:   prober,
		opener:   opener,
		registry: reg,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// openResult is the outcome of one per-device session-open task.
type openResult struct {
	record  device.Record
	err     error
	address string
}

// Discover runs one full discovery pass and returns the aggregated device
// records. The pass fails only when the probe itself cannot be sent
// (*TransportError) or the context is cancelled; per-device failures are
// logged and the device omitted. On success the registry is atomically
// replaced with the result; on failure or cancellation it keeps its
// previous snapshot.
func (o *Orchestrator) Discover(ctx context.Context, req Request) ([]device.Record, error) {
	if !o.inflight.TryLock() {
		return nil, ErrBusy
	}
	defer o.inflight.Unlock()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = config.DefaultDiscoveryTimeout
	}

	start := time.Now()

	matches, err := o.prober.Probe(ctx, timeout)
	if err != nil {
		return nil, err
	}

	for _, sec := range o.secondary {
		extra, err := sec.Probe(ctx, timeout)
		if err != nil {
			logging.Warn("Secondary discovery source failed", zap.Error(err))
			continue
		}
		matches = append(matches, extra...)
	}

	matches = dedupMatches(matches)

	// Fan out one session open per responder. A per-device deadline
	// derived from the probe window bounds the whole pass even when a
	// device stalls mid-handshake.
	perDeviceTimeout := 2 * timeout
	results := make(chan openResult, len(matches))

	var wg sync.WaitGroup
	for _, match := range matches {
		wg.Add(1)
		go func(m ProbeMatch) {
			defer wg.Done()

			identity := ParseIdentity(m)

			dctx, cancel := context.WithTimeout(ctx, perDeviceTimeout)
			defer cancel()

			record, err := o.opener.Open(dctx, identity, req.Credentials)
			results <- openResult{record: record, err: err, address: identity.Address}
		}(match)
	}
	wg.Wait()
	close(results)

	records := make([]device.Record, 0, len(matches))
	seen := make(map[string]bool)
	for res := range results {
		if res.err != nil {
			logging.LogDeviceFailure(res.address, res.err)
			continue
		}
		if seen[res.record.ID] {
			continue
		}
		seen[res.record.ID] = true
		records = append(records, res.record)
	}

	// A cancelled pass discards its partial aggregate; the registry keeps
	// the previous snapshot
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o.registry.Publish(records)
	logging.LogDiscoveryPass(len(matches), len(records), time.Since(start).Milliseconds())

	return records, nil
}

// dedupMatches removes duplicate responders across discovery sources,
// keyed by endpoint reference when present and primary XAddr otherwise.
// First occurrence wins, so WS-Discovery matches take precedence over
// secondary-source duplicates.
func dedupMatches(matches []ProbeMatch) []ProbeMatch {
	seen := make(map[string]bool, len(matches))
	out := matches[:0]
	for _, m := range matches {
		key := m.EndpointRef
		if key == "" {
			key = m.Primary()
		}
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}
