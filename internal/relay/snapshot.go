package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultFetchTimeout bounds one snapshot fetch
	DefaultFetchTimeout = 10 * time.Second

	// maxFrameBytes bounds a single JPEG frame read. Still images from
	// IP cameras are well under this.
	maxFrameBytes = 16 << 20
)

// UpstreamError is a failed frame fetch: the upstream (a camera snapshot
// endpoint or the external frame extractor) was reached but did not
// produce a frame.
type UpstreamError struct {
	StatusCode int
	URL        string
}

// Error implements the error interface
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d for %s", e.StatusCode, e.URL)
}

// Fetcher retrieves single JPEG frames for the snapshot and stream
// endpoints.
type Fetcher struct {
	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// Username and Password are sent as Basic credentials when a camera
	// snapshot endpoint requires them. Empty means anonymous.
	Username string
	Password string

	// ExtractorURL is the base URL of the external frame-extraction
	// service used for rtspUrl requests. Empty disables FetchFromStream.
	ExtractorURL string
}

// NewFetcher creates a Fetcher with the default HTTP client.
func NewFetcher(extractorURL string) *Fetcher {
	return &Fetcher{
		HTTPClient:   &http.Client{Timeout: DefaultFetchTimeout},
		ExtractorURL: extractorURL,
	}
}

// WithCredentials returns a copy of the fetcher that authenticates frame
// fetches with the given credential pair.
func (f *Fetcher) WithCredentials(username, password string) *Fetcher {
	clone := *f
	clone.Username = username
	clone.Password = password
	return &clone
}

// Fetch retrieves one JPEG frame from a camera snapshot URL.
func (f *Fetcher) Fetch(ctx context.Context, snapshotURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, snapshotURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot request: %w", err)
	}
	if f.Username != "" || f.Password != "" {
		req.SetBasicAuth(f.Username, f.Password)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot fetch failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, URL: snapshotURL}
	}

	frame, err := io.ReadAll(io.LimitReader(resp.Body, maxFrameBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	return frame, nil
}

// FetchFromStream retrieves one JPEG frame for an RTSP stream URL by
// delegating extraction to the external frame-extraction service.
func (f *Fetcher) FetchFromStream(ctx context.Context, rtspURL string) ([]byte, error) {
	if f.ExtractorURL == "" {
		return nil, fmt.Errorf("no frame extractor configured")
	}

	endpoint := fmt.Sprintf("%s/snapshot?rtspUrl=%s", f.ExtractorURL, url.QueryEscape(rtspURL))
	return f.Fetch(ctx, endpoint)
}
