package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/camrelay/camrelay/internal/config"
	"github.com/camrelay/camrelay/internal/device"
	"github.com/camrelay/camrelay/internal/discovery"
	"github.com/camrelay/camrelay/internal/registry"
)

var jpegFrame = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

// fakeDiscoverer satisfies Discoverer with canned results.
type fakeDiscoverer struct {
	devices []device.Record
	err     error
	calls   int
	lastReq discovery.Request
}

func (f *fakeDiscoverer) Discover(_ context.Context, req discovery.Request) ([]device.Record, error) {
	f.calls++
	f.lastReq = req
	return f.devices, f.err
}

// fakeOpener satisfies session.Opener for ad-hoc relay requests.
type fakeOpener struct {
	record device.Record
	err    error
}

func (f *fakeOpener) Open(_ context.Context, _ device.Identity, _ device.Credentials) (device.Record, error) {
	return f.record, f.err
}

func newTestServer(t *testing.T, disc Discoverer, opener *fakeOpener, reg *registry.Registry) *Server {
	t.Helper()
	if disc == nil {
		disc = &fakeDiscoverer{}
	}
	if opener == nil {
		opener = &fakeOpener{}
	}
	if reg == nil {
		reg = registry.New()
	}
	return New(config.Default(), disc, opener, reg)
}

func TestDiscover_MissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing password", `{"username":"admin"}`},
		{"missing username", `{"password":"secret"}`},
		{"not json", `username=admin`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			disc := &fakeDiscoverer{}
			srv := newTestServer(t, disc, nil, nil)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/discover", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if disc.calls != 0 {
				t.Error("discoverer should not run without credentials")
			}

			var resp struct {
				OK    bool   `json:"ok"`
				Error string `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if resp.OK || resp.Error == "" {
				t.Errorf("response = %+v, want ok=false with an error message", resp)
			}
		})
	}
}

func TestDiscover_Success(t *testing.T) {
	disc := &fakeDiscoverer{devices: []device.Record{
		{ID: "cam-1", Name: "Front Door", Address: "10.0.0.5", XAddr: "http://10.0.0.5/onvif/device_service", RTSPURL: "rtsp://10.0.0.5:554/s1"},
	}}
	srv := newTestServer(t, disc, nil, nil)

	body := `{"username":"admin","password":"secret","timeoutMs":1500}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/discover", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if disc.lastReq.Credentials.Username != "admin" {
		t.Errorf("username = %s, want admin", disc.lastReq.Credentials.Username)
	}
	if disc.lastReq.Timeout != 1500*time.Millisecond {
		t.Errorf("timeout = %v, want 1.5s", disc.lastReq.Timeout)
	}

	var resp struct {
		OK      bool            `json:"ok"`
		Devices []device.Record `json:"devices"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if !resp.OK || len(resp.Devices) != 1 || resp.Devices[0].ID != "cam-1" {
		t.Errorf("response = %+v, want ok=true with cam-1", resp)
	}
}

func TestDiscover_Failures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"busy pass", discovery.ErrBusy, http.StatusServiceUnavailable},
		{"transport failure", &discovery.TransportError{Err: errors.New("network is down")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeDiscoverer{err: tt.err}, nil, nil)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/discover", strings.NewReader(`{"username":"a","password":"b"}`))
			req.Header.Set("Content-Type", "application/json")
			srv.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), `"ok":false`) {
				t.Errorf("body = %s, want ok=false", rec.Body.String())
			}
		})
	}
}

func TestDevices_ReturnsCurrentSnapshot(t *testing.T) {
	reg := registry.New()
	srv := newTestServer(t, nil, nil, reg)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/devices", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"devices":[]`) {
		t.Errorf("empty registry body = %s, want devices:[]", rec.Body.String())
	}

	reg.Publish([]device.Record{{ID: "cam-1", Name: "Yard", Address: "10.0.0.9"}})

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/devices", nil))
	if !strings.Contains(rec.Body.String(), `"cam-1"`) {
		t.Errorf("body = %s, want the published device", rec.Body.String())
	}
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/devices", nil))
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}

	// Preflight answered directly with an empty 200
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/discover", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("preflight status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("preflight body = %q, want empty", rec.Body.String())
	}
}

func TestSnapshot_ByID(t *testing.T) {
	camera := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(jpegFrame)
	}))
	defer camera.Close()

	reg := registry.New()
	reg.Publish([]device.Record{{ID: "cam-1", SnapshotURL: camera.URL}})
	srv := newTestServer(t, nil, nil, reg)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot?id=cam-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "image/jpeg" {
		t.Errorf("Content-Type = %s, want image/jpeg", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), jpegFrame) {
		t.Error("body should be the camera's frame")
	}
}

func TestSnapshot_UnknownID(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot?id=nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSnapshot_MissingParams(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"no device reference", "/snapshot"},
		{"xaddr without credentials", "/snapshot?xaddr=http://10.0.0.5/onvif/device_service"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, nil, nil, nil)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestSnapshot_RTSPDelegatesToExtractor(t *testing.T) {
	var gotRTSP string
	extractor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRTSP = r.URL.Query().Get("rtspUrl")
		_, _ = w.Write(jpegFrame)
	}))
	defer extractor.Close()

	cfg := config.Default()
	cfg.Relay.ExtractorURL = extractor.URL
	srv := New(cfg, &fakeDiscoverer{}, &fakeOpener{}, registry.New())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot?rtspUrl=rtsp%3A%2F%2F10.0.0.5%3A554%2Fs1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if gotRTSP != "rtsp://10.0.0.5:554/s1" {
		t.Errorf("extractor saw rtspUrl = %s", gotRTSP)
	}
}

func TestSnapshot_UpstreamFailure(t *testing.T) {
	camera := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer camera.Close()

	reg := registry.New()
	reg.Publish([]device.Record{{ID: "cam-1", SnapshotURL: camera.URL}})
	srv := newTestServer(t, nil, nil, reg)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot?id=cam-1", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok":false`) {
		t.Errorf("body = %s, want ok=false", rec.Body.String())
	}
}

func TestSnapshot_AdHocSession(t *testing.T) {
	camera := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(jpegFrame)
	}))
	defer camera.Close()

	opener := &fakeOpener{record: device.Record{ID: "cam-9", SnapshotURL: camera.URL}}
	srv := newTestServer(t, nil, opener, nil)

	rec := httptest.NewRecorder()
	target := "/snapshot?xaddr=http%3A%2F%2F10.0.0.9%2Fonvif%2Fdevice_service&username=admin&password=secret"
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !bytes.Equal(rec.Body.Bytes(), jpegFrame) {
		t.Error("body should be the camera's frame")
	}
}

func TestStream_ServesMultipartUntilDisconnect(t *testing.T) {
	camera := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(jpegFrame)
	}))
	defer camera.Close()

	reg := registry.New()
	reg.Publish([]device.Record{{ID: "cam-1", SnapshotURL: camera.URL}})

	cfg := config.Default()
	cfg.Relay.FrameIntervalMs = 5
	cfg.Relay.FrameRetryMs = 5
	srv := New(cfg, &fakeDiscoverer{}, &fakeOpener{}, reg)

	api := httptest.NewServer(srv.Handler())
	defer api.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api.URL+"/stream?id=cam-1", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("stream request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if got := resp.Header.Get("Content-Type"); !strings.Contains(got, "multipart/x-mixed-replace") {
		t.Errorf("Content-Type = %s, want multipart/x-mixed-replace", got)
	}

	// Read a couple of parts, then disconnect
	reader := bufio.NewReader(resp.Body)
	var sawBoundary, sawJPEG bool
	for i := 0; i < 20; i++ {
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		if strings.Contains(line, "--camrelayframe") {
			sawBoundary = true
		}
		if strings.Contains(line, "Content-Type: image/jpeg") {
			sawJPEG = true
		}
		if sawBoundary && sawJPEG {
			break
		}
	}
	cancel()

	if !sawBoundary || !sawJPEG {
		t.Errorf("stream output missing multipart framing (boundary=%v jpeg=%v)", sawBoundary, sawJPEG)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil, nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
