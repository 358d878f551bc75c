package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/camrelay/camrelay/internal/device"
	"github.com/camrelay/camrelay/internal/discovery"
	"github.com/camrelay/camrelay/internal/logging"
	"github.com/camrelay/camrelay/internal/relay"
)

// discoverRequest is the POST /discover body.
type discoverRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	TimeoutMs int    `json:"timeoutMs"`
}

// errorResponse writes the uniform {ok:false,error} failure shape.
func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"ok": false, "error": message})
}

// handleDiscover runs a discovery pass and returns the devices it found.
func (s *Server) handleDiscover(c *gin.Context) {
	var req discoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		errorResponse(c, http.StatusBadRequest, "username and password are required")
		return
	}

	devices, err := s.discoverer.Discover(c.Request.Context(), discovery.Request{
		Credentials: device.Credentials{Username: req.Username, Password: req.Password},
		Timeout:     time.Duration(req.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		if errors.Is(err, discovery.ErrBusy) {
			errorResponse(c, http.StatusServiceUnavailable, "discovery already in progress")
			return
		}
		logging.Error("Discovery pass failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "discovery failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "devices": devices})
}

// handleDevices returns the current registry snapshot.
func (s *Server) handleDevices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"devices": s.registry.Current()})
}

// handleSnapshot serves one JPEG frame. Three addressing modes:
//
//	?rtspUrl=...                     frame extracted from an RTSP stream
//	?id=...                          known registry device
//	?xaddr=...&username=&password=   ad-hoc session against a device endpoint
func (s *Server) handleSnapshot(c *gin.Context) {
	ctx := c.Request.Context()

	if rtspURL := c.Query("rtspUrl"); rtspURL != "" {
		frame, err := s.fetcher.FetchFromStream(ctx, rtspURL)
		if err != nil {
			logging.Warn("Snapshot extraction failed", zap.String("rtspUrl", rtspURL), zap.Error(err))
			errorResponse(c, http.StatusInternalServerError, "failed to fetch snapshot: "+err.Error())
			return
		}
		c.Data(http.StatusOK, "image/jpeg", frame)
		return
	}

	fetcher := s.fetcher
	username, password := c.Query("username"), c.Query("password")
	if username != "" || password != "" {
		fetcher = fetcher.WithCredentials(username, password)
	}

	snapshotURL, rtspURL, err := s.resolveSource(c)
	if err != nil {
		return // resolveSource wrote the response
	}

	var frame []byte
	switch {
	case snapshotURL != "":
		frame, err = fetcher.Fetch(ctx, snapshotURL)
	case rtspURL != "":
		frame, err = fetcher.FetchFromStream(ctx, rtspURL)
	default:
		errorResponse(c, http.StatusInternalServerError, "device has no snapshot source")
		return
	}
	if err != nil {
		logging.Warn("Snapshot fetch failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to fetch snapshot: "+err.Error())
		return
	}

	c.Data(http.StatusOK, "image/jpeg", frame)
}

// handleStream serves a continuous MJPEG stream until the client
// disconnects or the server shuts down.
func (s *Server) handleStream(c *gin.Context) {
	fetcher := s.fetcher
	username, password := c.Query("username"), c.Query("password")
	if username != "" || password != "" {
		fetcher = fetcher.WithCredentials(username, password)
	}

	snapshotURL, _, err := s.resolveSource(c)
	if err != nil {
		return
	}
	if snapshotURL == "" {
		errorResponse(c, http.StatusInternalServerError, "device has no snapshot source to relay")
		return
	}

	c.Header("Content-Type", relay.ContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "close")
	c.Status(http.StatusOK)

	_ = fetcher.Stream(c.Request.Context(), c.Writer, snapshotURL, relay.StreamOptions{
		FrameInterval: s.cfg.FrameInterval(),
		RetryInterval: s.cfg.FrameRetryInterval(),
	})
}

// resolveSource resolves the snapshot and RTSP URLs for a relay request,
// either from the registry (?id=) or by opening an ad-hoc session against
// a device endpoint (?xaddr= with credentials). On failure it writes the
// error response and returns a non-nil error.
func (s *Server) resolveSource(c *gin.Context) (snapshotURL, rtspURL string, err error) {
	if id := c.Query("id"); id != "" {
		rec, ok := s.registry.Lookup(id)
		if !ok {
			errorResponse(c, http.StatusNotFound, "unknown device id")
			return "", "", errors.New("unknown device")
		}
		return rec.SnapshotURL, rec.RTSPURL, nil
	}

	xaddr := c.Query("xaddr")
	username, password := c.Query("username"), c.Query("password")
	if xaddr == "" {
		errorResponse(c, http.StatusBadRequest, "id or xaddr is required")
		return "", "", errors.New("missing device reference")
	}
	if username == "" || password == "" {
		errorResponse(c, http.StatusBadRequest, "username and password are required")
		return "", "", errors.New("missing credentials")
	}

	if rec, ok := s.registry.LookupByXAddr(xaddr); ok {
		return rec.SnapshotURL, rec.RTSPURL, nil
	}

	rec, err := s.opener.Open(c.Request.Context(), device.Identity{
		XAddr:   xaddr,
		Address: device.AddressFromXAddr(xaddr),
	}, device.Credentials{Username: username, Password: password})
	if err != nil {
		logging.Warn("Ad-hoc session open failed", zap.String("xaddr", xaddr), zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "failed to open device session: "+err.Error())
		return "", "", err
	}
	return rec.SnapshotURL, rec.RTSPURL, nil
}

// handleHealthz is the liveness probe.
func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
