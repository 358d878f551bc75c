package device

import "testing"

func TestAddressFromXAddr(t *testing.T) {
	tests := []struct {
		name  string
		xaddr string
		want  string
	}{
		{
			name:  "standard ONVIF endpoint",
			xaddr: "http://192.168.1.64:8000/onvif/device_service",
			want:  "192.168.1.64",
		},
		{
			name:  "hostname endpoint",
			xaddr: "http://cam-front.local/onvif/device_service",
			want:  "cam-front.local",
		},
		{
			name:  "endpoint without port",
			xaddr: "http://10.0.0.9/onvif/device_service",
			want:  "10.0.0.9",
		},
		{
			name:  "unparseable URI falls back to raw string",
			xaddr: "://not-a-uri",
			want:  "://not-a-uri",
		},
		{
			name:  "bare string without scheme falls back to raw string",
			xaddr: "just-some-string",
			want:  "just-some-string",
		},
		{
			name:  "empty string",
			xaddr: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AddressFromXAddr(tt.xaddr); got != tt.want {
				t.Errorf("AddressFromXAddr(%q) = %q, want %q", tt.xaddr, got, tt.want)
			}
		})
	}
}

func TestRecord_Capabilities(t *testing.T) {
	tests := []struct {
		name         string
		record       Record
		wantStream   bool
		wantSnapshot bool
	}{
		{
			name:         "both URLs resolved",
			record:       Record{RTSPURL: "rtsp://cam/stream", SnapshotURL: "http://cam/snap"},
			wantStream:   true,
			wantSnapshot: true,
		},
		{
			name:       "stream only",
			record:     Record{RTSPURL: "rtsp://cam/stream"},
			wantStream: true,
		},
		{
			name:         "snapshot only",
			record:       Record{SnapshotURL: "http://cam/snap"},
			wantSnapshot: true,
		},
		{
			name:   "neither",
			record: Record{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.HasStream(); got != tt.wantStream {
				t.Errorf("HasStream() = %v, want %v", got, tt.wantStream)
			}
			if got := tt.record.HasSnapshot(); got != tt.wantSnapshot {
				t.Errorf("HasSnapshot() = %v, want %v", got, tt.wantSnapshot)
			}
		})
	}
}

func TestRecord_String(t *testing.T) {
	r := Record{ID: "urn:uuid:abc", Name: "Front Door", Address: "192.168.1.64"}

	want := "Device urn:uuid:abc (Front Door) at 192.168.1.64"
	if r.String() != want {
		t.Errorf("Record.String() = %v, want %v", r.String(), want)
	}
}
