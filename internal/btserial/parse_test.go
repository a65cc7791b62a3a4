package btserial

import (
	"testing"

	"github.com/banshee-data/presence.report/internal/scan"
	"github.com/google/go-cmp/cmp"
)

func TestParseAdvertisement(t *testing.T) {
	tests := []struct {
		name string
		line string
		want scan.Device
		ok   bool
	}{
		{
			name: "full report",
			line: "ADV|64:A2:F9:0D:11:22|-67|Pixel Buds|audio",
			want: scan.Device{Address: "64:A2:F9:0D:11:22", RSSI: -67, Name: "Pixel Buds", DeviceType: "audio"},
			ok:   true,
		},
		{
			name: "address and rssi only",
			line: "ADV|aa:bb:cc:dd:ee:ff|-90",
			want: scan.Device{Address: "AA:BB:CC:DD:EE:FF", RSSI: -90},
			ok:   true,
		},
		{
			name: "name with comma survives",
			line: "ADV|AA:BB:CC:DD:EE:01|-50|Speaker, Kitchen|audio",
			want: scan.Device{Address: "AA:BB:CC:DD:EE:01", RSSI: -50, Name: "Speaker, Kitchen", DeviceType: "audio"},
			ok:   true,
		},
		{
			name: "unparsable rssi degrades to zero",
			line: "ADV|AA:BB:CC:DD:EE:02|??|Watch",
			want: scan.Device{Address: "AA:BB:CC:DD:EE:02", RSSI: 0, Name: "Watch"},
			ok:   true,
		},
		{
			name: "surrounding whitespace trimmed",
			line: "  ADV|AA:BB:CC:DD:EE:03|-61|  Lamp  |  \r",
			want: scan.Device{Address: "AA:BB:CC:DD:EE:03", RSSI: -61, Name: "Lamp"},
			ok:   true,
		},
		{name: "command ack ignored", line: "OK SCAN ON", ok: false},
		{name: "status line ignored", line: "READY", ok: false},
		{name: "missing address ignored", line: "ADV||-50|x", ok: false},
		{name: "empty line ignored", line: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseAdvertisement(tt.line)
			if ok != tt.ok {
				t.Fatalf("parseAdvertisement(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			}
			if !ok {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseAdvertisement(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestPortOptionsNormalize(t *testing.T) {
	tests := []struct {
		name    string
		opts    PortOptions
		want    PortOptions
		wantErr bool
	}{
		{
			name: "zero value gets defaults",
			opts: PortOptions{},
			want: PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "N"},
		},
		{
			name: "parity spelled out",
			opts: PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "even"},
			want: PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "E"},
		},
		{name: "invalid data bits", opts: PortOptions{DataBits: 9}, wantErr: true},
		{name: "invalid stop bits", opts: PortOptions{StopBits: 3}, wantErr: true},
		{name: "unsupported parity", opts: PortOptions{Parity: "M"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.Normalize()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
