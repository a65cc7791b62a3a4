package btserial

import (
	"strconv"
	"strings"

	"github.com/banshee-data/presence.report/internal/scan"
)

// Advertisement report lines from the scanner module look like
//
//	ADV|64:A2:F9:0D:11:22|-67|Pixel Buds|audio
//
// with the name and type fields optional. The delimiter is a pipe so
// advertised names containing commas survive intact.
const advPrefix = "ADV|"

// parseAdvertisement parses one report line into a device reading. Lines
// that are not advertisement reports (status echoes, command acks) are
// ignored. An unparsable RSSI field degrades to 0 rather than discarding the
// sighting.
func parseAdvertisement(line string) (scan.Device, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, advPrefix) {
		return scan.Device{}, false
	}

	fields := strings.SplitN(line[len(advPrefix):], "|", 4)
	address := strings.ToUpper(strings.TrimSpace(fields[0]))
	if address == "" {
		return scan.Device{}, false
	}

	dev := scan.Device{Address: address}
	if len(fields) > 1 {
		if rssi, err := strconv.Atoi(strings.TrimSpace(fields[1])); err == nil {
			dev.RSSI = rssi
		}
	}
	if len(fields) > 2 {
		dev.Name = strings.TrimSpace(fields[2])
	}
	if len(fields) > 3 {
		dev.DeviceType = strings.TrimSpace(fields[3])
	}
	return dev, true
}
