package helpers

import (
	"crypto/sha256"
	"encoding/hex"
)

// DeviceFingerprint derives a deterministic device identifier from the client
// IP and user-agent string: same device, network path and browser always map
// to the same fingerprint, which lets the UI label known devices.
func DeviceFingerprint(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + userAgent))
	return hex.EncodeToString(sum[:])
}
