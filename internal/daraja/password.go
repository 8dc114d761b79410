package daraja

import (
	"encoding/base64"
	"time"
)

// timestampLayout yields the 14-digit YYYYMMDDHHMMSS form Daraja signs
// against. Any deviation makes the provider reject the push request.
const timestampLayout = "20060102150405"

// Password derives the Lipa Na M-Pesa password for an STK push request:
// base64(shortcode + passkey + timestamp). Deterministic for a given now.
func Password(shortcode, passkey string, now time.Time) (password, timestamp string) {
	timestamp = now.Format(timestampLayout)
	password = base64.StdEncoding.EncodeToString([]byte(shortcode + passkey + timestamp))
	return password, timestamp
}
