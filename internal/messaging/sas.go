package messaging

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// SASToken signs "<host>/devices/<deviceId>" with the base64 device key and
// returns a SharedAccessSignature valid until expiry.
func SASToken(host, deviceID, deviceKey string, expiry time.Time) (string, error) {
	key, err := base64.StdEncoding.DecodeString(deviceKey)
	if err != nil {
		return "", fmt.Errorf("device key is not base64: %w", err)
	}

	resource := url.QueryEscape(host + "/devices/" + deviceID)
	se := strconv.FormatInt(expiry.Unix(), 10)

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(resource + "\n" + se))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf("SharedAccessSignature sr=%s&sig=%s&se=%s", resource, url.QueryEscape(sig), se), nil
}
