package playfab

import (
	"fmt"
	"strings"
)

// SDKVersion is the version reported in the X-PlayFabSDK header.
const SDKVersion = "1.4.0"

// SDKName prefixes SDKVersion in the X-PlayFabSDK header.
const SDKName = "GoSDK"

// Settings holds process-wide SDK configuration. A Dispatcher copies it at
// construction, so it is never mutated while calls are in flight.
type Settings struct {
	TitleID            string
	DeveloperSecretKey string
	// VerticalName selects a dedicated PlayFab vertical (e.g. "china"); empty for the public cloud.
	VerticalName string
	// ProductionEnvironmentURL overrides the derived base URL when set.
	ProductionEnvironmentURL string
}

// SDKHeaderValue returns the X-PlayFabSDK header value.
func SDKHeaderValue() string {
	return SDKName + "-" + SDKVersion
}

// BaseURL returns the API root for these settings, without a trailing slash.
func (s Settings) BaseURL() (string, error) {
	if s.ProductionEnvironmentURL != "" {
		return strings.TrimRight(s.ProductionEnvironmentURL, "/"), nil
	}
	if s.TitleID == "" {
		return "", fmt.Errorf("TitleID must be set to derive the API URL")
	}
	host := "playfabapi.com"
	if s.VerticalName != "" {
		host = s.VerticalName + "." + host
	}
	return fmt.Sprintf("https://%s.%s", strings.ToLower(s.TitleID), host), nil
}

// AuthContext holds per-session credentials. Values handed to a Dispatcher
// must not be mutated afterwards; build a new one instead.
type AuthContext struct {
	PlayFabID           string
	EntityID            string
	EntityType          string
	EntityToken         string
	ClientSessionTicket string
	TelemetryKey        string
}

// AuthContextCarrier is implemented by request payloads that embed their own AuthContext.
type AuthContextCarrier interface {
	PlayFabAuthContext() *AuthContext
}
