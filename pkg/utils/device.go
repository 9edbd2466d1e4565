package utils

import (
	"strings"

	"github.com/mssola/user_agent"
)

// DeviceTypeFromUserAgent normalizes a User-Agent header into the device_type
// enumeration used across the event tables: iOS, Android, Web or unknown.
func DeviceTypeFromUserAgent(uaString string) string {
	if uaString == "" {
		return "unknown"
	}

	ua := user_agent.New(uaString)
	os := strings.ToLower(ua.OSInfo().Name)

	switch {
	case strings.Contains(os, "ios") || strings.Contains(os, "iphone") || strings.Contains(os, "ipad"):
		return "iOS"
	case strings.Contains(os, "android"):
		return "Android"
	case ua.Bot():
		return "unknown"
	default:
		return "Web"
	}
}
