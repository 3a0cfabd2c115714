// Package device turns raw user-agent strings into the human-readable
// device descriptions recorded on security audit events at login.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent derives a display name like "Chrome on Mac OS X" from a raw
// user-agent string. Unknown agents still produce a stable, non-empty name.
func ParseUserAgent(rawUA string) string {
	if strings.TrimSpace(rawUA) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(rawUA)

	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}

	platform := ua.OSInfo().Name
	if platform == "" {
		platform = ua.Platform()
	}
	if platform == "" {
		platform = "Unknown OS"
	}

	return strings.TrimSpace(browser + " on " + platform)
}
