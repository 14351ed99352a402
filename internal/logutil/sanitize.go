// Package logutil provides helpers that keep credentials out of log output.
package logutil

import (
	"net/url"

	"go.uber.org/zap"
)

// RedactURI renders u with any userinfo password masked.
func RedactURI(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.Redacted()
}

// RedactString parses s as a URI and masks its password. Strings that do not
// parse are returned unchanged.
func RedactString(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	return u.Redacted()
}

// URI returns a zap field holding the redacted form of u.
func URI(key string, u *url.URL) zap.Field {
	return zap.String(key, RedactURI(u))
}
