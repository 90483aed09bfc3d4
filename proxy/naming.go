package proxy

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

const timestampLayout = "2006-01-02T15_04_05"

// lineSeparator joins lines inside headers files.
var lineSeparator = func() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}()

// FormatTimestamp renders t as 2006-01-02T15_04_05_000. Milliseconds are
// always three digits so names sort lexically.
func FormatTimestamp(t time.Time) string {
	return fmt.Sprintf("%s_%03d", t.Format(timestampLayout), t.Nanosecond()/int(time.Millisecond))
}

// SanitizeURI replaces every rune outside ASCII [A-Za-z0-9._-] with '_'.
func SanitizeURI(uri string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-':
			return r
		}
		return '_'
	}, uri)
}

// RequestKey is the file name prefix shared by a transaction's request files.
// Identical requests within the same millisecond share a key and overwrite
// each other's files.
func RequestKey(ts time.Time, method Method, uri string) string {
	return FormatTimestamp(ts) + "--" + method.String() + "--" + SanitizeURI(uri)
}

// ResponseKey is RequestKey with the upstream status appended.
func ResponseKey(ts time.Time, method Method, uri string, status int) string {
	return fmt.Sprintf("%s--%d", RequestKey(ts, method, uri), status)
}
