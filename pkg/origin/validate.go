package origin

import (
	"net/netip"
	"strings"
)

// IsValidIP reports whether value is a syntactically valid IPv4 dotted-quad
// (each octet 0-255, no leading zeros) or IPv6 literal (including the "::"
// compression and "::ffff:" embedded-IPv4 forms).
func IsValidIP(value string) bool {
	_, err := netip.ParseAddr(value)
	return err == nil
}

// IsValidDomain reports whether value is a dot-separated sequence of two or
// more valid DNS labels, with no empty label and no scheme or path
// component.
func IsValidDomain(value string) bool {
	if value == "" || strings.HasPrefix(value, ".") || strings.HasSuffix(value, ".") {
		return false
	}

	labels := strings.Split(value, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if !validLabel(l) {
			return false
		}
	}
	return true
}

func validLabel(label string) bool {
	if len(label) == 0 || len(label) > 63 {
		return false
	}
	for i := 0; i < len(label); i++ {
		ch := label[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '-':
			if i == 0 || i == len(label)-1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
