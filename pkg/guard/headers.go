package guard

import (
	"net/http"
	"strings"
)

// DefaultLanguage is returned when a request declares no usable language
// preference.
const DefaultLanguage = "en"

// DeviceInfo renders a compact description of the calling device from
// request headers, for session records and audit logs.
func DeviceInfo(r *http.Request) string {
	ua := r.Header.Get("User-Agent")
	if ua == "" {
		ua = "Unknown"
	}
	al := r.Header.Get("Accept-Language")
	if al == "" {
		al = "Unknown"
	}
	return "User-Agent: " + ua + "; Accept-Language: " + al
}

// AcceptLanguages returns the request's preferred languages reduced to
// primary subtags ("en-US" becomes "en"), in header order. Weight suffixes
// are stripped but never used for sorting. An absent, empty, or wildcard
// header yields the default-language singleton; a wildcard alongside other
// tags is preserved literally.
func AcceptLanguages(r *http.Request) []string {
	raw := r.Header.Get("Accept-Language")
	switch raw {
	case "", "*", "null", "undefined":
		return []string{DefaultLanguage}
	}

	parts := strings.Split(raw, ",")
	langs := make([]string, 0, len(parts))
	for _, p := range parts {
		tag := strings.TrimSpace(p)
		// strip the ;q=... weight
		if i := strings.Index(tag, ";"); i >= 0 {
			tag = tag[:i]
		}
		// reduce to the primary subtag
		if i := strings.Index(tag, "-"); i >= 0 {
			tag = tag[:i]
		}
		if tag == "" {
			continue
		}
		langs = append(langs, tag)
	}

	if len(langs) == 0 {
		return []string{DefaultLanguage}
	}
	return langs
}
