package guard

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func requestWithHeader(name, value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if value != "" {
		r.Header.Set(name, value)
	}
	return r
}

func TestAcceptLanguages(t *testing.T) {
	cases := []struct {
		header string
		want   []string
	}{
		{"en-US,en;q=0.9,fr;q=0.8", []string{"en", "en", "fr"}},
		{"*", []string{DefaultLanguage}},
		{"", []string{DefaultLanguage}},
		{"null", []string{DefaultLanguage}},
		{"undefined", []string{DefaultLanguage}},
		// a wildcard alongside real tags is preserved literally
		{"*,en;q=0.5", []string{"*", "en"}},
		{"pt-BR", []string{"pt"}},
		{"de-DE, de;q=0.7, en;q=0.3", []string{"de", "de", "en"}},
	}
	for _, tc := range cases {
		t.Run(tc.header, func(t *testing.T) {
			got := AcceptLanguages(requestWithHeader("Accept-Language", tc.header))
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("AcceptLanguages(%q) = %v, want %v", tc.header, got, tc.want)
			}
		})
	}
}

func TestDeviceInfo(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("User-Agent", "TestBrowser/1.0")
	r.Header.Set("Accept-Language", "en-US")

	got := DeviceInfo(r)
	want := "User-Agent: TestBrowser/1.0; Accept-Language: en-US"
	if got != want {
		t.Errorf("DeviceInfo = %q, want %q", got, want)
	}

	bare := httptest.NewRequest(http.MethodGet, "/", nil)
	bare.Header.Del("User-Agent")
	got = DeviceInfo(bare)
	want = "User-Agent: Unknown; Accept-Language: Unknown"
	if got != want {
		t.Errorf("DeviceInfo on bare request = %q, want %q", got, want)
	}
}

func TestKeyBuilders(t *testing.T) {
	cases := []struct{ got, want string }{
		{APIKey("profile"), "api:profile"},
		{IPKey("1.2.3.4"), "ip:1.2.3.4"},
		{UserKey("u1"), "user:u1"},
		{SocketIPKey("1.2.3.4"), "socket-ip:1.2.3.4"},
		{SocketUserKey("s1", "u1"), "socket-user:s1:u1"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("Key = %q, want %q", tc.got, tc.want)
		}
	}
}
