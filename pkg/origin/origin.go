// Package origin decides whether a request's declared origin may be trusted
// to carry cookie-based session credentials, based on deployment
// configuration read once per process.
package origin

import (
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
)

// Config is the deployment configuration the classifier derives its
// allow-set from.
type Config struct {
	// Production gates the check entirely: non-production processes accept
	// every origin as a development convenience.
	Production bool
	// SiteIP is the deployment's public IP.
	SiteIP string
	// Port is the serving port; hosts are allowed both with and without it.
	Port string
	// LocalDeployment is true when the reverse proxy is co-located, which
	// additionally allows localhost and private addresses.
	LocalDeployment bool
	// VirtualHosts is a comma-separated hostname list.
	VirtualHosts string
}

// ConfigFromEnv reads the classifier configuration from the environment.
func ConfigFromEnv() Config {
	return Config{
		Production:      os.Getenv("NODE_ENV") == "production",
		SiteIP:          os.Getenv("SITE_IP"),
		Port:            os.Getenv("PORT"),
		LocalDeployment: os.Getenv("VITE_SERVER_LOCATION") == "local",
		VirtualHosts:    os.Getenv("VIRTUAL_HOST"),
	}
}

// Classifier owns the memoized set of safe origins. The set is built
// lazily on first use and can be rebuilt with Reset. Recomputing an
// already-cached set is idempotent, so concurrent first uses are harmless.
type Classifier struct {
	cfg Config

	mu      sync.Mutex
	allowed map[string]struct{}
}

func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// IsSafeOrigin reports whether the request's Origin header (falling back to
// Referer) names an origin trusted for cookie-based authentication. With
// neither header present the request is not safe. Host comparison is
// case-insensitive and exact: no wildcard or suffix matching.
func (c *Classifier) IsSafeOrigin(r *http.Request) bool {
	if !c.cfg.Production {
		return true
	}

	ref := r.Header.Get("Origin")
	if ref == "" {
		ref = r.Header.Get("Referer")
	}
	if ref == "" {
		return false
	}

	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	key := strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
	_, ok := c.allowSet()[key]
	return ok
}

// Reset clears the memoized allow-set so the next check recomputes it from
// the current configuration. Needed for tests that mutate configuration
// mid-run and for live configuration reload.
func (c *Classifier) Reset() {
	c.mu.Lock()
	c.allowed = nil
	c.mu.Unlock()
}

// SetConfig replaces the configuration and drops the memoized set.
func (c *Classifier) SetConfig(cfg Config) {
	c.mu.Lock()
	c.cfg = cfg
	c.allowed = nil
	c.mu.Unlock()
}

func (c *Classifier) allowSet() map[string]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.allowed != nil {
		return c.allowed
	}

	set := make(map[string]struct{})
	add := func(host string) {
		host = strings.ToLower(host)
		set["http://"+host] = struct{}{}
		set["https://"+host] = struct{}{}
	}
	addWithPort := func(host string) {
		add(host)
		if c.cfg.Port != "" {
			add(host + ":" + c.cfg.Port)
		}
	}

	if c.cfg.SiteIP != "" {
		addWithPort(c.cfg.SiteIP)
	}

	for _, h := range strings.Split(c.cfg.VirtualHosts, ",") {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		add(h)
		if !strings.HasPrefix(h, "www.") {
			add("www." + h)
		}
	}

	if c.cfg.LocalDeployment {
		addWithPort("localhost")
		addWithPort("192.168.0.1")
	}

	c.allowed = set
	return set
}
