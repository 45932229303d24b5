package config

import (
	"net/http"
	"strings"
	"time"
)

// Session drivers understood by LoadSessionConfig.
const (
	SessionDriverMemory = "memory"
	SessionDriverRedis  = "redis"
)

// SessionConfig is the process-wide session configuration.  Cookie name and
// path are not part of it: both are derived per role at login and passed
// explicitly to the session layer.
type SessionConfig struct {
	Driver   string        // "memory" or "redis"
	Lifetime time.Duration // server-side lifetime and cookie Max-Age
	Domain   string        // cookie Domain attribute, empty for host-only
	Secure   bool          // cookie Secure attribute
	SameSite http.SameSite // cookie SameSite attribute
	Secret   string        // HMAC key signing cookie values
	Prefix   string        // key prefix for the Redis driver
}

// LoadSessionConfig reads SESSION_* variables.  SESSION_LIFETIME accepts a
// duration ("2h") or minutes ("120").
func LoadSessionConfig() SessionConfig {
	cfg := SessionConfig{
		Driver:   strings.ToLower(envStr("SESSION_DRIVER", SessionDriverMemory)),
		Lifetime: envDur("SESSION_LIFETIME", 120*time.Minute),
		Domain:   envStr("SESSION_DOMAIN", ""),
		Secure:   envBool("SESSION_SECURE", true),
		SameSite: parseSameSite(envStr("SESSION_SAME_SITE", "lax")),
		Secret:   must("SESSION_SECRET"),
		Prefix:   envStr("SESSION_PREFIX", "staff_session"),
	}
	if cfg.Driver != SessionDriverRedis {
		cfg.Driver = SessionDriverMemory
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = 120 * time.Minute
	}
	return cfg
}

func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}
