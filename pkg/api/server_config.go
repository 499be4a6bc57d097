package api

import (
	"time"

	"github.com/graphlapse/graphlapse/pkg/validation"
)

// Config holds the HTTP surface configuration.
type Config struct {
	ListenAddr   string `yaml:"listen_addr"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`

	// Rate limiting, applied per client address.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`

	// CORS. Empty means cross-origin requests are refused.
	AllowedOrigins []string `yaml:"allowed_origins"`

	TLSEnabled  bool   `yaml:"tls_enabled"`
	TLSCertFile string `yaml:"tls_cert_file"`
	TLSKeyFile  string `yaml:"tls_key_file"`

	// Authentication. When disabled every endpoint is open; intended only
	// for deployments behind a trusted gateway.
	AuthEnabled     bool          `yaml:"auth_enabled"`
	JWTSecret       string        `yaml:"jwt_secret"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:        ":8090",
		MaxBodyBytes:      32 << 20, // a 100k-node frame with adjacency fits well inside this
		RequestsPerSecond: 50,
		BurstSize:         100,
		TokenTTL:          time.Hour,
		RefreshTokenTTL:   7 * 24 * time.Hour,
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	return validation.NewConfigValidator("api").
		Required("listen_addr", c.ListenAddr).
		Custom("max_body_bytes", func() error {
			if c.MaxBodyBytes <= 0 {
				return errPositiveBody
			}
			return nil
		}).
		When(c.RequestsPerSecond > 0, func(cv *validation.ConfigValidator) {
			cv.RangeInt("burst_size", c.BurstSize, 1, 100000)
		}).
		When(c.TLSEnabled, func(cv *validation.ConfigValidator) {
			cv.Required("tls_cert_file", c.TLSCertFile)
			cv.Required("tls_key_file", c.TLSKeyFile)
		}).
		When(c.AuthEnabled, func(cv *validation.ConfigValidator) {
			cv.Custom("jwt_secret", func() error {
				if len(c.JWTSecret) < 32 {
					return errShortSecret
				}
				return nil
			})
			cv.MinDuration("token_ttl", c.TokenTTL, time.Minute)
			cv.MinDuration("refresh_token_ttl", c.RefreshTokenTTL, time.Minute)
		}).
		Validate()
}
