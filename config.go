package portal

import (
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
)

// Config carries everything the portal needs from the environment.
type Config struct {
	AccessTokenSecret  string        `env:"JWT_ACCESS_SECRET"`
	RefreshTokenSecret string        `env:"JWT_REFRESH_SECRET"`
	AccessTokenTTL     time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	RefreshTokenTTL    time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`
	TokenIssuer        string        `env:"TOKEN_ISSUER" envDefault:"portal"`

	StateEncryptionKey string `env:"STATE_ENCRYPTION_KEY"`
	StateSigningKey    string `env:"STATE_SIGNING_KEY"`

	FrontendURL    string        `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	CorrelationTTL time.Duration `env:"LOGIN_CORRELATION_TTL" envDefault:"5m"`
	InviteTTL      time.Duration `env:"INVITE_TTL" envDefault:"168h"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL"`

	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"file::memory:?cache=shared"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to parse environment")
	}
	return cfg, nil
}

// Validate checks the settings a running portal depends on. Provider
// credentials are allowed to be absent: the portal runs with provider login
// disabled until they show up.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AccessTokenSecret, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.RefreshTokenSecret, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.StateEncryptionKey, validation.Required, validation.Length(16, 32)),
		validation.Field(&c.StateSigningKey, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.FrontendURL, validation.Required, is.URL),
	)
}

// GoogleEnabled reports whether the Google provider is fully configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleCallbackURL != ""
}
