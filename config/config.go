// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"development"`
	Port   int    `env:"PORT" envDefault:"5000"`

	DatabaseDSN string `env:"DATABASE_DSN" envDefault:"file:invoica.db?cache=shared&_fk=1"`

	JWTSecret            string `env:"JWT_SECRET,required,notEmpty"`
	TokenExpirationHours int    `env:"TOKEN_EXPIRATION_HOURS" envDefault:"1"`
	ArtifactExpiration   int    `env:"ARTIFACT_EXPIRATION_HOURS" envDefault:"1"`
	TokenIssuer          string `env:"TOKEN_ISSUER" envDefault:"invoica"`
	AuthScheme           string `env:"AUTH_SCHEME" envDefault:"Bearer"`
	ContextKey           string `env:"AUTH_CONTEXT_KEY" envDefault:"user"`

	SMTPAddr      string `env:"SMTP_ADDR"`
	EmailSender   string `env:"EMAIL"`
	EmailPassword string `env:"EMAIL_PASSWORD"`
	WebAppLink    string `env:"WEB_APP_LINK" envDefault:"http://localhost:3000"`
}

// Load reads the optional .env file, then parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv != "production"
}

func (c *Config) GetSigningKey() string      { return c.JWTSecret }
func (c *Config) GetContextKey() string      { return c.ContextKey }
func (c *Config) GetTokenExpiration() int    { return c.TokenExpirationHours }
func (c *Config) GetArtifactExpiration() int { return c.ArtifactExpiration }
func (c *Config) GetAuthScheme() string      { return c.AuthScheme }
func (c *Config) GetIssuer() string          { return c.TokenIssuer }

func (c *Config) GetSMTPAddr() string      { return c.SMTPAddr }
func (c *Config) GetEmailSender() string   { return c.EmailSender }
func (c *Config) GetEmailPassword() string { return c.EmailPassword }
func (c *Config) GetWebAppLink() string    { return c.WebAppLink }
