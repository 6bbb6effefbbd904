package config

import (
	"errors"
	"log"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Env  string `env:"APP_ENV,default=production"`
	Port string `env:"PORT,default=8080"`

	DBDriver    string `env:"DB_DRIVER,default=postgres"`
	DatabaseURL string `env:"DATABASE_URL,default=host=localhost user=postgres password=postgres dbname=quill port=5432 sslmode=disable"`

	SecretKey          string `env:"SECRET_KEY,default=change-me"`
	AccessTokenMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES,default=30"`
	ResetTokenHours    int    `env:"EMAIL_RESET_TOKEN_EXPIRE_HOURS,default=5"`
	FirstSuperuser     string `env:"FIRST_SUPERUSER,default=admin@example.com"`
	FirstSuperuserPass string `env:"FIRST_SUPERUSER_PASSWORD,default=changeme"`
	OpenRegistration   bool   `env:"USERS_OPEN_REGISTRATION,default=true"`
	LoginRatePerMinute int    `env:"LOGIN_RATE_PER_MINUTE,default=10"`
	ServerHost         string `env:"SERVER_HOST,default=http://127.0.0.1:8080"`
	MediaPath          string `env:"MEDIA_PATH,default=media/user_image"`
	NewsletterSchedule string `env:"NEWSLETTER_SCHEDULE,default=0 8 * * 1"`
	QueueBackend       string `env:"QUEUE_BACKEND,default=memory"`
	RedisURL           string `env:"REDIS_URL,default=redis://localhost:6379/0"`

	SMTP SMTP
}

// SMTP is disabled unless host, port and sender are all present.
type SMTP struct {
	Host     string `env:"SMTP_HOST"`
	Port     string `env:"SMTP_PORT"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"EMAILS_FROM_EMAIL"`
	FromName string `env:"EMAILS_FROM_NAME,default=Quill"`
}

func (s SMTP) Enabled() bool {
	return s.Host != "" && s.Port != "" && s.From != ""
}

// Load reads .env (if present) and decodes the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading config from environment")
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

func (c *Config) ResetTokenTTL() time.Duration {
	return time.Duration(c.ResetTokenHours) * time.Hour
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
