package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"sort"    // sort keeps the missing-variable report stable
	"strconv" // strconv converts strings to other types
	"strings"
)

// DefaultSiteURL is used to build profile links in outgoing emails when
// SITE_URL is not set.
const DefaultSiteURL = "https://www.stagelink.show"

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Optional integrations (email, broker, webhook
// secret) are represented by empty strings when they are not configured.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	ResendAPIKey  string // email provider key; empty disables delivery
	ResendAPIURL  string // email provider base URL
	EmailFrom     string // From header for outgoing mail
	SiteURL       string // public site base URL used in links
	WebhookSecret string // PayMongo webhook signing secret
	PaymongoKey   string // PayMongo secret API key; empty disables ticket recovery on claim
	PaymongoURL   string // PayMongo API base URL
	AMQPURL       string // RabbitMQ URL; empty runs payment processing in-process
}

// requiredKeys lists the variables without which the server cannot start.
var requiredKeys = []string{"APP_ENV", "APP_PORT", "DB_USER", "DB_HOST", "DB_PORT", "DB_NAME", "JWT_SECRET"}

// Load reads configuration values from environment variables and returns a
// Config.  Every missing required variable is reported in a single fatal
// log line so operators can fix the environment in one pass.
func Load() Config {
	if missing := MissingRequired(); len(missing) > 0 {
		log.Fatalf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return Config{
		Env:            os.Getenv("APP_ENV"),
		Port:           os.Getenv("APP_PORT"),
		DBUser:         os.Getenv("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         os.Getenv("DB_HOST"),
		DBPort:         os.Getenv("DB_PORT"),
		DBName:         os.Getenv("DB_NAME"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS", 30),
		BcryptCost:     mustInt("BCRYPT_COST", 12),
		ResendAPIKey:   os.Getenv("RESEND_API_KEY"),
		ResendAPIURL:   envStr("RESEND_API_URL", "https://api.resend.com"),
		EmailFrom:      envStr("EMAIL_FROM", "StageLink <hello@stagelink.show>"),
		SiteURL:        strings.TrimRight(envStr("SITE_URL", DefaultSiteURL), "/"),
		WebhookSecret:  os.Getenv("PAYMONGO_WEBHOOK_SECRET"),
		PaymongoKey:    os.Getenv("PAYMONGO_SECRET_KEY"),
		PaymongoURL:    envStr("PAYMONGO_API_URL", "https://api.paymongo.com"),
		AMQPURL:        AMQPURL(),
	}
}

// IsProduction reports whether debug details must be hidden from clients.
func (c Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

// MissingRequired returns the sorted names of required variables that are
// unset or empty.
func MissingRequired() []string {
	var missing []string
	for _, k := range requiredKeys {
		if v, ok := os.LookupEnv(k); !ok || v == "" {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return missing
}

// AMQPURL returns the broker URL from RABBITMQ_URL or AMQP_URL.  There is
// no localhost default: no URL means payment processing runs in-process.
func AMQPURL() string {
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		return url
	}
	return os.Getenv("AMQP_URL")
}

// mustInt reads an optional integer variable.  An unset variable yields the
// default; a malformed one is fatal.
func mustInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
