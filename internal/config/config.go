// momo-gateway/internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the façade, the gRPC server and the status worker read from env.
type Config struct {
	// MoMo credentials and endpoints
	AccessKey   string
	SecretKey   string
	Endpoint    string
	PartnerCode string
	RedirectURL string
	IPNURL      string
	PaymentCode string

	// outbound call policy
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string

	DatabaseURL string

	KafkaBrokers    []string
	KafkaTopic      string
	KafkaResTopic   string
	StatusPollDelay time.Duration

	WarmupAmount int64
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env: %v", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() *Config {
	host := getenv("MOMO_HOSTNAME", "")
	endpoint := getenv("MOMO_ENDPOINT", "")
	if endpoint == "" && host != "" {
		endpoint = "https://" + host
	}

	addr := getenv("HTTP_ADDR", "")
	if addr == "" {
		addr = ":" + getenv("PORT", "3000")
	}

	var brokers []string
	if b := getenv("KAFKA_BROKERS", ""); b != "" {
		for _, s := range strings.Split(b, ",") {
			if s = strings.TrimSpace(s); s != "" {
				brokers = append(brokers, s)
			}
		}
	}

	return &Config{
		AccessKey:   getenv("MOMO_ACCESS_KEY", ""),
		SecretKey:   getenv("MOMO_SECRET_KEY", ""),
		Endpoint:    strings.TrimRight(endpoint, "/"),
		PartnerCode: getenv("MOMO_PARTNER_CODE", "MOMO"),
		RedirectURL: getenv("REDIRECT_URL", ""),
		IPNURL:      getenv("IPN_URL", ""),
		PaymentCode: getenv("PAYMENT_CODE", ""),

		Timeout:        getduration("MOMO_TIMEOUT", 30*time.Second),
		MaxRetries:     getint("MOMO_MAX_RETRIES", 2),
		RetryBaseDelay: getduration("MOMO_RETRY_BASE_DELAY", 200*time.Millisecond),
		RetryMaxDelay:  getduration("MOMO_RETRY_MAX_DELAY", 2*time.Second),

		HTTPAddr:    addr,
		GRPCAddr:    getenv("GRPC_ADDR", ":9091"),
		MetricsAddr: getenv("METRICS_ADDR", ":9101"),

		DatabaseURL: getenv("DATABASE_URL", ""),

		KafkaBrokers:    brokers,
		KafkaTopic:      getenv("KAFKA_TOPIC", "momo.payments"),
		KafkaResTopic:   getenv("KAFKA_RES_TOPIC", "momo.payments.status"),
		StatusPollDelay: getduration("STATUS_POLL_DELAY", 10*time.Second),

		WarmupAmount: int64(getint("MOMO_WARMUP_AMOUNT", 0)),
	}
}

// Validate reports every missing required variable at once.
func (c *Config) Validate() error {
	var missing []string
	if c.AccessKey == "" {
		missing = append(missing, "MOMO_ACCESS_KEY")
	}
	if c.SecretKey == "" {
		missing = append(missing, "MOMO_SECRET_KEY")
	}
	if c.Endpoint == "" {
		missing = append(missing, "MOMO_HOSTNAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env: %s", strings.Join(missing, ", "))
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MOMO_MAX_RETRIES must be >= 0, got %d", c.MaxRetries)
	}
	return nil
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[config] %s=%q is not an integer, using %d", k, v, d)
	}
	return d
}

func getduration(k string, d time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			return dur
		}
		log.Printf("[config] %s=%q is not a duration, using %s", k, v, d)
	}
	return d
}
