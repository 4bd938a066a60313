package config

import (
	"fmt"
	"sync"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Server struct {
		Env      string `envconfig:"ENV"`
		LogLevel string `envconfig:"LOG_LEVEL"`
		Shutdown struct {
			CleanupPeriodSeconds int64 `envconfig:"CLEANUP_PERIOD_SECONDS"`
			GracePeriodSeconds   int64 `envconfig:"GRACE_PERIOD_SECONDS"`
		} `envconfig:"SHUTDOWN"`
	} `envconfig:"SERVER"`

	App struct {
		Name     string `envconfig:"APP_NAME" default:"tripcore"`
		Timezone string `envconfig:"TIMEZONE"`
	} `envconfig:"APP"`

	Cache struct {
		Redis struct {
			Primary struct {
				Host     string `envconfig:"HOST"`
				Port     string `envconfig:"PORT"`
				Password string `envconfig:"PASSWORD"`
				DB       int    `envconfig:"DB"`
			} `envconfig:"PRIMARY"`
		} `envconfig:"REDIS"`
		TTL int `envconfig:"TTL" default:"60"`
	} `envconfig:"CACHE"`

	DB struct {
		Postgres struct {
			MaxRetry      int    `envconfig:"MAX_RETRY" default:"3"`
			RetryWaitTime int    `envconfig:"RETRY_WAIT_TIME" default:"5"`
			Prefix        string `envconfig:"PREFIX"`
			Read          struct {
				Host     string `envconfig:"HOST"`
				Port     string `envconfig:"PORT"`
				Username string `envconfig:"USER"`
				Password string `envconfig:"PASSWORD"`
				Name     string `envconfig:"NAME"`
				SSLMode  string `envconfig:"SSL_MODE"`
			} `envconfig:"READ"`
			Write struct {
				Host     string `envconfig:"HOST"`
				Port     string `envconfig:"PORT"`
				Username string `envconfig:"USER"`
				Password string `envconfig:"PASSWORD"`
				Name     string `envconfig:"NAME"`
				SSLMode  string `envconfig:"SSL_MODE"`
			} `envconfig:"WRITE"`
		} `envconfig:"POSTGRES"`
	} `envconfig:"DB"`

	Kafka struct {
		Brokers       []string `envconfig:"BROKERS"`
		ConsumerGroup string   `envconfig:"CONSUMER_GROUP"`
		SASL          struct {
			Username string `envconfig:"USERNAME"`
			Password string `envconfig:"PASSWORD"`
		} `envconfig:"SASL"`
		Topics struct {
			BookingEvents string `envconfig:"BOOKING_EVENTS" default:"booking-events"`
		} `envconfig:"TOPICS"`
	} `envconfig:"KAFKA"`

	Booking struct {
		HoldTTLSeconds          int     `envconfig:"HOLD_TTL_SECONDS" default:"900"`
		CancellationCutoffHours int     `envconfig:"CANCELLATION_CUTOFF_HOURS" default:"24"`
		SweepIntervalSeconds    int     `envconfig:"SWEEP_INTERVAL_SECONDS" default:"60"`
		SweepGraceSeconds       int     `envconfig:"SWEEP_GRACE_SECONDS" default:"60"`
		TaxRatePercent          float64 `envconfig:"TAX_RATE_PERCENT" default:"9"`
		ServiceFee              float64 `envconfig:"SERVICE_FEE" default:"2.50"`
		Currency                string  `envconfig:"CURRENCY" default:"EUR"`
	} `envconfig:"BOOKING"`

	Payment struct {
		Stripe struct {
			SecretKey string `envconfig:"SECRET_KEY"`
		} `envconfig:"STRIPE"`
		ReturnURL string `envconfig:"RETURN_URL"`
	} `envconfig:"PAYMENT"`

	Resilience struct {
		Breaker struct {
			FailureThreshold   int `envconfig:"FAILURE_THRESHOLD" default:"5"`
			SuccessThreshold   int `envconfig:"SUCCESS_THRESHOLD" default:"2"`
			OpenTimeoutSeconds int `envconfig:"OPEN_TIMEOUT_SECONDS" default:"30"`
		} `envconfig:"BREAKER"`
		Retry struct {
			MaxAttempts   int     `envconfig:"MAX_ATTEMPTS" default:"3"`
			BaseDelayMS   int     `envconfig:"BASE_DELAY_MS" default:"1000"`
			MaxDelayMS    int     `envconfig:"MAX_DELAY_MS" default:"30000"`
			BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2"`
		} `envconfig:"RETRY"`
	} `envconfig:"RESILIENCE"`

	External struct {
		Otel struct {
			Endpoint string `envconfig:"ENDPOINT"`
		} `envconfig:"OTEL"`
	}
}

var (
	conf        Config
	once        sync.Once
	initialized bool
)

func Init() error {
	var err error

	once.Do(func() {
		err = godotenv.Load(".env")
		if err != nil {
			log.Warn().Err(err).Msg("Could not load .env file, continuing with existing environment variables")
		} else {
			log.Info().Msg("Successfully loaded variables from .env file into environment")
		}

		err = envconfig.Process("", &conf)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to process environment variables")
		}

		initialized = true

		log.Info().Msg("Service configuration initialized successfully")
	})

	if err != nil {
		return fmt.Errorf("loading .env file: %w", err)
	}

	return nil
}

func Get() *Config {
	if !initialized {
		if err := Init(); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize configuration")
		}
	}

	return &conf
}
