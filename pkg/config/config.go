package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "BEAKLING_DB_DSN"
	EnvDBHost = "BEAKLING_DB_HOST"
	EnvDBUser = "BEAKLING_DB_USER"
	EnvDBName = "BEAKLING_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Checkout     CheckoutConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BEAKLING_APP_ENV" required:"true"`
	Port         string `envconfig:"BEAKLING_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BEAKLING_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BEAKLING_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BEAKLING_DB_DSN"`
	Driver string `envconfig:"BEAKLING_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BEAKLING_DB_HOST"`
	LegacyPort     int    `envconfig:"BEAKLING_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BEAKLING_DB_USER"`
	LegacyPassword string `envconfig:"BEAKLING_DB_PASSWORD"`
	LegacyName     string `envconfig:"BEAKLING_DB_NAME"`
	LegacySSLMode  string `envconfig:"BEAKLING_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BEAKLING_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BEAKLING_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BEAKLING_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BEAKLING_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BEAKLING_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BEAKLING_REDIS_ADDR"`
	Password     string        `envconfig:"BEAKLING_REDIS_PASSWORD"`
	DB           int           `envconfig:"BEAKLING_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BEAKLING_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BEAKLING_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BEAKLING_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BEAKLING_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BEAKLING_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"BEAKLING_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"BEAKLING_JWT_ISSUER" required:"true"`
}

// CheckoutConfig carries the marketplace pricing knobs.
type CheckoutConfig struct {
	TaxRate         string `envconfig:"BEAKLING_CHECKOUT_TAX_RATE" default:"0.08"`
	PlatformFeeRate string `envconfig:"BEAKLING_CHECKOUT_PLATFORM_FEE_RATE" default:"0.05"`
}

func (c CheckoutConfig) validate() error {
	if _, err := c.TaxRateDecimal(); err != nil {
		return err
	}
	_, err := c.PlatformFeeRateDecimal()
	return err
}

// TaxRateDecimal parses the configured tax rate.
func (c CheckoutConfig) TaxRateDecimal() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid BEAKLING_CHECKOUT_TAX_RATE %q: %w", c.TaxRate, err)
	}
	return rate, nil
}

// PlatformFeeRateDecimal parses the configured platform fee rate.
func (c CheckoutConfig) PlatformFeeRateDecimal() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.PlatformFeeRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid BEAKLING_CHECKOUT_PLATFORM_FEE_RATE %q: %w", c.PlatformFeeRate, err)
	}
	return rate, nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BEAKLING_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
