package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Summary      SummaryConfig
	Pagination   PaginationConfig
	Scheduler    SchedulerConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"BAKELINE_APP_ENV" required:"true"`
	Port         string   `envconfig:"BAKELINE_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"BAKELINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"BAKELINE_LOG_WARN_STACK" default:"false"`
	Timezone     string   `envconfig:"BAKELINE_APP_TIMEZONE" default:"UTC"`
	CORSOrigins  []string `envconfig:"BAKELINE_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the bakery's business timezone, used to decide which calendar day
// "today" is when a ledger entry omits its date.
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvTimezone, name, err)
	}
	return loc, nil
}

type DBConfig struct {
	DSN    string `envconfig:"BAKELINE_DB_DSN"`
	Driver string `envconfig:"BAKELINE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BAKELINE_DB_HOST"`
	LegacyPort     int    `envconfig:"BAKELINE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BAKELINE_DB_USER"`
	LegacyPassword string `envconfig:"BAKELINE_DB_PASSWORD"`
	LegacyName     string `envconfig:"BAKELINE_DB_NAME"`
	LegacySSLMode  string `envconfig:"BAKELINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BAKELINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BAKELINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BAKELINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAKELINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded SQLite engine.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"BAKELINE_REDIS_URL"`
	Address      string        `envconfig:"BAKELINE_REDIS_ADDR"`
	Password     string        `envconfig:"BAKELINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BAKELINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BAKELINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BAKELINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BAKELINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BAKELINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BAKELINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate  bool `envconfig:"BAKELINE_AUTO_MIGRATE" default:"false"`
	SummaryCache bool `envconfig:"BAKELINE_SUMMARY_CACHE" default:"true"`
	Idempotency  bool `envconfig:"BAKELINE_IDEMPOTENCY" default:"true"`
}

type SummaryConfig struct {
	CacheTTL time.Duration `envconfig:"BAKELINE_SUMMARY_CACHE_TTL" default:"24h"`
}

type PaginationConfig struct {
	DefaultLimit int `envconfig:"BAKELINE_PAGE_DEFAULT_LIMIT" default:"25"`
	MaxLimit     int `envconfig:"BAKELINE_PAGE_MAX_LIMIT" default:"100"`
}

// SchedulerConfig drives cmd/cron-worker. ScoringLookback is the number of closed days rescanned
// for pending forecasts on every cycle.
type SchedulerConfig struct {
	Interval        time.Duration `envconfig:"BAKELINE_SCHEDULER_INTERVAL" default:"1h"`
	LockTTL         time.Duration `envconfig:"BAKELINE_SCHEDULER_LOCK_TTL" default:"55m"`
	ScoringLookback int           `envconfig:"BAKELINE_SCHEDULER_SCORING_LOOKBACK" default:"3"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvDBDriver, DriverSQLite)
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
