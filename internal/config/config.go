// Package config assembles the server configuration from defaults, an
// optional YAML file, the environment and command-line flags, in that order
// of increasing precedence.
package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"
	// Scheduler time zones resolve without a system zoneinfo database.
	_ "time/tzdata"

	"github.com/joho/godotenv"
	yaml "go.yaml.in/yaml/v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TOIR_"

// Config is the server configuration.
type Config struct {
	DB        string          `yaml:"db"`
	Addr      string          `yaml:"addr"`
	AdminUser string          `yaml:"admin_user"`
	LogPath   string          `yaml:"log"`
	JWTSecret string          `yaml:"jwt_secret"`
	JWTTTL    time.Duration   `yaml:"jwt_ttl"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Login     LoginConfig     `yaml:"login"`
}

// SchedulerConfig controls automatic work order creation.
type SchedulerConfig struct {
	// Spec is a cron expression or descriptor. Empty disables the cron loop.
	Spec     string        `yaml:"spec"`
	Timezone string        `yaml:"timezone"`
	Horizon  time.Duration `yaml:"horizon"`
}

// LoginConfig limits login attempts per client address.
type LoginConfig struct {
	RatePerMinute float64 `yaml:"rate_per_minute"`
	Burst         int     `yaml:"burst"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DB:        "toir.sqlite3",
		Addr:      ":8080",
		AdminUser: "admin",
		JWTTTL:    12 * time.Hour,
		Scheduler: SchedulerConfig{
			Timezone: "UTC",
			Horizon:  24 * time.Hour,
		},
		Login: LoginConfig{
			RatePerMinute: 10,
			Burst:         5,
		},
	}
}

// Location resolves the scheduler time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler timezone: %w", err)
	}
	return loc, nil
}

// Validate checks values that cannot be corrected silently.
func (c *Config) Validate() error {
	if c.DB == "" {
		return errors.New("db path must not be empty")
	}
	if c.Addr == "" {
		return errors.New("listen address must not be empty")
	}
	if c.AdminUser == "" {
		return errors.New("admin username must not be empty")
	}
	if c.JWTTTL <= 0 {
		return errors.New("jwt_ttl must be positive")
	}
	if c.Scheduler.Horizon < 0 {
		return errors.New("scheduler horizon must not be negative")
	}
	if c.Login.RatePerMinute <= 0 || c.Login.Burst <= 0 {
		return errors.New("login rate and burst must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

const usage = `Usage: toir [flags]

Flags:
  -c, -config <path>      YAML configuration file (env: TOIR_CONFIG)
  -d, -db <path>          SQLite database path (default: toir.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username on first run (default: admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -s, -schedule <spec>    cron spec for automatic work orders, e.g. @hourly
  -h, -help               show this help and exit

Every setting can also be given as a TOIR_* environment variable or in a
.env file in the working directory.
`

type flagValues struct {
	config, db, addr, user, log, schedule string
}

// Load builds the configuration for the given command-line arguments
// (without the program name). It returns flag.ErrHelp when help was
// requested.
func Load(args []string, out io.Writer) (*Config, error) {
	var fv flagValues
	fset := flag.NewFlagSet("toir", flag.ContinueOnError)
	fset.SetOutput(out)
	fset.Usage = func() { fmt.Fprint(out, usage) }
	for _, name := range []string{"config", "c"} {
		fset.StringVar(&fv.config, name, "", "")
	}
	for _, name := range []string{"db", "d"} {
		fset.StringVar(&fv.db, name, "", "")
	}
	for _, name := range []string{"addr", "a"} {
		fset.StringVar(&fv.addr, name, "", "")
	}
	for _, name := range []string{"user", "u"} {
		fset.StringVar(&fv.user, name, "", "")
	}
	for _, name := range []string{"log", "l"} {
		fset.StringVar(&fv.log, name, "", "")
	}
	for _, name := range []string{"schedule", "s"} {
		fset.StringVar(&fv.schedule, name, "", "")
	}

	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	if fset.NArg() > 0 {
		fset.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fset.Arg(0))
	}

	// Variables already in the environment win over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()

	path := fv.config
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db", "d":
			cfg.DB = fv.db
		case "addr", "a":
			cfg.Addr = fv.addr
		case "user", "u":
			cfg.AdminUser = fv.user
		case "log", "l":
			cfg.LogPath = fv.log
		case "schedule", "s":
			cfg.Scheduler.Spec = fv.schedule
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	str("DB", &c.DB)
	str("ADDR", &c.Addr)
	str("ADMIN_USER", &c.AdminUser)
	str("LOG", &c.LogPath)
	str("JWT_SECRET", &c.JWTSecret)
	str("SCHEDULER_SPEC", &c.Scheduler.Spec)
	str("SCHEDULER_TIMEZONE", &c.Scheduler.Timezone)

	durations := map[string]*time.Duration{
		"JWT_TTL":           &c.JWTTTL,
		"SCHEDULER_HORIZON": &c.Scheduler.Horizon,
	}
	for key, dst := range durations {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = d
	}

	if v, ok := os.LookupEnv(EnvPrefix + "LOGIN_RATE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sLOGIN_RATE: %w", EnvPrefix, err)
		}
		c.Login.RatePerMinute = f
	}
	if v, ok := os.LookupEnv(EnvPrefix + "LOGIN_BURST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sLOGIN_BURST: %w", EnvPrefix, err)
		}
		c.Login.Burst = n
	}
	return nil
}
