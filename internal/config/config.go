// Package config provides application configuration structures and helpers.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/PalMeany/l7-dstat/internal/client"
	"github.com/PalMeany/l7-dstat/internal/monitor"
	"github.com/PalMeany/l7-dstat/internal/rps"
)

// Config holds the dashboard settings.
type Config struct {
	Addr          string        // HTTP listen address
	StatusURL     string        // stub_status page, or another instance's /api/nginx-status
	PollInterval  time.Duration // Delay between the end of a poll and the next one
	PruneInterval time.Duration // Stats window maintenance period
	FetchTimeout  time.Duration // Timeout of a single poll
	Window        time.Duration // Stats window length
	BufferSize    int           // Display buffer length
	LogLevel      string        // zap level name
	Logger        *zap.SugaredLogger
}

func defaults() *Config {
	return &Config{
		Addr:          "localhost:8080",
		StatusURL:     "http://localhost/nginx_status",
		PollInterval:  monitor.TickInterval,
		PruneInterval: monitor.PruneInterval,
		FetchTimeout:  client.FetchTimeout,
		Window:        rps.Window,
		BufferSize:    rps.BufferSize,
		LogLevel:      "info",
	}
}

// NewConfig builds the configuration from command line flags, the optional
// config file and environment variables, in increasing priority, then builds the logger.
func NewConfig() (*Config, error) {
	cfg, err := parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		return nil, err
	}

	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	cfg.Logger = logger
	return cfg, nil
}

func parse(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := defaults()

	var fAddr, fURL, fLevel, fConf strFlag
	var fPoll, fPrune, fTO, fWindow durFlag
	var fBuf intFlag
	fs.Var(&fAddr, "a", "HTTP listen address")
	fs.Var(&fURL, "u", "status page URL")
	fs.Var(&fPoll, "p", "poll interval (duration)")
	fs.Var(&fPrune, "prune", "stats window prune interval (duration)")
	fs.Var(&fTO, "t", "poll timeout (duration)")
	fs.Var(&fWindow, "w", "stats window (duration)")
	fs.Var(&fBuf, "n", "display buffer size")
	fs.Var(&fLevel, "log-level", "log level")
	fs.Var(&fConf, "c", "Path to JSON or YAML config file")
	fs.Var(&fConf, "config", "Path to JSON or YAML config file (alias)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fConf.v == "" {
		if v := os.Getenv("CONFIG"); v != "" {
			fConf.v = v
		}
	}
	if fConf.v != "" {
		fc, err := loadFile(fConf.v)
		if err != nil {
			return nil, fmt.Errorf("load config file %s: %w", fConf.v, err)
		}
		if err := fc.apply(cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", fConf.v, err)
		}
	}

	if fAddr.set {
		cfg.Addr = fAddr.v
	}
	if fURL.set {
		cfg.StatusURL = fURL.v
	}
	if fPoll.set {
		cfg.PollInterval = fPoll.v
	}
	if fPrune.set {
		cfg.PruneInterval = fPrune.v
	}
	if fTO.set {
		cfg.FetchTimeout = fTO.v
	}
	if fWindow.set {
		cfg.Window = fWindow.v
	}
	if fBuf.set {
		cfg.BufferSize = fBuf.v
	}
	if fLevel.set {
		cfg.LogLevel = fLevel.v
	}

	readEnvironment(cfg)

	// normalize address
	if !strings.HasPrefix(cfg.StatusURL, "http://") && !strings.HasPrefix(cfg.StatusURL, "https://") {
		cfg.StatusURL = "http://" + cfg.StatusURL
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readEnvironment(cfg *Config) {
	if addr := os.Getenv("ADDRESS"); addr != "" {
		cfg.Addr = addr
	}

	if u := os.Getenv("NGINX_STATUS_URL"); u != "" {
		cfg.StatusURL = u
	}

	readDurationEnv("POLL_INTERVAL", &cfg.PollInterval)
	readDurationEnv("PRUNE_INTERVAL", &cfg.PruneInterval)
	readDurationEnv("FETCH_TIMEOUT", &cfg.FetchTimeout)
	readDurationEnv("WINDOW", &cfg.Window)

	if bufEnv := os.Getenv("BUFFER_SIZE"); bufEnv != "" {
		v, err := strconv.Atoi(bufEnv)
		if err == nil {
			cfg.BufferSize = v
		} else {
			log.Printf("invalid BUFFER_SIZE env var: %v", err)
		}
	}

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = lvl
	}
}

func readDurationEnv(name string, dst *time.Duration) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	d, err := parseDuration(v)
	if err != nil {
		log.Printf("invalid %s env var: %v", name, err)
		return
	}
	*dst = d
}

// parseDuration accepts Go durations and bare integers as seconds.
func parseDuration(s string) (time.Duration, error) {
	if sec, err := strconv.Atoi(s); err == nil {
		return time.Duration(sec) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func (cfg *Config) validate() error {
	var errList []error
	if cfg.PollInterval <= 0 {
		errList = append(errList, errors.New("poll interval must be positive"))
	}
	if cfg.PruneInterval <= 0 {
		errList = append(errList, errors.New("prune interval must be positive"))
	}
	if cfg.FetchTimeout <= 0 {
		errList = append(errList, errors.New("fetch timeout must be positive"))
	}
	if cfg.Window <= 0 {
		errList = append(errList, errors.New("window must be positive"))
	}
	if cfg.BufferSize <= 0 {
		errList = append(errList, errors.New("buffer size must be positive"))
	}
	return errors.Join(errList...)
}
