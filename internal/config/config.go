// Package config assembles the run configuration from ENV, CLI flags, an optional
// YAML file and defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/vshulcz/resquewatch/internal/domain"
)

const (
	DefaultCWNamespace = "Resque"
	// MaxMetricDataPerPut is the per-request item limit of the monitoring backend.
	MaxMetricDataPerPut = 20

	BackendCloudWatch = "cloudwatch"
	BackendHTTP       = "http"

	defaultRedisHost   = "localhost"
	defaultRedisPort   = 6379
	defaultHTTPTimeout = 10 * time.Second
	defaultLogLevel    = "info"
	maxBatchSize       = 1000
)

// RedisConfig holds the store connection parameters; URL wins over the discrete fields.
type RedisConfig struct {
	URL      string
	Host     string
	Socket   string
	Password string
	Port     int
	DB       int
}

// Config is immutable once loaded.
type Config struct {
	Redis          RedisConfig
	RedisNamespace string
	CWNamespace    string
	Backend        string
	Endpoint       string
	Region         string
	Key            string
	StatusAddr     string
	AuditFile      string
	AuditURL       string
	LogLevel       string
	Metric         domain.Options
	Interval       time.Duration
	HTTPTimeout    time.Duration
	BatchSize      int
	DryRun         bool
	ShowVersion    bool
}

// OneShot reports whether the pipeline runs once instead of on an interval.
func (c Config) OneShot() bool { return c.Interval == 0 }

type flagValues struct {
	config      string
	url         string
	host        string
	socket      string
	password    string
	redisNS     string
	cwNS        string
	backend     string
	endpoint    string
	region      string
	key         string
	statusAddr  string
	auditFile   string
	auditURL    string
	logLevel    string
	interval    float64
	httpTimeout float64
	port        int
	db          int
	batchSize   int
	dryrun      bool
	version     bool
	skip        map[domain.Category]*bool
	extra       map[domain.Category]*bool
}

func newFlagSet(out io.Writer) (*pflag.FlagSet, *flagValues) {
	fs := pflag.NewFlagSet("resquewatch", pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.SortFlags = false

	f := &flagValues{
		skip:  make(map[domain.Category]*bool),
		extra: make(map[domain.Category]*bool),
	}
	fs.StringVarP(&f.host, "host", "h", "", fmt.Sprintf("redis host, default: %s", defaultRedisHost))
	fs.IntVarP(&f.port, "port", "p", 0, fmt.Sprintf("redis port, default: %d", defaultRedisPort))
	fs.StringVarP(&f.socket, "socket", "s", "", "redis unix socket path")
	fs.StringVarP(&f.password, "password", "a", "", "redis password")
	fs.IntVarP(&f.db, "db", "n", 0, "redis database number")
	fs.StringVar(&f.url, "url", "", "redis URL (redis://[:password@]host:port/db), overrides host/port/socket/db")
	fs.StringVar(&f.redisNS, "redis-namespace", "", "resque namespace or wildcard pattern, default: the client namespace")
	fs.StringVar(&f.cwNS, "cw-namespace", "", fmt.Sprintf("backend namespace, default: %s", DefaultCWNamespace))
	fs.Float64VarP(&f.interval, "interval", "i", 0, "sampling interval in seconds; omit to run once")
	for _, c := range domain.DefaultCategories() {
		f.skip[c] = fs.Bool("skip-"+flagName(c), false, fmt.Sprintf("do not report %s", c))
	}
	for _, c := range domain.ExtraCategories() {
		f.extra[c] = fs.Bool(flagName(c), false, fmt.Sprintf("also report %s", c))
	}
	fs.BoolVar(&f.dryrun, "dryrun", false, "print metric data to stdout instead of publishing")

	fs.StringVar(&f.config, "config", "", "YAML config file")
	fs.StringVar(&f.backend, "backend", "", "publish backend: cloudwatch or http, default: cloudwatch")
	fs.StringVar(&f.endpoint, "endpoint", "", "backend endpoint override (required for http)")
	fs.StringVar(&f.region, "region", "", "AWS region, default: from the SDK environment")
	fs.StringVar(&f.key, "key", "", "secret key for the HashSHA256 header (http backend)")
	fs.IntVar(&f.batchSize, "batch-size", 0, fmt.Sprintf("max data points per request, default: %d", MaxMetricDataPerPut))
	fs.Float64Var(&f.httpTimeout, "http-timeout", 0, "http backend request timeout in seconds, default: 10")
	fs.StringVar(&f.statusAddr, "status-addr", "", "listen address of the status server, disabled when empty")
	fs.StringVar(&f.auditFile, "audit-file", "", "append one JSON line per finished iteration to this file")
	fs.StringVar(&f.auditURL, "audit-url", "", "POST one JSON record per finished iteration to this URL")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error, default: info")
	fs.BoolVar(&f.version, "version", false, "print build information and exit")
	return fs, f
}

// LoadConfig parses args and the environment. ENV > CLI > file > defaults.
func LoadConfig(args []string, out io.Writer) (Config, error) {
	if out == nil {
		out = io.Discard
	}
	fs, f := newFlagSet(out)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if f.version {
		return Config{ShowVersion: true}, nil
	}

	l := layers{fs: fs}
	var file fileConfig
	if path := l.str("CONFIG", "config", f.config, "", ""); path != "" {
		var err error
		if file, err = loadFile(path); err != nil {
			return Config{}, err
		}
	}

	var errs error
	add := func(err error) {
		errs = multierr.Append(errs, err)
	}

	cfg := Config{
		Redis: RedisConfig{
			URL:      l.str("REDIS_URL", "url", f.url, file.Redis.URL, ""),
			Host:     l.str("REDIS_HOST", "host", f.host, file.Redis.Host, defaultRedisHost),
			Socket:   l.str("REDIS_SOCKET", "socket", f.socket, file.Redis.Socket, ""),
			Password: l.str("REDIS_PASSWORD", "password", f.password, file.Redis.Password, ""),
		},
		RedisNamespace: l.str("REDIS_NAMESPACE", "redis-namespace", f.redisNS, file.RedisNamespace, ""),
		CWNamespace:    l.str("CW_NAMESPACE", "cw-namespace", f.cwNS, file.CWNamespace, DefaultCWNamespace),
		Backend:        strings.ToLower(l.str("BACKEND", "backend", f.backend, file.Backend, BackendCloudWatch)),
		Endpoint:       l.str("BACKEND_ENDPOINT", "endpoint", f.endpoint, file.Endpoint, ""),
		Region:         l.str("AWS_REGION", "region", f.region, file.Region, ""),
		Key:            l.str("HASH_KEY", "key", f.key, file.Key, ""),
		LogLevel:       strings.ToLower(l.str("LOG_LEVEL", "log-level", f.logLevel, file.LogLevel, defaultLogLevel)),
		AuditFile:      l.str("AUDIT_FILE", "audit-file", f.auditFile, file.AuditFile, ""),
		AuditURL:       l.str("AUDIT_URL", "audit-url", f.auditURL, file.AuditURL, ""),
	}

	var err error
	if cfg.Redis.Port, err = l.integer("REDIS_PORT", "port", f.port, file.Redis.Port, defaultRedisPort); err != nil {
		add(err)
	}
	if cfg.Redis.DB, err = l.integer("REDIS_DB", "db", f.db, file.Redis.DB, 0); err != nil {
		add(err)
	}
	if cfg.BatchSize, err = l.integer("BATCH_SIZE", "batch-size", f.batchSize, file.BatchSize, MaxMetricDataPerPut); err != nil {
		add(err)
	}
	if cfg.Interval, err = l.seconds("INTERVAL", "interval", f.interval, file.Interval, 0); err != nil {
		add(err)
	}
	if cfg.HTTPTimeout, err = l.seconds("HTTP_TIMEOUT", "http-timeout", f.httpTimeout, file.HTTPTimeout, defaultHTTPTimeout); err != nil {
		add(err)
	}
	if cfg.DryRun, err = l.boolean("DRYRUN", "dryrun", f.dryrun, file.DryRun); err != nil {
		add(err)
	}
	if cfg.Metric.Skip, err = l.categories("SKIP", f.skip, file.Skip); err != nil {
		add(fmt.Errorf("skip: %w", err))
	}
	if cfg.Metric.Extra, err = l.categories("EXTRA", f.extra, file.Extra); err != nil {
		add(fmt.Errorf("extra: %w", err))
	}
	if addr := l.str("STATUS_ADDR", "status-addr", f.statusAddr, file.StatusAddr, ""); addr != "" {
		cfg.StatusAddr = normalizeListenAddr(addr)
	}

	add(cfg.Validate())
	if errs != nil {
		return Config{}, errs
	}
	return cfg, nil
}

// Validate reports every problem found in c.
func (c Config) Validate() error {
	var errs error
	if c.Interval < 0 {
		errs = multierr.Append(errs, fmt.Errorf("interval must be >= 0, got %v", c.Interval))
	}
	if c.BatchSize < 1 || c.BatchSize > maxBatchSize {
		errs = multierr.Append(errs, fmt.Errorf("%w: %d (allowed 1..%d)", domain.ErrInvalidBatchSize, c.BatchSize, maxBatchSize))
	}
	if err := c.Metric.Validate(); err != nil {
		errs = multierr.Append(errs, err)
	}
	switch c.Backend {
	case BackendCloudWatch:
	case BackendHTTP:
		if c.Endpoint == "" && !c.DryRun {
			errs = multierr.Append(errs, errors.New("http backend requires an endpoint"))
		}
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if c.Endpoint != "" {
		if u, err := url.Parse(c.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			errs = multierr.Append(errs, fmt.Errorf("invalid endpoint: %q", c.Endpoint))
		}
	}
	if c.Redis.URL != "" {
		if _, err := redis.ParseURL(c.Redis.URL); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid redis url: %w", err))
		}
	} else if c.Redis.Socket == "" && (c.Redis.Port < 1 || c.Redis.Port > 65535) {
		errs = multierr.Append(errs, fmt.Errorf("redis port out of range: %d", c.Redis.Port))
	}
	if c.Redis.DB < 0 {
		errs = multierr.Append(errs, fmt.Errorf("redis db must be >= 0, got %d", c.Redis.DB))
	}
	if c.StatusAddr != "" {
		if _, port, err := net.SplitHostPort(c.StatusAddr); err != nil || port == "" {
			errs = multierr.Append(errs, fmt.Errorf("invalid status address: %q", c.StatusAddr))
		}
	}
	if c.AuditURL != "" {
		if u, err := url.ParseRequestURI(c.AuditURL); err != nil || u.Host == "" {
			errs = multierr.Append(errs, fmt.Errorf("invalid audit url: %q", c.AuditURL))
		}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	return errs
}

// RedisOptions builds go-redis options. Client-side retries are disabled so that a
// connectivity failure surfaces on the first attempt.
func (c Config) RedisOptions() (*redis.Options, error) {
	if c.Redis.URL != "" {
		o, err := redis.ParseURL(c.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		o.MaxRetries = -1
		return o, nil
	}
	o := &redis.Options{
		Network:    "tcp",
		Addr:       net.JoinHostPort(c.Redis.Host, strconv.Itoa(c.Redis.Port)),
		Password:   c.Redis.Password,
		DB:         c.Redis.DB,
		MaxRetries: -1,
	}
	if c.Redis.Socket != "" {
		o.Network = "unix"
		o.Addr = c.Redis.Socket
	}
	return o, nil
}

func normalizeListenAddr(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			return u.Host
		}
	}
	if !strings.Contains(s, ":") {
		return ":" + s
	}
	return s
}
