package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// SchedulerModeCron はプロセス内の cron で試用期間チェックを実行します。
	SchedulerModeCron = "cron"
	// SchedulerModeExternal は外部トリガー (HTTP / gRPC / CLI) のみで実行します。
	SchedulerModeExternal = "external"
)

const (
	defaultCronSpec        = "0 0 * * *"
	defaultProbationWindow = 90 * 24 * time.Hour
	defaultMaxUploadBytes  = 10 << 20
	defaultShutdownTimeout = 10 * time.Second
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig は gRPC 管理サーバーに関する設定です。
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// HTTPConfig は REST API に関する設定です。
type HTTPConfig struct {
	ListenAddr         string        `yaml:"listen_addr"`
	AllowedOrigins     []string      `yaml:"allowed_origins"`
	UploadDir          string        `yaml:"upload_dir"`
	MaxUploadBytes     int64         `yaml:"max_upload_bytes"`
	ShutdownTimeout    time.Duration `yaml:"-"`
	ShutdownTimeoutRaw string        `yaml:"shutdown_timeout"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	ApplicationName    string        `yaml:"application_name"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
}

// AuthConfig はトークン検証に関する設定です。
type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret"`
	Issuer     string `yaml:"issuer"`
	CronSecret string `yaml:"cron_secret"`
}

// SchedulerConfig は試用期間チェックのスケジュール設定です。
type SchedulerConfig struct {
	Enabled            bool           `yaml:"enabled"`
	Mode               string         `yaml:"mode"`
	Spec               string         `yaml:"spec"`
	Timezone           string         `yaml:"timezone"`
	RunOnStart         bool           `yaml:"run_on_start"`
	Location           *time.Location `yaml:"-"`
	ProbationWindow    time.Duration  `yaml:"-"`
	ProbationWindowRaw string         `yaml:"probation_window"`
}

// LoggingConfig はロガーの設定です。
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load は指定されたパスから設定ファイルを読み込み、HRM_* 環境変数で上書きします。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}
	return Parse(b, os.LookupEnv)
}

// Parse は YAML を解釈し、lookup で得た環境変数を適用して検証します。
func Parse(b []byte, lookup func(string) (string, bool)) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if lookup != nil {
		if err := cfg.applyEnv(lookup); err != nil {
			return nil, err
		}
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"HRM_GRPC_LISTEN_ADDR": &c.Server.ListenAddr,
		"HRM_HTTP_LISTEN_ADDR": &c.HTTP.ListenAddr,
		"HRM_UPLOAD_DIR":       &c.HTTP.UploadDir,
		"HRM_DB_HOST":          &c.Database.Host,
		"HRM_DB_USER":          &c.Database.User,
		"HRM_DB_PASSWORD":      &c.Database.Password,
		"HRM_DB_NAME":          &c.Database.Name,
		"HRM_DB_SSL_MODE":      &c.Database.SSLMode,
		"HRM_JWT_SECRET":       &c.Auth.JWTSecret,
		"HRM_CRON_SECRET":      &c.Auth.CronSecret,
		"HRM_SCHEDULER_MODE":   &c.Scheduler.Mode,
		"HRM_SCHEDULER_SPEC":   &c.Scheduler.Spec,
		"HRM_SCHEDULER_TZ":     &c.Scheduler.Timezone,
		"HRM_LOG_LEVEL":        &c.Logging.Level,
		"HRM_LOG_FORMAT":       &c.Logging.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("HRM_DB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: HRM_DB_PORT: %w", err)
		}
		c.Database.Port = port
	}

	if v, ok := lookup("HRM_SCHEDULER_ENABLED"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: HRM_SCHEDULER_ENABLED: %w", err)
		}
		c.Scheduler.Enabled = enabled
	}

	if v, ok := lookup("HRM_ALLOWED_ORIGINS"); ok && v != "" {
		origins := make([]string, 0, 2)
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.HTTP.AllowedOrigins = origins
	}

	return nil
}

func (c *Config) validateAndNormalize() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}

	if err := c.HTTP.validateAndNormalize(); err != nil {
		return err
	}

	db := &c.Database
	if err := db.validateAndNormalize(); err != nil {
		return err
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret must be set")
	}

	if err := c.Scheduler.validateAndNormalize(); err != nil {
		return err
	}
	if c.Scheduler.Mode == SchedulerModeExternal && c.Auth.CronSecret == "" {
		return fmt.Errorf("config: auth.cron_secret must be set when scheduler.mode is %s", SchedulerModeExternal)
	}

	return c.Logging.validateAndNormalize()
}

func (h *HTTPConfig) validateAndNormalize() error {
	if h.ListenAddr == "" {
		return fmt.Errorf("config: http.listen_addr must be set")
	}
	for _, origin := range h.AllowedOrigins {
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config: http.allowed_origins: %q must be an http or https origin", origin)
		}
	}
	if h.UploadDir == "" {
		h.UploadDir = "uploads"
	}
	if h.MaxUploadBytes < 0 {
		return fmt.Errorf("config: http.max_upload_bytes must not be negative")
	}
	if h.MaxUploadBytes == 0 {
		h.MaxUploadBytes = defaultMaxUploadBytes
	}

	timeout, err := parseDurationAllowEmpty(h.ShutdownTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: http.shutdown_timeout: %w", err)
	}
	if timeout == 0 {
		timeout = defaultShutdownTimeout
	}
	h.ShutdownTimeout = timeout

	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.ApplicationName == "" {
		d.ApplicationName = "codex-hrm"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (s *SchedulerConfig) validateAndNormalize() error {
	s.Mode = strings.ToLower(strings.TrimSpace(s.Mode))
	switch s.Mode {
	case "":
		s.Mode = SchedulerModeCron
	case SchedulerModeCron, SchedulerModeExternal:
	default:
		return fmt.Errorf("config: scheduler.mode must be %s or %s, got %q", SchedulerModeCron, SchedulerModeExternal, s.Mode)
	}

	if s.Spec == "" {
		s.Spec = defaultCronSpec
	}

	if s.Timezone == "" {
		s.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return fmt.Errorf("config: scheduler.timezone: %w", err)
	}
	s.Location = loc

	window, err := parseDurationAllowEmpty(s.ProbationWindowRaw)
	if err != nil {
		return fmt.Errorf("config: scheduler.probation_window: %w", err)
	}
	if window < 0 {
		return fmt.Errorf("config: scheduler.probation_window must not be negative")
	}
	if window == 0 {
		window = defaultProbationWindow
	}
	s.ProbationWindow = window

	return nil
}

func (l *LoggingConfig) validateAndNormalize() error {
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	if l.Level == "" {
		l.Level = "info"
	}
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: logging.level %q is not supported", l.Level)
	}

	l.Format = strings.ToLower(strings.TrimSpace(l.Format))
	if l.Format == "" {
		l.Format = "json"
	}
	if l.Format != "json" && l.Format != "console" {
		return fmt.Errorf("config: logging.format must be json or console, got %q", l.Format)
	}
	return nil
}

// InProcessSchedule はこのプロセスで cron を動かすべきかを返します。
func (s SchedulerConfig) InProcessSchedule() bool {
	return s.Enabled && s.Mode == SchedulerModeCron
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。ユーザー名とパスワードはエスケープされます。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}
