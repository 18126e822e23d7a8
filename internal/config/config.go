package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"InstrumentsMonitor/internal/classify"
	"InstrumentsMonitor/internal/domain"
	"InstrumentsMonitor/internal/report"
	"InstrumentsMonitor/internal/status"
)

const (
	defaultTimezone  = "America/Sao_Paulo"
	fallbackTimezone = "UTC"
	configPathEnv    = "INSTRUMENTS_MONITOR_CONFIG"
	databaseDSNEnv   = "DATABASE_DSN"
	smtpHostEnv      = "SMTP_HOST"
	smtpPortEnv      = "SMTP_PORT"
	smtpUserEnv      = "SMTP_USER"
	smtpPassEnv      = "SMTP_PASS"
	smtpToEnv        = "SMTP_TO"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
	logLevelEnv      = "LOG_LEVEL"
	timezoneEnv      = "MONITOR_TIMEZONE"
)

// Config holds high-level settings required across the application.
type Config struct {
	Source         SourceConfig         `yaml:"source"`
	Output         OutputConfig         `yaml:"output"`
	Classification ClassificationConfig `yaml:"classification"`
	Fields         map[string][]string  `yaml:"fields"`
	Status         status.Keywords      `yaml:"status"`
	Scheduler      SchedulerConfig      `yaml:"scheduler"`
	Database       DatabaseConfig       `yaml:"database"`
	Notifications  NotificationConfig   `yaml:"notifications"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// SourceConfig locates the instruments table.
type SourceConfig struct {
	Path string `yaml:"path"`
	// Format is "auto" (by extension), "csv" or "html".
	Format string `yaml:"format"`
	// Delimiter is empty for auto-detection, or one of "," ";" "\t" "|" ("tab" accepted).
	Delimiter string `yaml:"delimiter"`
	// Selector picks the table inside an HTML export.
	Selector string `yaml:"selector"`
}

// DelimiterRune resolves the configured delimiter; zero means auto-detect.
func (s SourceConfig) DelimiterRune() rune {
	switch d := s.Delimiter; {
	case d == "":
		return 0
	case strings.EqualFold(d, "tab") || d == `\t`:
		return '\t'
	default:
		return []rune(d)[0]
	}
}

// OutputConfig describes where outputs are written.
type OutputConfig struct {
	Dir          string `yaml:"dir"`
	PriorityFile string `yaml:"priorityFile"`
	SummaryFile  string `yaml:"summaryFile"`
	// AlertFiles overrides the file name of an alert queue, keyed by rule name.
	AlertFiles map[string]string `yaml:"alertFiles"`
	// WriteBack rewrites the source table with the derived columns appended.
	WriteBack bool `yaml:"writeBack"`
}

// ClassificationConfig selects the urgency scheme and the alert queues.
type ClassificationConfig struct {
	Scheme string               `yaml:"scheme"`
	Custom *classify.Scheme     `yaml:"custom"`
	Alerts []classify.AlertRule `yaml:"alerts"`
	Labels domain.Labels        `yaml:"labels"`
}

// ResolveScheme returns the custom scheme when present, else the named preset.
func (c ClassificationConfig) ResolveScheme() (classify.Scheme, error) {
	if c.Custom != nil && len(c.Custom.Bands) > 0 {
		s := *c.Custom
		if s.Name == "" {
			s.Name = "custom"
		}
		return s, nil
	}
	name := c.Scheme
	if name == "" {
		name = classify.DefaultScheme
	}
	s, ok := classify.Preset(name)
	if !ok {
		return classify.Scheme{}, fmt.Errorf("unknown classification scheme %q (known: %s)",
			name, strings.Join(classify.PresetNames(), ", "))
	}
	return s, nil
}

// SchedulerConfig defines when the monitor should run.
type SchedulerConfig struct {
	Spec     string         `yaml:"spec"`
	Timezone string         `yaml:"timezone"`
	RunNow   bool           `yaml:"runNow"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	return time.UTC
}

// DatabaseConfig describes the optional Postgres run history.
type DatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	Schema string `yaml:"schema"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Report   report.Options `yaml:"report"`
	Email    EmailConfig    `yaml:"email"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// EmailConfig wires SMTP delivery.
type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Attach   bool   `yaml:"attach"`
}

// Enabled reports whether enough is configured to attempt delivery.
func (e EmailConfig) Enabled() bool {
	return e.Host != "" && e.To != ""
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	APIBase  string `yaml:"apiBase"`
}

// Enabled reports whether the bot is configured.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// LoggingConfig selects verbosity and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
// path takes precedence over INSTRUMENTS_MONITOR_CONFIG.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the classification tables.
func (c Config) Validate() error {
	if _, err := c.Classification.ResolveScheme(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := classify.ValidateAlerts(c.Classification.Alerts); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if d := c.Source.Delimiter; d != "" && len([]rune(d)) != 1 && !strings.EqualFold(d, "tab") && d != `\t` {
		return fmt.Errorf("config: delimiter %q must be a single character", d)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(smtpHostEnv); v != "" {
		c.Notifications.Email.Host = v
	}
	if v := os.Getenv(smtpPortEnv); v != "" {
		if port, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.Notifications.Email.Port = port
		} else {
			log.Printf("config: ignoring invalid %s=%q", smtpPortEnv, v)
		}
	}
	if v := os.Getenv(smtpUserEnv); v != "" {
		c.Notifications.Email.Username = v
	}
	if v := os.Getenv(smtpPassEnv); v != "" {
		c.Notifications.Email.Password = v
	}
	if v := os.Getenv(smtpToEnv); v != "" {
		c.Notifications.Email.To = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(timezoneEnv); v != "" {
		c.Scheduler.Timezone = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, fallbackTimezone)
		loc = time.UTC
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Source.Path != "" {
		base.Source.Path = override.Source.Path
	}
	if override.Source.Format != "" {
		base.Source.Format = override.Source.Format
	}
	if override.Source.Delimiter != "" {
		base.Source.Delimiter = override.Source.Delimiter
	}
	if override.Source.Selector != "" {
		base.Source.Selector = override.Source.Selector
	}

	if override.Output.Dir != "" {
		base.Output.Dir = override.Output.Dir
	}
	if override.Output.PriorityFile != "" {
		base.Output.PriorityFile = override.Output.PriorityFile
	}
	if override.Output.SummaryFile != "" {
		base.Output.SummaryFile = override.Output.SummaryFile
	}
	if len(override.Output.AlertFiles) > 0 {
		base.Output.AlertFiles = override.Output.AlertFiles
	}
	base.Output.WriteBack = base.Output.WriteBack || override.Output.WriteBack

	if override.Classification.Scheme != "" {
		base.Classification.Scheme = override.Classification.Scheme
	}
	if override.Classification.Custom != nil {
		base.Classification.Custom = override.Classification.Custom
	}
	if override.Classification.Alerts != nil {
		base.Classification.Alerts = override.Classification.Alerts
	}
	base.Classification.Labels = mergeLabels(base.Classification.Labels, override.Classification.Labels)

	if len(override.Fields) > 0 {
		base.Fields = override.Fields
	}

	if len(override.Status.Completed) > 0 {
		base.Status.Completed = override.Status.Completed
	}
	if len(override.Status.ArchivedValues) > 0 {
		base.Status.ArchivedValues = override.Status.ArchivedValues
	}
	if len(override.Status.Archived) > 0 {
		base.Status.Archived = override.Status.Archived
	}

	if override.Scheduler.Spec != "" {
		base.Scheduler.Spec = override.Scheduler.Spec
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	base.Scheduler.RunNow = base.Scheduler.RunNow || override.Scheduler.RunNow

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.Schema != "" {
		base.Database.Schema = override.Database.Schema
	}

	if override.Notifications.Report != (report.Options{}) {
		base.Notifications.Report = override.Notifications.Report
	}
	base.Notifications.Email = mergeEmail(base.Notifications.Email, override.Notifications.Email)
	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.Telegram.APIBase != "" {
		base.Notifications.Telegram.APIBase = override.Notifications.Telegram.APIBase
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func mergeEmail(base, override EmailConfig) EmailConfig {
	if override.Host != "" {
		base.Host = override.Host
	}
	if override.Port != 0 {
		base.Port = override.Port
	}
	if override.Username != "" {
		base.Username = override.Username
	}
	if override.Password != "" {
		base.Password = override.Password
	}
	if override.From != "" {
		base.From = override.From
	}
	if override.To != "" {
		base.To = override.To
	}
	base.Attach = base.Attach || override.Attach
	return base
}

func mergeLabels(base, override domain.Labels) domain.Labels {
	if override.Yes != "" {
		base.Yes = override.Yes
	}
	if override.No != "" {
		base.No = override.No
	}
	if override.Completed != "" {
		base.Completed = override.Completed
	}
	if override.InProgress != "" {
		base.InProgress = override.InProgress
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Source: SourceConfig{Path: "data/tbl_instrumentos.csv", Format: "auto"},
		Output: OutputConfig{
			Dir:          "data",
			PriorityFile: "prioridades.csv",
			SummaryFile:  "resumo_execucao.json",
			AlertFiles: map[string]string{
				"alerta_30":  "alertas_30.csv",
				"alerta_180": "alertas_180.csv",
			},
		},
		Classification: ClassificationConfig{
			Scheme: classify.DefaultScheme,
			Alerts: classify.DefaultAlerts(),
			Labels: domain.DefaultLabels(),
		},
		Status:    status.DefaultKeywords(),
		Scheduler: SchedulerConfig{Spec: "@monthly", Timezone: defaultTimezone},
		Database:  DatabaseConfig{Schema: "instrument_monitor"},
		Notifications: NotificationConfig{
			Email: EmailConfig{Host: "smtp.gmail.com", Port: 587},
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
