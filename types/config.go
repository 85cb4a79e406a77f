package types

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts Go duration strings ("5m", "1h") in YAML and plain
// nanosecond integers in JSON.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type ConfigManager interface {
	Load() error
	GetConfig() *ServiceConfig
}

type ServiceConfig struct {
	Name        string             `yaml:"name" json:"name" validate:"required"`
	Version     string             `yaml:"version" json:"version" validate:"required"`
	Server      *ServerConfig      `yaml:"server" json:"server"`
	Logger      *LoggerConfig      `yaml:"logger" json:"logger"`
	Database    *DatabaseConfig    `yaml:"database" json:"database"`
	Cache       *CacheConfig       `yaml:"cache" json:"cache"`
	Cron        *CronConfig        `yaml:"cron" json:"cron"`
	Metrics     *MetricsConfig     `yaml:"metrics" json:"metrics"`
	Actions     *ActionsConfig     `yaml:"actions" json:"actions"`
	Middlewares *MiddlewaresConfig `yaml:"middlewares" json:"middlewares"`
	Catalog     *CatalogConfig     `yaml:"catalog" json:"catalog"`
}

type ServerConfig struct {
	HTTP *HTTPConfig `yaml:"http" json:"http"`
	TLS  *TLSConfig  `yaml:"tls" json:"tls"`
}

type HTTPConfig struct {
	Host            string `yaml:"host" json:"host"`
	Port            int    `yaml:"port" json:"port" validate:"min=1,max=65535"`
	ReadTimeout     int    `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    int    `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     int    `yaml:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout int    `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

type TLSConfig struct {
	Enabled  bool     `yaml:"enabled" json:"enabled"`
	CertFile string   `yaml:"cert_file,omitempty" json:"cert_file,omitempty"`
	KeyFile  string   `yaml:"key_file,omitempty" json:"key_file,omitempty"`
	AutoCert bool     `yaml:"auto_cert" json:"auto_cert"`
	Domains  []string `yaml:"domains,omitempty" json:"domains,omitempty"`
	Email    string   `yaml:"email,omitempty" json:"email,omitempty"`
	CacheDir string   `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty"`
}

type LoggerConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" json:"path"`
}

type CacheConfig struct {
	Enabled    bool        `yaml:"enabled" json:"enabled"`
	Type       string      `yaml:"type" json:"type" validate:"required_if=Enabled true"`
	Config     interface{} `yaml:"config" json:"config"`
	DefaultTTL Duration    `yaml:"default_ttl" json:"default_ttl" validate:"min=0"`
}

type CronConfig struct {
	Enabled        bool   `yaml:"enabled" json:"enabled"`
	Timezone       string `yaml:"timezone" json:"timezone" validate:"required_if=Enabled true"`
	SweepSchedule  string `yaml:"sweep_schedule" json:"sweep_schedule"`
	WarmupSchedule string `yaml:"warmup_schedule" json:"warmup_schedule"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Path      string `yaml:"path" json:"path"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

type ActionsConfig struct {
	Enabled   bool        `yaml:"enabled" json:"enabled"`
	Webhook   bool        `yaml:"webhook" json:"webhook"`
	WebhookDB string      `yaml:"webhook_db" json:"webhook_db"`
	WebSocket bool        `yaml:"websocket" json:"websocket"`
	Config    interface{} `yaml:"config" json:"config"`
}

type MiddlewaresConfig struct {
	AdminToken  string                `yaml:"admin_token" json:"admin_token"`
	Logging     *MiddlewareItemConfig `yaml:"logging" json:"logging"`
	Recovery    *MiddlewareItemConfig `yaml:"recovery" json:"recovery"`
	CORS        *MiddlewareItemConfig `yaml:"cors" json:"cors"`
	BodyLimit   *MiddlewareItemConfig `yaml:"body_limit" json:"body_limit"`
	Compression *MiddlewareItemConfig `yaml:"compression" json:"compression"`
}

type MiddlewareItemConfig struct {
	Enabled bool                   `yaml:"enabled" json:"enabled"`
	Weight  int                    `yaml:"weight" json:"weight" validate:"min=0"`
	Params  map[string]interface{} `yaml:"params" json:"params"`
}

type CatalogConfig struct {
	ProductsPerPage int `yaml:"products_per_page" json:"products_per_page" validate:"min=1"`
	LatestLimit     int `yaml:"latest_limit" json:"latest_limit" validate:"min=1"`
}
