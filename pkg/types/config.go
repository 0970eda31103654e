package types

import "time"

// Proxy protocols accepted by ProxyConfig.Protocol.
const (
	ProxySOCKS5 = "socks5"
	ProxyHTTP   = "http"
	ProxyHTTPS  = "https"
)

// Defaults applied when a value is not configured.
const (
	DefaultBaseURL          = "https://sci-hub.se"
	DefaultRetries          = 5
	DefaultProxyProtocol    = ProxySOCKS5
	DefaultProxyHost        = "127.0.0.1"
	DefaultProxyPort        = 1080
	DefaultFileLinkSelector = "embed#pdf"
	DefaultTimeout          = 60 * time.Second

	MinRetries = 0
	MaxRetries = 50
)

// ProxyConfig holds the outbound proxy settings. The keys are flat in the
// config file (proxy_protocol, proxy_host, ...) for compatibility with
// configs written by earlier releases.
type ProxyConfig struct {
	// Protocol is the proxy scheme: socks5, http, or https.
	Protocol string `mapstructure:"proxy_protocol" yaml:"proxy_protocol" validate:"oneof=socks5 http https"`

	// User is the proxy username; empty when no authentication is needed.
	User string `mapstructure:"proxy_user" yaml:"proxy_user"`

	// Password is the proxy password; empty when no authentication is needed.
	Password string `mapstructure:"proxy_password" yaml:"proxy_password"`

	// Host is the proxy hostname or IP address.
	Host string `mapstructure:"proxy_host" yaml:"proxy_host" validate:"hostname|ip"`

	// Port is the proxy port (1-65535).
	Port int `mapstructure:"proxy_port" yaml:"proxy_port" validate:"min=1,max=65535"`
}

// Config holds every setting the dl command reads. It is validated once at
// load time; the pipeline consumes it as plain values.
type Config struct {
	// BaseURL is the mirror root, e.g. "https://sci-hub.se".
	BaseURL string `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`

	// Retries is the number of fetch attempts per URL (0-50).
	Retries int `mapstructure:"retries" yaml:"retries" validate:"min=0,max=50"`

	// UseProxy routes every request through Proxy when true.
	UseProxy bool `mapstructure:"use_proxy" yaml:"use_proxy"`

	// ProxyConfig is only validated when UseProxy is set.
	ProxyConfig `mapstructure:",squash" yaml:",inline" validate:"-"`

	// OutDir is the existing directory PDFs are written to.
	OutDir string `mapstructure:"outdir" yaml:"outdir" validate:"required,dir"`

	// LogFile receives the detailed log, including full error chains.
	LogFile string `mapstructure:"log_file" yaml:"log_file" validate:"required"`

	// DebugMode lowers the log level to debug.
	DebugMode bool `mapstructure:"debug_mode" yaml:"debug_mode"`

	// FileLinkSelector is the CSS selector locating the element whose src
	// is the file URL on the landing page (default "embed#pdf").
	FileLinkSelector string `mapstructure:"file_link_selector" yaml:"file_link_selector,omitempty"`

	// Timeout bounds connecting and waiting for response headers. Zero
	// disables it. The body stream is not bounded.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty" validate:"min=0"`

	// RetryDelay is the pause between fetch attempts (default 0).
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay,omitempty" validate:"min=0"`

	// UserAgent overrides the default desktop browser User-Agent.
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent,omitempty"`

	// SecretsDir holds optional proxy-user and proxy-password files.
	SecretsDir string `mapstructure:"secrets_dir" yaml:"secrets_dir,omitempty"`
}
