package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/lgc202/borders-go/borders"
	"github.com/lgc202/borders-go/httpx"
	"github.com/lgc202/borders-go/signature"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "BORDERS"

// Settings BORDERS 客户端配置
type Settings struct {
	PublicKey  string `mapstructure:"public_key" json:"public_key" yaml:"public_key"`
	PrivateKey string `mapstructure:"private_key" json:"private_key" yaml:"private_key"`

	Secure  bool   `mapstructure:"secure" json:"secure" yaml:"secure"`
	// Timeout 请求有效期（秒）。未配置时为 60；显式配置 0 或负数时不设置调用超时
	Timeout int    `mapstructure:"timeout" json:"timeout" yaml:"timeout" default:"60"`
	Host    string `mapstructure:"host" json:"host" yaml:"host" default:"api.Borders.biemedia.com"`

	UserAgent string `mapstructure:"user_agent" json:"user_agent" yaml:"user_agent"`

	// MaxResponseBytes 响应体上限，0 使用 httpx 默认值，负数不限制
	MaxResponseBytes int64 `mapstructure:"max_response_bytes" json:"max_response_bytes" yaml:"max_response_bytes"`

	// Digest 签名摘要编码：raw 或 hex
	Digest string `mapstructure:"digest" json:"digest" yaml:"digest" default:"raw"`

	RateLimit RateLimit `mapstructure:"rate_limit" json:"rate_limit" yaml:"rate_limit"`
	Transport Transport `mapstructure:"transport" json:"transport" yaml:"transport"`
}

// RateLimit 客户端限流，RPS 为 0 时不限流
type RateLimit struct {
	RPS   float64 `mapstructure:"rps" json:"rps" yaml:"rps"`
	Burst int     `mapstructure:"burst" json:"burst" yaml:"burst" default:"1"`
}

// Transport 连接参数
type Transport struct {
	DialTimeout           time.Duration `mapstructure:"dial_timeout" json:"dial_timeout" yaml:"dial_timeout" default:"10s"`
	TLSHandshakeTimeout   time.Duration `mapstructure:"tls_handshake_timeout" json:"tls_handshake_timeout" yaml:"tls_handshake_timeout" default:"10s"`
	ResponseHeaderTimeout time.Duration `mapstructure:"response_header_timeout" json:"response_header_timeout" yaml:"response_header_timeout"`
	IdleConnTimeout       time.Duration `mapstructure:"idle_conn_timeout" json:"idle_conn_timeout" yaml:"idle_conn_timeout" default:"90s"`
	MaxIdleConnsPerHost   int           `mapstructure:"max_idle_conns_per_host" json:"max_idle_conns_per_host" yaml:"max_idle_conns_per_host" default:"10"`
	Proxy                 string        `mapstructure:"proxy" json:"proxy" yaml:"proxy"`
	InsecureSkipVerify    bool          `mapstructure:"insecure_skip_verify" json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// LoadSettings 加载 Settings，并绑定 BORDERS_ 前缀的环境变量
func LoadSettings(path string, opts ...Option[Settings]) (*Config[Settings], error) {
	return Load(path, append([]Option[Settings]{WithEnv[Settings](EnvPrefix)}, opts...)...)
}

// Validate 检查不依赖网络的配置项。密钥长度由 borders.New 检查。
func (s Settings) Validate() error {
	if _, ok := signature.ParseDigestEncoding(s.Digest); !ok {
		return fmt.Errorf("config: unknown digest %q (want raw or hex)", s.Digest)
	}
	if s.RateLimit.RPS < 0 {
		return fmt.Errorf("config: rate_limit.rps must not be negative")
	}
	if _, err := s.proxyURL(); err != nil {
		return err
	}
	return nil
}

func (s Settings) proxyURL() (*url.URL, error) {
	if s.Transport.Proxy == "" {
		return nil, nil
	}
	u, err := url.Parse(s.Transport.Proxy)
	if err != nil {
		return nil, fmt.Errorf("config: transport.proxy: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("config: transport.proxy %q must be an absolute url", s.Transport.Proxy)
	}
	return u, nil
}

// ClientOptions 转换为 borders.Option
func (s Settings) ClientOptions() ([]borders.Option, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	digest, _ := signature.ParseDigestEncoding(s.Digest)
	proxy, _ := s.proxyURL()

	opts := []borders.Option{
		borders.WithHost(s.Host),
		borders.WithSecure(s.Secure),
		borders.WithTimeout(s.Timeout),
		borders.WithDigestEncoding(digest),
		borders.WithMaxResponseBytes(s.MaxResponseBytes),
		borders.WithTransport(httpx.NewTransport(httpx.TransportConfig{
			ProxyURL:              proxy,
			DialTimeout:           s.Transport.DialTimeout,
			TLSHandshakeTimeout:   s.Transport.TLSHandshakeTimeout,
			ResponseHeaderTimeout: s.Transport.ResponseHeaderTimeout,
			IdleConnTimeout:       s.Transport.IdleConnTimeout,
			MaxIdleConnsPerHost:   s.Transport.MaxIdleConnsPerHost,
			InsecureSkipVerify:    s.Transport.InsecureSkipVerify,
		})),
	}
	if s.UserAgent != "" {
		opts = append(opts, borders.WithUserAgent(s.UserAgent))
	}
	if s.RateLimit.RPS > 0 {
		opts = append(opts, borders.WithRateLimit(s.RateLimit.RPS, s.RateLimit.Burst))
	}
	return opts, nil
}

// NewClient 按配置创建客户端，extra 在配置项之后应用
func (s Settings) NewClient(extra ...borders.Option) (*borders.Client, error) {
	opts, err := s.ClientOptions()
	if err != nil {
		return nil, err
	}
	return borders.New(s.PublicKey, s.PrivateKey, append(opts, extra...)...)
}

// Apply 将可热更新的配置项（secure、timeout）写入运行中的客户端。
// 其余配置项变更需要重建客户端。
func (s Settings) Apply(c *borders.Client) {
	c.SetSecure(s.Secure)
	c.SetTimeout(s.Timeout)
}

// Redacted 返回隐藏私钥后的副本，用于输出
func (s Settings) Redacted() Settings {
	if s.PrivateKey != "" {
		s.PrivateKey = "***"
	}
	return s
}
