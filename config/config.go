// Package config 加载客户端配置：配置文件（可选）+ 环境变量 + 结构体默认值，
// 并可选地监听文件变更。
package config

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/creasty/defaults"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// DefaultDebounce 文件变更回调的去抖间隔
const DefaultDebounce = 100 * time.Millisecond

// Config 配置管理器
type Config[T any] struct {
	v         *viper.Viper
	path      string
	envPrefix string
	watch     bool
	debounce  time.Duration

	mu       sync.RWMutex
	value    *T
	watchers []func(old, new T)
	errs     []func(error)
}

// Option 配置选项
type Option[T any] func(*Config[T])

// WithDefaults 设置默认值，优先级高于结构体 default 标签
func WithDefaults[T any](values map[string]any) Option[T] {
	return func(c *Config[T]) {
		for k, v := range values {
			c.v.SetDefault(k, v)
		}
	}
}

// WithEnv 绑定环境变量，例如前缀 BORDERS 时 rate_limit.rps 对应 BORDERS_RATE_LIMIT_RPS
func WithEnv[T any](prefix string) Option[T] {
	return func(c *Config[T]) { c.envPrefix = prefix }
}

// WithWatch 监听配置文件变更（需要配置文件）
func WithWatch[T any]() Option[T] {
	return func(c *Config[T]) { c.watch = true }
}

// WithDebounce 设置变更回调的去抖间隔
func WithDebounce[T any](d time.Duration) Option[T] {
	return func(c *Config[T]) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// Load 加载配置。path 为空时只使用默认值和环境变量。
func Load[T any](path string, opts ...Option[T]) (*Config[T], error) {
	v := viper.New()
	c := &Config[T]{v: v, path: path, debounce: DefaultDebounce}

	for _, opt := range opts {
		opt(c)
	}

	if c.envPrefix != "" {
		v.SetEnvPrefix(c.envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		// AutomaticEnv 只对已知的 key 生效，逐个绑定结构体字段
		var zero T
		for _, key := range leafKeys(reflect.TypeOf(zero), "") {
			if err := v.BindEnv(key); err != nil {
				return nil, err
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else if c.watch {
		return nil, errors.New("config: watch requires a config file")
	}

	val, err := c.decode()
	if err != nil {
		return nil, err
	}
	c.value = &val

	if c.watch {
		c.startWatch()
	}
	return c, nil
}

// Get 获取当前配置（并发安全，返回深拷贝）
func (c *Config[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return deepCopy(*c.value)
}

// Path 配置文件路径，可能为空
func (c *Config[T]) Path() string { return c.path }

// OnChange 注册配置变更回调，仅在内容确实变化时触发
func (c *Config[T]) OnChange(callback func(old, new T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchers = append(c.watchers, callback)
}

// OnError 注册重新加载失败的回调，失败时保留旧配置
func (c *Config[T]) OnError(callback func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, callback)
}

// Reload 立即重新读取配置文件
func (c *Config[T]) Reload() error {
	if c.path == "" {
		return nil
	}
	return c.handleConfigChange()
}

// Changed 比较两个值是否不同
func Changed[T any](old, new T) bool {
	return !reflect.DeepEqual(old, new)
}

// decode 先填充 default 标签，再用 viper 中存在的值覆盖
func (c *Config[T]) decode() (T, error) {
	var val T
	if t := reflect.TypeOf(val); t != nil && t.Kind() == reflect.Struct {
		if err := defaults.Set(&val); err != nil {
			return val, err
		}
	}
	if err := c.v.Unmarshal(&val); err != nil {
		return val, err
	}
	return val, nil
}

// deepCopy 通过 JSON 序列化实现深拷贝
func deepCopy[T any](src T) T {
	var dst T
	data, _ := json.Marshal(src)
	_ = json.Unmarshal(data, &dst)
	return dst
}

// leafKeys 按 mapstructure 标签列出所有叶子字段的 key
func leafKeys(t reflect.Type, prefix string) []string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && ft != reflect.TypeOf(time.Time{}) {
			keys = append(keys, leafKeys(ft, key)...)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

func (c *Config[T]) startWatch() {
	var (
		debounceTimer *time.Timer
		debounceMu    sync.Mutex
	)

	c.v.OnConfigChange(func(_ fsnotify.Event) {
		debounceMu.Lock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(c.debounce, func() {
			_ = c.handleConfigChange()
		})
		debounceMu.Unlock()
	})

	c.v.WatchConfig()
}

func (c *Config[T]) handleConfigChange() error {
	oldConfig := c.Get()

	newConfig, watchers, err := c.reloadConfig()
	if err != nil {
		c.mu.RLock()
		errs := append(([]func(error))(nil), c.errs...)
		c.mu.RUnlock()
		for _, cb := range errs {
			cb(err)
		}
		return err
	}

	if reflect.DeepEqual(oldConfig, newConfig) {
		return nil
	}

	for _, cb := range watchers {
		func() {
			defer func() { _ = recover() }()
			cb(oldConfig, newConfig)
		}()
	}
	return nil
}

// reloadConfig 重新加载配置，返回新配置和回调列表
func (c *Config[T]) reloadConfig() (T, []func(old, new T), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if err := c.v.ReadInConfig(); err != nil {
		return zero, nil, err
	}

	val, err := c.decode()
	if err != nil {
		return zero, nil, err
	}
	c.value = &val

	watchers := make([]func(old, new T), len(c.watchers))
	copy(watchers, c.watchers)

	return deepCopy(val), watchers, nil
}
