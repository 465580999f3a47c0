// Package config 负责加载和验证 YAML 配置文件。
// 提供应用程序所需的所有配置项，包括 Hyperliquid API 连接、缓存、
// 指标参数、报告与输出设置等。
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 应用配置根结构
// 包含所有子模块的配置项
type Config struct {
	// App 应用基础配置
	App AppConfig `yaml:"app"`
	// API Hyperliquid REST API 配置
	API APIConfig `yaml:"api"`
	// WS WebSocket 实时订阅配置
	WS WSConfig `yaml:"ws"`
	// Cache 成交记录缓存配置
	Cache CacheConfig `yaml:"cache"`
	// Sharpe 夏普比率计算参数
	Sharpe SharpeConfig `yaml:"sharpe"`
	// Report 报告输出配置
	Report ReportConfig `yaml:"report"`
	// Output JSONL 输出配置
	Output OutputConfig `yaml:"output"`
	// Addresses 待分析的钱包地址列表
	Addresses []string `yaml:"addresses"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	// Name 应用名称，用于日志标识
	Name string `yaml:"name"`
	// LogLevel 日志级别: debug, info, warn, error
	LogLevel string `yaml:"log_level"`
}

// APIConfig Hyperliquid REST API 配置
type APIConfig struct {
	// BaseURL API 基础地址
	BaseURL string `yaml:"base_url"`
	// TimeoutMs 单次 HTTP 请求超时时间（毫秒）
	TimeoutMs int `yaml:"timeout_ms"`
	// PageSize 单页成交记录数上限（API 限制 2000）
	PageSize int `yaml:"page_size"`
	// MaxFills 单地址最多拉取的成交记录数
	MaxFills int `yaml:"max_fills"`
	// PageDelayMs 翻页间隔（毫秒），避免触发限流
	PageDelayMs int `yaml:"page_delay_ms"`
	// MaxRetries 单次请求最大重试次数
	MaxRetries int `yaml:"max_retries"`
	// RateLimitPauseMs 收到 429 后的额外等待时间（毫秒）
	RateLimitPauseMs int `yaml:"rate_limit_pause_ms"`
	// BatchDelayMs 批量分析时相邻地址之间的间隔（毫秒）
	BatchDelayMs int `yaml:"batch_delay_ms"`
}

// WSConfig WebSocket 实时订阅配置
type WSConfig struct {
	// URL WebSocket 连接地址
	URL string `yaml:"url"`
	// PingIntervalMs 心跳间隔（毫秒），Hyperliquid 要求 60 秒内必须有 ping
	PingIntervalMs int `yaml:"ping_interval_ms"`
	// ReadTimeoutMs 读取超时（毫秒），超时视为连接失效
	ReadTimeoutMs int `yaml:"read_timeout_ms"`
}

// CacheConfig 成交记录缓存配置
type CacheConfig struct {
	// Dir 缓存目录
	Dir string `yaml:"dir"`
	// TTLMinutes 缓存有效期（分钟），0 表示永不过期
	TTLMinutes int `yaml:"ttl_minutes"`
}

// SharpeConfig 夏普比率计算参数
type SharpeConfig struct {
	// RiskFreeRate 年化无风险利率（0-1）
	RiskFreeRate float64 `yaml:"risk_free_rate"`
}

// ReportConfig 报告输出配置
type ReportConfig struct {
	// Dir 报告输出目录
	Dir string `yaml:"dir"`
	// Currency 金额展示币种代码，如 USD
	Currency string `yaml:"currency"`
}

// OutputConfig JSONL 输出配置
type OutputConfig struct {
	// Dir 输出目录
	Dir string `yaml:"dir"`
	// TradesEnabled 是否输出平仓回合文件
	TradesEnabled bool `yaml:"trades_enabled"`
	// FillsEnabled 是否输出实时成交文件（watch 模式）
	FillsEnabled bool `yaml:"fills_enabled"`
	// BufferSize 异步写入缓冲区大小
	BufferSize int `yaml:"buffer_size"`
}

// Load 从文件加载配置并验证
// 参数 path: 配置文件路径
// 返回: 解析后的配置对象，若失败则返回错误
func Load(path string) (*Config, error) {
	// 读取配置文件
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析 YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 设置默认值
	cfg.setDefaults()

	// 验证配置
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &cfg, nil
}

// Default 返回全默认配置
// 地址全部来自命令行时无需配置文件即可运行
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	cfg.Output.TradesEnabled = true
	cfg.Output.FillsEnabled = true
	return cfg
}

// setDefaults 设置配置默认值
func (c *Config) setDefaults() {
	// 应用默认值
	if c.App.Name == "" {
		c.App.Name = "hyperliquid-analyzer"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}

	// API 默认值
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://api.hyperliquid.xyz"
	}
	if c.API.TimeoutMs == 0 {
		c.API.TimeoutMs = 30000 // 30 秒
	}
	if c.API.PageSize == 0 {
		c.API.PageSize = 2000 // API 单页上限
	}
	if c.API.MaxFills == 0 {
		c.API.MaxFills = 10000
	}
	if c.API.PageDelayMs == 0 {
		c.API.PageDelayMs = 200
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = 3
	}
	if c.API.RateLimitPauseMs == 0 {
		c.API.RateLimitPauseMs = 5000 // 5 秒
	}
	if c.API.BatchDelayMs == 0 {
		c.API.BatchDelayMs = 1000 // 1 秒
	}

	// WebSocket 默认值
	if c.WS.URL == "" {
		c.WS.URL = "wss://api.hyperliquid.xyz/ws"
	}
	if c.WS.PingIntervalMs == 0 {
		c.WS.PingIntervalMs = 50000 // 50 秒
	}
	if c.WS.ReadTimeoutMs == 0 {
		c.WS.ReadTimeoutMs = 60000 // 60 秒
	}

	// 缓存默认值
	if c.Cache.Dir == "" {
		c.Cache.Dir = "./cache"
	}
	if c.Cache.TTLMinutes == 0 {
		c.Cache.TTLMinutes = 1440 // 24 小时
	}

	// 夏普比率默认值
	if c.Sharpe.RiskFreeRate == 0 {
		c.Sharpe.RiskFreeRate = 0.03 // 年化 3%
	}

	// 报告默认值
	if c.Report.Dir == "" {
		c.Report.Dir = "./reports"
	}
	if c.Report.Currency == "" {
		c.Report.Currency = "USD"
	}

	// 输出默认值
	if c.Output.Dir == "" {
		c.Output.Dir = "./output"
	}
	if c.Output.BufferSize == 0 {
		c.Output.BufferSize = 1000
	}
}

// Validate 验证配置合法性
// 检查所有必填项和数值范围
// 返回: 若配置无效则返回描述性错误
func (c *Config) Validate() error {
	var errs []string

	// 验证 API 配置
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		errs = append(errs, fmt.Sprintf("api.base_url: 无效的 API 地址 '%s'", c.API.BaseURL))
	}
	if c.API.TimeoutMs <= 0 {
		errs = append(errs, "api.timeout_ms: 请求超时必须为正数")
	}
	if c.API.PageSize <= 0 || c.API.PageSize > 2000 {
		errs = append(errs, fmt.Sprintf("api.page_size: 单页上限必须在 1-2000 之间，当前值: %d", c.API.PageSize))
	}
	if c.API.MaxFills < c.API.PageSize {
		errs = append(errs, "api.max_fills: 拉取上限不能小于单页上限")
	}
	if c.API.PageDelayMs < 0 {
		errs = append(errs, "api.page_delay_ms: 翻页间隔不能为负数")
	}
	if c.API.MaxRetries < 0 {
		errs = append(errs, "api.max_retries: 重试次数不能为负数")
	}
	if c.API.BatchDelayMs < 0 {
		errs = append(errs, "api.batch_delay_ms: 地址间隔不能为负数")
	}

	// 验证 WebSocket 配置
	if !strings.HasPrefix(c.WS.URL, "ws://") && !strings.HasPrefix(c.WS.URL, "wss://") {
		errs = append(errs, fmt.Sprintf("ws.url: 无效的 WebSocket 地址 '%s'", c.WS.URL))
	}
	if c.WS.PingIntervalMs <= 0 {
		errs = append(errs, "ws.ping_interval_ms: 心跳间隔必须为正数")
	}
	if c.WS.ReadTimeoutMs <= c.WS.PingIntervalMs {
		errs = append(errs, "ws.read_timeout_ms: 读取超时必须大于心跳间隔")
	}

	// 验证缓存配置
	if c.Cache.Dir == "" {
		errs = append(errs, "cache.dir: 缓存目录不能为空")
	}
	if c.Cache.TTLMinutes < 0 {
		errs = append(errs, "cache.ttl_minutes: 缓存有效期不能为负数")
	}

	// 验证夏普比率参数
	if c.Sharpe.RiskFreeRate < 0 || c.Sharpe.RiskFreeRate >= 1 {
		errs = append(errs, fmt.Sprintf("sharpe.risk_free_rate: 无风险利率必须在 0-1 之间，当前值: %f", c.Sharpe.RiskFreeRate))
	}

	// 验证报告配置
	if c.Report.Dir == "" {
		errs = append(errs, "report.dir: 报告目录不能为空")
	}
	if len(c.Report.Currency) != 3 {
		errs = append(errs, fmt.Sprintf("report.currency: 币种代码必须为 3 位字母，当前值: '%s'", c.Report.Currency))
	}

	// 验证输出配置
	if c.Output.Dir == "" {
		errs = append(errs, "output.dir: 输出目录不能为空")
	}
	if c.Output.BufferSize <= 0 {
		errs = append(errs, "output.buffer_size: 缓冲区大小必须为正数")
	}

	// 验证地址列表
	for i, addr := range c.Addresses {
		if !isHexAddress(addr) {
			errs = append(errs, fmt.Sprintf("addresses[%d]: 无效的钱包地址 '%s'", i, addr))
		}
	}

	// 验证日志级别
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.App.LogLevel)] {
		errs = append(errs, fmt.Sprintf("app.log_level: 无效的日志级别 '%s'，有效值: debug, info, warn, error", c.App.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("配置验证错误:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// isHexAddress 判断字符串是否为合法的钱包地址
// 格式: 0x 前缀 + 40 位十六进制字符
func isHexAddress(addr string) bool {
	if len(addr) != 42 || !strings.HasPrefix(addr, "0x") {
		return false
	}
	for _, r := range addr[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
