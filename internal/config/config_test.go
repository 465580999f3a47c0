// Package config 配置模块测试
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestConfigValidation_RiskFreeRate 测试无风险利率范围验证
// 属性: 利率在 [0, 1) 范围外应验证失败
func TestConfigValidation_RiskFreeRate(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// 属性: 利率 < 0 应验证失败
	properties.Property("利率小于0应验证失败", prop.ForAll(
		func(rate float64) bool {
			cfg := createValidConfig()
			cfg.Sharpe.RiskFreeRate = rate
			return cfg.Validate() != nil
		},
		gen.Float64Range(-1000, -0.0001),
	))

	// 属性: 利率 >= 1 应验证失败
	properties.Property("利率大于等于1应验证失败", prop.ForAll(
		func(rate float64) bool {
			cfg := createValidConfig()
			cfg.Sharpe.RiskFreeRate = rate
			return cfg.Validate() != nil
		},
		gen.Float64Range(1, 1000),
	))

	// 属性: 利率在 [0, 1) 范围内应验证通过
	properties.Property("利率在有效范围内应通过验证", prop.ForAll(
		func(rate float64) bool {
			cfg := createValidConfig()
			cfg.Sharpe.RiskFreeRate = rate
			return cfg.Validate() == nil
		},
		gen.Float64Range(0, 0.9999),
	))

	properties.TestingRun(t)
}

// TestConfigValidation_APIParams 测试 API 参数验证
func TestConfigValidation_APIParams(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// 属性: 单页上限非正数应验证失败
	properties.Property("单页上限非正数应验证失败", prop.ForAll(
		func(pageSize int) bool {
			cfg := createValidConfig()
			cfg.API.PageSize = pageSize
			return cfg.Validate() != nil
		},
		gen.IntRange(-1000, 0),
	))

	// 属性: 单页上限超过 API 限制应验证失败
	properties.Property("单页上限超过2000应验证失败", prop.ForAll(
		func(pageSize int) bool {
			cfg := createValidConfig()
			cfg.API.PageSize = pageSize
			return cfg.Validate() != nil
		},
		gen.IntRange(2001, 100000),
	))

	// 属性: 单页上限在 1-2000 之间应通过验证
	properties.Property("单页上限在有效范围内应通过验证", prop.ForAll(
		func(pageSize int) bool {
			cfg := createValidConfig()
			cfg.API.PageSize = pageSize
			return cfg.Validate() == nil
		},
		gen.IntRange(1, 2000),
	))

	// 属性: 拉取上限小于单页上限应验证失败
	properties.Property("拉取上限小于单页上限应验证失败", prop.ForAll(
		func(maxFills int) bool {
			cfg := createValidConfig()
			cfg.API.MaxFills = maxFills
			return cfg.Validate() != nil
		},
		gen.IntRange(1, 1999),
	))

	// 属性: 请求超时非正数应验证失败
	properties.Property("请求超时非正数应验证失败", prop.ForAll(
		func(timeout int) bool {
			cfg := createValidConfig()
			cfg.API.TimeoutMs = timeout
			return cfg.Validate() != nil
		},
		gen.IntRange(-10000, 0),
	))

	properties.TestingRun(t)
}

// TestConfigValidation_Addresses 测试钱包地址验证
func TestConfigValidation_Addresses(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// 属性: 任意 160 位整数格式化的地址应通过验证
	properties.Property("十六进制地址应通过验证", prop.ForAll(
		func(n int64) bool {
			cfg := createValidConfig()
			cfg.Addresses = []string{fmt.Sprintf("0x%040x", uint64(n))}
			return cfg.Validate() == nil
		},
		gen.Int64(),
	))

	// 属性: 长度不为 42 的地址应验证失败
	properties.Property("长度错误的地址应验证失败", prop.ForAll(
		func(length int) bool {
			cfg := createValidConfig()
			cfg.Addresses = []string{"0x" + strings.Repeat("a", length)}
			return cfg.Validate() != nil
		},
		gen.IntRange(1, 39),
	))

	properties.TestingRun(t)
}

// TestConfigValidation_WSParams 测试 WebSocket 参数验证
func TestConfigValidation_WSParams(t *testing.T) {
	cfg := createValidConfig()
	cfg.WS.ReadTimeoutMs = cfg.WS.PingIntervalMs // 读取超时不大于心跳间隔
	if cfg.Validate() == nil {
		t.Error("读取超时不大于心跳间隔应验证失败")
	}

	cfg = createValidConfig()
	cfg.WS.URL = "http://api.hyperliquid.xyz/ws" // 非 ws 协议
	if cfg.Validate() == nil {
		t.Error("非 ws 协议地址应验证失败")
	}
}

// TestIsHexAddress 测试地址格式判断
func TestIsHexAddress(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"0x1234567890abcdef1234567890abcdef12345678", true},
		{"0x1234567890ABCDEF1234567890ABCDEF12345678", true}, // 大写十六进制
		{"0x0000000000000000000000000000000000000000", true},
		{"1234567890abcdef1234567890abcdef12345678", false},    // 缺少 0x 前缀
		{"0x1234567890abcdef1234567890abcdef1234567", false},   // 长度不足
		{"0x1234567890abcdef1234567890abcdef123456789", false}, // 长度超出
		{"0x1234567890abcdef1234567890abcdef1234567g", false},  // 非十六进制字符
		{"", false},
		{"0x", false},
	}

	for _, tt := range tests {
		if got := isHexAddress(tt.addr); got != tt.want {
			t.Errorf("isHexAddress(%q) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

// createValidConfig 创建一个有效的配置用于测试
func createValidConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:     "test",
			LogLevel: "info",
		},
		API: APIConfig{
			BaseURL:          "https://api.hyperliquid.xyz",
			TimeoutMs:        30000,
			PageSize:         2000,
			MaxFills:         10000,
			PageDelayMs:      200,
			MaxRetries:       3,
			RateLimitPauseMs: 5000,
			BatchDelayMs:     1000,
		},
		WS: WSConfig{
			URL:            "wss://api.hyperliquid.xyz/ws",
			PingIntervalMs: 50000,
			ReadTimeoutMs:  60000,
		},
		Cache: CacheConfig{
			Dir:        "./cache",
			TTLMinutes: 1440,
		},
		Sharpe: SharpeConfig{
			RiskFreeRate: 0.03,
		},
		Report: ReportConfig{
			Dir:      "./reports",
			Currency: "USD",
		},
		Output: OutputConfig{
			Dir:           "./output",
			TradesEnabled: true,
			FillsEnabled:  true,
			BufferSize:    1000,
		},
		Addresses: []string{
			"0x1234567890abcdef1234567890abcdef12345678",
		},
	}
}

// TestLoad_ValidFile 测试从有效文件加载配置
func TestLoad_ValidFile(t *testing.T) {
	// 创建临时配置文件
	content := `
app:
  name: test-analyzer
  log_level: debug

api:
  base_url: https://api.hyperliquid.xyz
  timeout_ms: 20000
  page_size: 1000
  max_fills: 5000

ws:
  url: wss://api.hyperliquid.xyz/ws

cache:
  dir: ./test-cache
  ttl_minutes: 60

sharpe:
  risk_free_rate: 0.05

report:
  dir: ./test-reports

output:
  dir: ./test-output
  trades_enabled: true
  buffer_size: 500

addresses:
  - "0x1234567890abcdef1234567890abcdef12345678"
  - "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd"
`
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatalf("创建临时文件失败: %v", err)
	}

	// 加载配置
	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	// 验证加载的值
	if cfg.App.Name != "test-analyzer" {
		t.Errorf("App.Name = %s, want test-analyzer", cfg.App.Name)
	}
	if cfg.API.PageSize != 1000 {
		t.Errorf("API.PageSize = %d, want 1000", cfg.API.PageSize)
	}
	if len(cfg.Addresses) != 2 {
		t.Errorf("len(Addresses) = %d, want 2", len(cfg.Addresses))
	}
	if cfg.Sharpe.RiskFreeRate != 0.05 {
		t.Errorf("Sharpe.RiskFreeRate = %f, want 0.05", cfg.Sharpe.RiskFreeRate)
	}

	// 验证未配置项取默认值
	if cfg.API.PageDelayMs != 200 {
		t.Errorf("API.PageDelayMs = %d, want 默认值 200", cfg.API.PageDelayMs)
	}
	if cfg.WS.PingIntervalMs != 50000 {
		t.Errorf("WS.PingIntervalMs = %d, want 默认值 50000", cfg.WS.PingIntervalMs)
	}
	if cfg.Report.Currency != "USD" {
		t.Errorf("Report.Currency = %s, want 默认值 USD", cfg.Report.Currency)
	}
}

// TestLoad_InvalidFile 测试加载无效文件
func TestLoad_InvalidFile(t *testing.T) {
	// 测试不存在的文件
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("加载不存在的文件应返回错误")
	}
}

// TestLoad_InvalidYAML 测试加载无效 YAML
func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "invalid.yaml")
	if err := os.WriteFile(tmpFile, []byte("invalid: yaml: content:"), 0644); err != nil {
		t.Fatalf("创建临时文件失败: %v", err)
	}

	_, err := Load(tmpFile)
	if err == nil {
		t.Error("加载无效 YAML 应返回错误")
	}
}

// TestLoad_InvalidAddress 测试包含无效地址的配置
func TestLoad_InvalidAddress(t *testing.T) {
	content := `
addresses:
  - "not-an-address"
`
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatalf("创建临时文件失败: %v", err)
	}

	_, err := Load(tmpFile)
	if err == nil {
		t.Error("包含无效地址的配置应加载失败")
	}
}

// TestDefault 测试全默认配置
func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("默认配置应通过验证: %v", err)
	}
	if cfg.API.BaseURL != "https://api.hyperliquid.xyz" {
		t.Errorf("API.BaseURL = %s, want https://api.hyperliquid.xyz", cfg.API.BaseURL)
	}
	if !cfg.Output.TradesEnabled {
		t.Error("默认配置应启用平仓回合输出")
	}
}
