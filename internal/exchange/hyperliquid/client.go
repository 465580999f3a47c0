// Package hyperliquid 实现 Hyperliquid info API 的 REST 客户端。
// 接口地址: POST {base}/info
// 翻页策略: userFillsByTime 按时间倒序翻页，endTime 取上一页最早记录减一
package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/config"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/util/backoff"
)

// userAgent 请求标识
const userAgent = "HyperliquidAnalyzer/1.0"

// Client Hyperliquid REST 客户端
type Client struct {
	// cfg API 配置
	cfg config.APIConfig
	// httpClient HTTP 客户端
	httpClient *http.Client
	// logger 日志记录器
	logger *zap.Logger
}

// NewClient 创建 REST 客户端
// 参数 cfg: API 配置
// 参数 logger: 日志记录器
func NewClient(cfg config.APIConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
		},
		logger: logger.Named("hyperliquid"),
	}
}

// ValidateAddress 验证钱包地址格式
// 要求: 0x 前缀 + 40 位十六进制字符
// 返回: 若地址无效则返回错误
func ValidateAddress(addr string) error {
	if len(addr) != 42 || !strings.HasPrefix(addr, "0x") {
		return fmt.Errorf("无效的钱包地址: '%s'", addr)
	}
	for _, r := range addr[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return fmt.Errorf("无效的钱包地址: '%s'", addr)
		}
	}
	return nil
}

// ShortAddress 地址缩写，用于日志和报告展示
// 如 0xfbd9...bd4f
func ShortAddress(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// UserFills 获取地址的全量成交记录
// API 按时间从新到旧返回，每页最多 PageSize 条；
// 第一页不带 endTime（取当前时间），后续页 endTime 为上一页最早记录的时间戳减一；
// 返回数量不足一页或达到 MaxFills 上限时停止。
// 参数 ctx: 上下文，用于取消请求
// 参数 address: 钱包地址
// 返回: 成交记录列表（从新到旧）
func (c *Client) UserFills(ctx context.Context, address string) ([]Fill, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}

	var (
		all     []Fill
		endTime *int64
		page    int
	)

	for len(all) < c.cfg.MaxFills {
		page++
		req := FillsByTimeRequest{
			Type:      "userFillsByTime",
			User:      address,
			StartTime: 0,
			EndTime:   endTime,
		}

		body, err := c.post(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("获取第 %d 页成交记录失败: %w", page, err)
		}

		var fills []Fill
		if err := json.Unmarshal(body, &fills); err != nil {
			return nil, fmt.Errorf("解析成交记录失败: %w", err)
		}

		if len(fills) == 0 {
			break
		}

		all = append(all, fills...)
		c.logger.Debug("获取成交记录分页",
			zap.Int("page", page),
			zap.Int("count", len(fills)),
			zap.Int("total", len(all)))

		// 返回数量不足一页说明已到最早记录
		if len(fills) < c.cfg.PageSize {
			break
		}

		// API 返回从新到旧，本页最后一条是最早的记录
		next := fills[len(fills)-1].Time - 1
		endTime = &next

		// 翻页间隔，避免触发限流
		if err := sleepCtx(ctx, time.Duration(c.cfg.PageDelayMs)*time.Millisecond); err != nil {
			return nil, err
		}
	}

	if len(all) > c.cfg.MaxFills {
		all = all[:c.cfg.MaxFills]
	}

	c.logger.Info("成交记录获取完成",
		zap.String("address", ShortAddress(address)),
		zap.Int("fills", len(all)),
		zap.Int("pages", page))

	return all, nil
}

// ClearinghouseState 获取地址的账户清算所状态
// 包含账户价值、保证金占用和当前持仓（含未实现盈亏）
// 参数 ctx: 上下文，用于取消请求
// 参数 address: 钱包地址
func (c *Client) ClearinghouseState(ctx context.Context, address string) (*ClearinghouseState, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}

	body, err := c.post(ctx, StateRequest{Type: "clearinghouseState", User: address})
	if err != nil {
		return nil, fmt.Errorf("获取账户状态失败: %w", err)
	}

	var state ClearinghouseState
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("解析账户状态失败: %w", err)
	}

	return &state, nil
}

// post 发送 info 请求，失败时指数退避重试
// HTTP 429 和 5xx 视为可重试，其余 4xx 立即失败
// 参数 ctx: 上下文
// 参数 payload: 请求体
// 返回: 响应体字节数组
func (c *Client) post(ctx context.Context, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	bo := backoff.NewRequest()
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, bo.Next()); err != nil {
				return nil, err
			}
			c.logger.Warn("请求重试", zap.Int("attempt", attempt), zap.Error(lastErr))
		}

		body, retryable, err := c.doPost(ctx, data)
		if err == nil {
			return body, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("请求重试 %d 次后仍失败: %w", c.cfg.MaxRetries, lastErr)
}

// doPost 执行单次 POST 请求
// 返回: 响应体、错误是否可重试、错误
func (c *Client) doPost(ctx context.Context, data []byte) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/info", bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("创建请求失败: %w", err)
	}

	// 设置请求头
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	// 限流: 额外等待后重试
	if resp.StatusCode == http.StatusTooManyRequests {
		c.logger.Warn("API 限流，暂停请求", zap.Int("pause_ms", c.cfg.RateLimitPauseMs))
		if err := sleepCtx(ctx, time.Duration(c.cfg.RateLimitPauseMs)*time.Millisecond); err != nil {
			return nil, false, err
		}
		return nil, true, fmt.Errorf("API 限流: HTTP 429")
	}

	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("HTTP 状态码错误: %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("HTTP 状态码错误: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("读取响应体失败: %w", err)
	}

	return body, false, nil
}

// sleepCtx 可取消的等待
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
