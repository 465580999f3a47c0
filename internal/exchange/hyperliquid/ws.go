// Package hyperliquid 实现 Hyperliquid WebSocket 实时成交订阅。
// 连接地址: wss://api.hyperliquid.xyz/ws
// 订阅频道: userFills（按地址订阅）
// 心跳机制: JSON ping/pong，默认 50 秒间隔，60 秒无消息视为连接失效
package hyperliquid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/config"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/core/model"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/util/backoff"
)

// wsPing 心跳消息
var wsPing = []byte(`{"method":"ping"}`)

// FillEvent 实时成交事件
// 同一连接可订阅多个地址，Address 标注成交归属
type FillEvent struct {
	// Address 成交所属钱包地址
	Address string
	// Fill 解析后的成交
	Fill model.Fill
}

// WSClient Hyperliquid WebSocket 客户端
// 订阅多个地址的实时成交并输出到通道
type WSClient struct {
	// cfg WebSocket 配置
	cfg config.WSConfig
	// addresses 订阅的钱包地址列表
	addresses []string
	// logger 日志记录器
	logger *zap.Logger
	// conn WebSocket 连接
	conn *websocket.Conn
	// connMu 连接锁
	connMu sync.Mutex
	// fillCh 成交事件输出通道
	fillCh chan FillEvent
	// backoff 重连退避
	backoff *backoff.Backoff
	// closed 是否已关闭
	closed int32
	// droppedCount 通道满丢弃计数
	droppedCount int64
}

// NewWSClient 创建 WebSocket 客户端
// 参数 cfg: WebSocket 配置
// 参数 addresses: 订阅的钱包地址列表
// 参数 logger: 日志记录器
func NewWSClient(cfg config.WSConfig, addresses []string, logger *zap.Logger) *WSClient {
	return &WSClient{
		cfg:       cfg,
		addresses: addresses,
		logger:    logger.Named("ws"),
		fillCh:    make(chan FillEvent, 1000),
		backoff:   backoff.NewReconnect(),
	}
}

// Connect 建立 WebSocket 连接
// 参数 ctx: 上下文，用于取消连接
func (c *WSClient) Connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	// 设置请求头
	header := http.Header{}
	header.Set("User-Agent", userAgent)

	// 建立连接
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("连接 Hyperliquid WebSocket 失败: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(c.readTimeout()))
	c.conn = conn
	c.backoff.Reset()
	c.logger.Info("WebSocket 连接成功", zap.String("url", c.cfg.URL))

	return nil
}

// Subscribe 订阅所有地址的 userFills 频道
func (c *WSClient) Subscribe() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("WebSocket 未连接")
	}

	for _, addr := range c.addresses {
		cmd := WsCommand{
			Method:       "subscribe",
			Subscription: &WsSubscription{Type: "userFills", User: addr},
		}

		data, err := json.Marshal(cmd)
		if err != nil {
			return fmt.Errorf("序列化订阅请求失败: %w", err)
		}

		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return fmt.Errorf("发送订阅请求失败: %w", err)
		}
	}

	c.logger.Info("订阅请求已发送", zap.Int("addresses", len(c.addresses)))
	return nil
}

// Run 启动客户端主循环
// 包含读取循环和心跳循环
func (c *WSClient) Run(ctx context.Context) {
	// 启动心跳 goroutine
	go c.heartbeatLoop(ctx)

	// 读取循环
	c.readLoop(ctx)
}

// readLoop 读取循环
// 持续读取 WebSocket 消息并分发
func (c *WSClient) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if atomic.LoadInt32(&c.closed) == 1 {
			return
		}

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			// 尝试重连
			c.reconnect(ctx)
			continue
		}

		// 读取消息
		_, data, err := conn.ReadMessage()
		if err != nil {
			if atomic.LoadInt32(&c.closed) == 1 {
				return
			}
			c.logger.Warn("读取消息失败", zap.Error(err))
			c.reconnect(ctx)
			continue
		}

		// 任何消息都说明连接存活，顺延读超时
		conn.SetReadDeadline(time.Now().Add(c.readTimeout()))

		c.handleMessage(data)
	}
}

// handleMessage 分发单条消息
func (c *WSClient) handleMessage(data []byte) {
	var msg WsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn("解析消息失败", zap.Error(err))
		return
	}

	switch msg.Channel {
	case "pong":
		// 心跳响应，读超时已在读取时顺延

	case "subscriptionResponse":
		c.logger.Debug("收到订阅响应", zap.ByteString("data", msg.Data))

	case "userFills":
		var uf WsUserFills
		if err := json.Unmarshal(msg.Data, &uf); err != nil {
			c.logger.Warn("解析 userFills 数据失败", zap.Error(err))
			return
		}

		// 订阅快照是历史数据，实时监控只关心新成交
		if uf.IsSnapshot {
			c.logger.Info("忽略订阅快照",
				zap.String("address", ShortAddress(uf.User)),
				zap.Int("fills", len(uf.Fills)))
			return
		}

		// 关闭后通道已不可写
		if atomic.LoadInt32(&c.closed) == 1 {
			return
		}

		for _, f := range ParseFills(uf.Fills) {
			select {
			case c.fillCh <- FillEvent{Address: uf.User, Fill: f}:
			default:
				atomic.AddInt64(&c.droppedCount, 1)
				c.logger.Warn("fillCh 已满，丢弃成交")
			}
		}

	default:
		c.logger.Debug("未知频道消息", zap.String("channel", msg.Channel))
	}
}

// heartbeatLoop 心跳循环
// Hyperliquid 要求 60 秒内至少一次 ping，否则服务端断开连接
func (c *WSClient) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(c.cfg.PingIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if atomic.LoadInt32(&c.closed) == 1 {
				return
			}

			c.connMu.Lock()
			conn := c.conn
			if conn == nil {
				c.connMu.Unlock()
				continue
			}

			// gorilla/websocket 不允许并发多写者，用 connMu 串行化写入
			if err := conn.WriteMessage(websocket.TextMessage, wsPing); err != nil {
				c.connMu.Unlock()
				c.logger.Warn("发送 ping 失败", zap.Error(err))
				continue
			}
			c.connMu.Unlock()
		}
	}
}

// reconnect 重连并重新订阅
func (c *WSClient) reconnect(ctx context.Context) {
	c.closeConn()

	// 等待退避时间
	delay := c.backoff.Next()
	c.logger.Info("准备重连", zap.Duration("delay", delay))

	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	// 重新连接
	if err := c.Connect(ctx); err != nil {
		c.logger.Error("重连失败", zap.Error(err))
		return
	}

	// 重新订阅
	if err := c.Subscribe(); err != nil {
		c.logger.Error("重新订阅失败", zap.Error(err))
	}
}

// closeConn 关闭连接
func (c *WSClient) closeConn() {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// Close 关闭客户端，可重复调用
func (c *WSClient) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}

	c.closeConn()
	close(c.fillCh)
	c.logger.Info("WebSocket 客户端已关闭")
	return nil
}

// Fills 获取成交事件通道
func (c *WSClient) Fills() <-chan FillEvent {
	return c.fillCh
}

// DroppedCount 获取因通道满而丢弃的成交数
func (c *WSClient) DroppedCount() int64 {
	return atomic.LoadInt64(&c.droppedCount)
}

// readTimeout 读超时时长
func (c *WSClient) readTimeout() time.Duration {
	return time.Duration(c.cfg.ReadTimeoutMs) * time.Millisecond
}
