// Package cache 实现按地址的成交数据文件缓存。
// 重复分析同一地址时避免重新爬取 API；写入采用临时文件加重命名，
// 进程中断不会留下半截缓存。
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/util/timeutil"
)

// envelope 缓存文件信封
// 负载按原样保留，过期判断只看 cached_at_ms
type envelope struct {
	// CachedAtMs 写入时间戳（毫秒）
	CachedAtMs int64 `json:"cached_at_ms"`
	// Payload 缓存负载
	Payload json.RawMessage `json:"payload"`
}

// Cache 按地址的 JSON 文件缓存
type Cache struct {
	// dir 缓存目录
	dir string
	// ttl 缓存有效期，0 表示永不过期
	ttl time.Duration
	// logger 日志记录器
	logger *zap.Logger
}

// New 创建文件缓存
// 参数 dir: 缓存目录
// 参数 ttl: 缓存有效期，0 表示永不过期
// 参数 logger: 日志记录器
func New(dir string, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{
		dir:    dir,
		ttl:    ttl,
		logger: logger.Named("cache"),
	}
}

// Get 读取地址的缓存数据
// 文件缺失、过期或损坏都按未命中处理，不会返回致命错误；
// 过期与损坏的文件会被清除。
// 参数 address: 钱包地址
// 参数 v: 反序列化目标
// 返回: 是否命中
func (c *Cache) Get(address string, v any) (bool, error) {
	path := c.pathFor(address)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("读取缓存文件失败: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.Warn("缓存文件损坏，按未命中处理",
			zap.String("path", path), zap.Error(err))
		c.remove(path)
		return false, nil
	}

	// 过期检查
	if c.ttl > 0 {
		age := time.Duration(timeutil.SinceMs(env.CachedAtMs)) * time.Millisecond
		if age > c.ttl {
			c.logger.Debug("缓存已过期",
				zap.String("path", path), zap.Duration("age", age))
			c.remove(path)
			return false, nil
		}
	}

	if err := json.Unmarshal(env.Payload, v); err != nil {
		c.logger.Warn("缓存负载解析失败，按未命中处理",
			zap.String("path", path), zap.Error(err))
		c.remove(path)
		return false, nil
	}

	return true, nil
}

// Put 写入地址的缓存数据
// 先写临时文件再原子重命名
// 参数 address: 钱包地址
// 参数 v: 缓存负载
func (c *Cache) Put(address string, v any) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("创建缓存目录失败: %w", err)
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("序列化缓存负载失败: %w", err)
	}

	data, err := json.Marshal(envelope{
		CachedAtMs: timeutil.NowMs(),
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("序列化缓存信封失败: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, "cache-*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.pathFor(address)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("重命名缓存文件失败: %w", err)
	}

	return nil
}

// Invalidate 删除地址的缓存
// 文件不存在不视为错误
func (c *Cache) Invalidate(address string) error {
	err := os.Remove(c.pathFor(address))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("删除缓存文件失败: %w", err)
	}
	return nil
}

// Clear 清空缓存目录下的全部缓存文件
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("读取缓存目录失败: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		c.remove(filepath.Join(c.dir, entry.Name()))
	}

	return nil
}

// pathFor 地址对应的缓存文件路径
// 地址统一转小写，同一地址的大小写变体命中同一文件
func (c *Cache) pathFor(address string) string {
	return filepath.Join(c.dir, strings.ToLower(address)+".json")
}

// remove 尽力删除文件
func (c *Cache) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("删除缓存文件失败", zap.String("path", path), zap.Error(err))
	}
}
