// Package analyzer 编排单地址与批量地址的完整分析流程。
// 数据获取（缓存或 API）与纯计算管线分离：Compute 不做任何 I/O，
// 相同输入产出相同结果，统计口径的测试无需网络。
package analyzer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/cache"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/config"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/core/fills"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/core/match"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/core/model"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/exchange/hyperliquid"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/stats/holdtime"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/stats/pnl"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/stats/tradelevel"
)

// Analyzer 地址分析编排器
type Analyzer struct {
	// client Hyperliquid REST 客户端
	client *hyperliquid.Client
	// cache 成交数据文件缓存
	cache *cache.Cache
	// cfg 全局配置
	cfg *config.Config
	// logger 日志记录器
	logger *zap.Logger
}

// New 创建分析编排器
// 参数 client: REST 客户端
// 参数 c: 成交数据缓存
// 参数 cfg: 全局配置
// 参数 logger: 日志记录器
func New(client *hyperliquid.Client, c *cache.Cache, cfg *config.Config, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		client: client,
		cache:  c,
		cfg:    cfg,
		logger: logger.Named("analyzer"),
	}
}

// AnalyzeAddress 分析单个地址
// 成交数据走缓存，未命中或 force 为 true 时重新爬取 API；
// 账户快照获取失败只降级不中断，结果仅含成交数据部分。
// 参数 ctx: 上下文
// 参数 address: 钱包地址
// 参数 force: 是否跳过缓存强制刷新
func (a *Analyzer) AnalyzeAddress(ctx context.Context, address string, force bool) (*Result, error) {
	if err := hyperliquid.ValidateAddress(address); err != nil {
		return nil, err
	}
	short := hyperliquid.ShortAddress(address)

	raw, err := a.loadFills(ctx, address, force)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("地址 %s 没有成交记录", short)
	}

	state, err := a.client.ClearinghouseState(ctx, address)
	if err != nil {
		a.logger.Warn("账户快照获取失败，降级为仅成交数据",
			zap.String("address", short), zap.Error(err))
		state = nil
	}

	result := a.computeAt(address, raw, state, time.Now())

	if result.Diagnostics.HasAnomalies() {
		a.logger.Warn("配对诊断存在异常",
			zap.String("address", short),
			zap.Int64("unclassified_events", result.Diagnostics.UnclassifiedEvents),
			zap.Int64("unmatched_close_events", result.Diagnostics.UnmatchedCloseEvents),
			zap.Float64("unmatched_close_size", result.Diagnostics.UnmatchedCloseSize))
	}

	a.logger.Info("地址分析完成",
		zap.String("address", short),
		zap.Int("fills", result.FillCount),
		zap.Int("round_trips", len(result.RoundTrips)),
		zap.Float64("annualized_sharpe", result.Sharpe.AnnualizedSharpe))

	return result, nil
}

// AnalyzeBatch 顺序分析一批地址
// 单个地址失败只记录不中断，地址之间按配置间隔休眠，
// 上下文取消时停止处理剩余地址。
// 参数 ctx: 上下文
// 参数 addresses: 钱包地址列表
// 参数 force: 是否跳过缓存强制刷新
func (a *Analyzer) AnalyzeBatch(ctx context.Context, addresses []string, force bool) []AddressOutcome {
	outcomes := make([]AddressOutcome, 0, len(addresses))
	delay := time.Duration(a.cfg.API.BatchDelayMs) * time.Millisecond

	for i, addr := range addresses {
		if i > 0 && delay > 0 {
			if err := sleepCtx(ctx, delay); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		result, err := a.AnalyzeAddress(ctx, addr, force)
		if err != nil {
			a.logger.Warn("地址分析失败",
				zap.String("address", hyperliquid.ShortAddress(addr)),
				zap.Int("progress", i+1),
				zap.Int("total", len(addresses)),
				zap.Error(err))
		}
		outcomes = append(outcomes, AddressOutcome{Address: addr, Result: result, Err: err})
	}

	return outcomes
}

// Compute 对一批原始成交执行纯计算管线
// 解析 → 归一化 → FIFO 配对 → 持仓时长 / 盈亏 / 交易级别指标。
// 不访问网络与磁盘，便于离线重算与测试。
// 参数 address: 钱包地址
// 参数 raw: API 原始成交记录
// 参数 state: 账户快照，可为 nil
func (a *Analyzer) Compute(address string, raw []hyperliquid.Fill, state *hyperliquid.ClearinghouseState) *Result {
	return a.computeAt(address, raw, state, time.Now())
}

// computeAt 以显式的 now 执行计算管线，持仓时长窗口可复现
func (a *Analyzer) computeAt(address string, raw []hyperliquid.Fill, state *hyperliquid.ClearinghouseState, now time.Time) *Result {
	parsed := hyperliquid.ParseFills(raw)

	// API 返回新在前，统计层要求时间升序
	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].TimeMs < parsed[j].TimeMs
	})

	events := fills.Normalize(parsed)
	trips, diag := match.Match(events)
	ht := holdtime.Aggregate(trips, now)

	result := &Result{
		Address:     address,
		AnalyzedAt:  now,
		FillCount:   len(parsed),
		RoundTrips:  trips,
		Diagnostics: diag,
		HoldTime:    ht,
		WinRate:     pnl.WinRate(parsed),
		RealizedPnL: pnl.TotalClosedPnL(parsed),
		Drawdown:    tradelevel.MaxDrawdown(parsed),
		Trades:      tradelevel.Summary(parsed),
	}

	var unrealized []float64
	if state != nil {
		unrealized = state.UnrealizedPnLs()
		result.Account = Account{
			HasState:      true,
			Value:         state.AccountValue(),
			MarginUsed:    state.TotalMarginUsed(),
			Withdrawable:  state.WithdrawableValue(),
			OpenPositions: state.OpenPositionCount(),
			UnrealizedPnL: sum(unrealized),
		}
	}

	result.ProfitFactor = pnl.ProfitFactor(parsed, unrealized)
	result.Sharpe = tradelevel.Sharpe(parsed, ht.AllTimeAverage, a.cfg.Sharpe.RiskFreeRate)

	return result
}

// loadFills 取地址的原始成交数据
// 缓存命中直接返回；未命中或强制刷新时走 API 并回填缓存
func (a *Analyzer) loadFills(ctx context.Context, address string, force bool) ([]hyperliquid.Fill, error) {
	short := hyperliquid.ShortAddress(address)

	if !force {
		var cached []hyperliquid.Fill
		hit, err := a.cache.Get(address, &cached)
		if err != nil {
			return nil, fmt.Errorf("读取成交缓存失败: %w", err)
		}
		if hit {
			a.logger.Debug("成交缓存命中",
				zap.String("address", short), zap.Int("fills", len(cached)))
			return cached, nil
		}
	}

	raw, err := a.client.UserFills(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("获取成交数据失败: %w", err)
	}

	if err := a.cache.Put(address, raw); err != nil {
		a.logger.Warn("写入成交缓存失败",
			zap.String("address", short), zap.Error(err))
	}

	return raw, nil
}

// sum 浮点求和
func sum(vs []float64) float64 {
	var total float64
	for _, v := range vs {
		total += v
	}
	return total
}

// sleepCtx 可被上下文打断的休眠
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
