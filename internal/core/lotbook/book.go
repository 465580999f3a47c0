// Package lotbook 维护单个标的的未平仓批次队列。
// 多头、空头各一条 FIFO 队列：开仓入队尾，平仓从队头消耗，
// 最旧的批次总是最先被平掉，这是整个配对引擎的核心不变量。
package lotbook

import (
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/core/model"
)

// Epsilon 批次销毁阈值
// 剩余数量 ≤ 该值的批次视为已出清并销毁，容忍浮点数量表示的误差。
const Epsilon = 1e-9

// lot 未平仓批次
// 记录一次开仓的时间和尚未被平掉的数量
type lot struct {
	openMs    int64
	remaining float64
}

// Book 单标的批次簿
// 每次分析运行为每个标的创建独立实例，由调用方独占持有，
// 运行结束即丢弃；不跨运行共享，不做并发保护。
type Book struct {
	// symbol 交易标的
	symbol string
	// long 多头批次队列（队头最旧）
	long []lot
	// short 空头批次队列（队头最旧）
	short []lot
}

// New 创建批次簿
// 参数 symbol: 交易标的
func New(symbol string) *Book {
	return &Book{symbol: symbol}
}

// Push 追加开仓批次到队尾
// 参数 side: 持仓方向
// 参数 openMs: 开仓时间（毫秒）
// 参数 size: 开仓数量
func (b *Book) Push(side model.Side, openMs int64, size float64) {
	q := b.queue(side)
	*q = append(*q, lot{openMs: openMs, remaining: size})
}

// Consume 按 FIFO 规则消耗平仓数量
// 从队头开始配对：每次取 min(队头余量, 待平数量)，产生一个回合；
// 余量降到 Epsilon 以下的批次出队销毁，部分消耗的批次保留在队头。
// 队列耗尽后仍未配对的数量作为 unmatched 返回，本身不报错，
// 由撮合器计入诊断计数。
// 参数 side: 持仓方向
// 参数 closeMs: 平仓时间（毫秒）
// 参数 size: 待平数量
func (b *Book) Consume(side model.Side, closeMs int64, size float64) (trips []model.RoundTrip, unmatched float64) {
	q := b.queue(side)
	want := size

	for want > Epsilon && len(*q) > 0 {
		head := &(*q)[0]

		matched := head.remaining
		if matched > want {
			matched = want
		}

		trips = append(trips, model.RoundTrip{
			Symbol:  b.symbol,
			Side:    side,
			OpenMs:  head.openMs,
			CloseMs: closeMs,
			Size:    matched,
		})

		head.remaining -= matched
		want -= matched

		if head.remaining <= Epsilon {
			*q = (*q)[1:]
		}
	}

	// 剩余的浮点尘埃不算未配对量
	if want <= Epsilon {
		want = 0
	}
	return trips, want
}

// DrainAll 出清指定方向的全部批次
// 无视请求数量，每个批次按其剩余数量产生一个回合，队头最旧的在前。
// 仅由翻转事件使用：翻转总是完整反手。
// 参数 side: 持仓方向
// 参数 closeMs: 平仓时间（毫秒）
func (b *Book) DrainAll(side model.Side, closeMs int64) []model.RoundTrip {
	q := b.queue(side)
	if len(*q) == 0 {
		return nil
	}

	trips := make([]model.RoundTrip, 0, len(*q))
	for _, l := range *q {
		trips = append(trips, model.RoundTrip{
			Symbol:  b.symbol,
			Side:    side,
			OpenMs:  l.openMs,
			CloseMs: closeMs,
			Size:    l.remaining,
		})
	}

	*q = nil
	return trips
}

// OpenSize 获取指定方向的未平仓总量
func (b *Book) OpenSize(side model.Side) float64 {
	var total float64
	for _, l := range *b.queue(side) {
		total += l.remaining
	}
	return total
}

// Depth 获取指定方向的未平仓批次数
func (b *Book) Depth(side model.Side) int {
	return len(*b.queue(side))
}

func (b *Book) queue(side model.Side) *[]lot {
	if side == model.SideLong {
		return &b.long
	}
	return &b.short
}
