// Package match 实现仓位配对引擎。
// 对归一化后的事件序列做单次正向遍历，把平仓事件按 FIFO 规则与
// 最早的开仓批次配对，产出完整的开平回合列表。
// 引擎是纯内存变换：不做 I/O，不抛出任何错误，所有异常输入
// 都降级为诊断计数。
package match

import (
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/core/lotbook"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/core/model"
)

// Diagnostics 撮合诊断计数
// 两类静默降级（未识别标签、超量平仓）不影响配对结果本身，
// 但通过计数暴露出来，便于发现历史数据不完整等数据质量问题。
type Diagnostics struct {
	// UnclassifiedEvents 无法识别方向标签的事件数
	UnclassifiedEvents int64 `json:"unclassified_events"`
	// UnmatchedCloseEvents 发生超量平仓的事件数
	UnmatchedCloseEvents int64 `json:"unmatched_close_events"`
	// UnmatchedCloseSize 超量平仓被丢弃的数量合计
	// 超量通常意味着观测窗口之前已有持仓
	UnmatchedCloseSize float64 `json:"unmatched_close_size"`
	// OpenLots 遍历结束时仍未平仓的批次数
	// 未平仓批次不产生回合，不参与持仓时间统计
	OpenLots int64 `json:"open_lots"`
}

// Merge 累加另一份诊断计数，用于批量分析汇总
func (d *Diagnostics) Merge(other Diagnostics) {
	d.UnclassifiedEvents += other.UnclassifiedEvents
	d.UnmatchedCloseEvents += other.UnmatchedCloseEvents
	d.UnmatchedCloseSize += other.UnmatchedCloseSize
	d.OpenLots += other.OpenLots
}

// HasAnomalies 判断是否存在数据质量异常
func (d *Diagnostics) HasAnomalies() bool {
	return d.UnclassifiedEvents > 0 || d.UnmatchedCloseEvents > 0
}

// Match 重放事件序列并产出配对回合
// 事件必须已按时间升序排列（由归一化器保证）。每次调用构建独立的
// 批次簿集合，调用之间互不影响，批量并发分析无需加锁。
// 各标的完全隔离：一个标的的平仓永远不会消耗另一个标的的批次。
// 复杂度: 事件数的均摊线性（每个批次只入队出队一次）。
func Match(events []model.ClassifiedEvent) ([]model.RoundTrip, Diagnostics) {
	books := make(map[string]*lotbook.Book)
	var trips []model.RoundTrip
	var diag Diagnostics

	bookOf := func(symbol string) *lotbook.Book {
		b, ok := books[symbol]
		if !ok {
			b = lotbook.New(symbol)
			books[symbol] = b
		}
		return b
	}

	consume := func(symbol string, side model.Side, timeMs int64, size float64) {
		closed, unmatched := bookOf(symbol).Consume(side, timeMs, size)
		trips = append(trips, closed...)
		if unmatched > 0 {
			diag.UnmatchedCloseEvents++
			diag.UnmatchedCloseSize += unmatched
		}
	}

	for i := range events {
		ev := &events[i]
		switch ev.Kind {
		case model.EventOpenLong:
			bookOf(ev.Symbol).Push(model.SideLong, ev.TimeMs, ev.Size)
		case model.EventOpenShort:
			bookOf(ev.Symbol).Push(model.SideShort, ev.TimeMs, ev.Size)
		case model.EventCloseLong:
			consume(ev.Symbol, model.SideLong, ev.TimeMs, ev.Size)
		case model.EventCloseShort:
			consume(ev.Symbol, model.SideShort, ev.TimeMs, ev.Size)
		case model.EventFlipShortToLong:
			// 翻转总是完整反手：先出清全部空头，再以本笔数量开多
			b := bookOf(ev.Symbol)
			trips = append(trips, b.DrainAll(model.SideShort, ev.TimeMs)...)
			b.Push(model.SideLong, ev.TimeMs, ev.Size)
		case model.EventFlipLongToShort:
			b := bookOf(ev.Symbol)
			trips = append(trips, b.DrainAll(model.SideLong, ev.TimeMs)...)
			b.Push(model.SideShort, ev.TimeMs, ev.Size)
		case model.EventUnclassified:
			diag.UnclassifiedEvents++
		}
	}

	for _, b := range books {
		diag.OpenLots += int64(b.Depth(model.SideLong) + b.Depth(model.SideShort))
	}

	return trips, diag
}
