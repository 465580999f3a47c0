// Package fills 实现成交记录的归一化。
// 把交易所的自由文本方向标签映射为封闭的事件枚举，丢弃噪声记录，
// 并按时间稳定排序，为撮合器提供确定性的输入序列。
package fills

import (
	"sort"
	"strings"

	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/core/model"
)

// Classify 把原始方向标签映射为事件分类
// 匹配不区分大小写，按子串判断。翻转标签（"Short > Long" 等）同时
// 含有两个方向词，必须先于开平仓判断；开平仓判断再用反向词排除，
// 避免把未知的组合标签误判成单边事件。
// 现货标签 "Buy"/"Sell" 映射为开多/平多（现货没有空头）。
func Classify(direction string) model.EventKind {
	label := strings.ToLower(strings.TrimSpace(direction))

	switch {
	case strings.Contains(label, "short > long"), strings.Contains(label, "short>long"):
		return model.EventFlipShortToLong
	case strings.Contains(label, "long > short"), strings.Contains(label, "long>short"):
		return model.EventFlipLongToShort
	case strings.Contains(label, "open long") && !strings.Contains(label, "short"):
		return model.EventOpenLong
	case strings.Contains(label, "close long") && !strings.Contains(label, "short"):
		return model.EventCloseLong
	case strings.Contains(label, "open short") && !strings.Contains(label, "long"):
		return model.EventOpenShort
	case strings.Contains(label, "close short") && !strings.Contains(label, "long"):
		return model.EventCloseShort
	case label == "buy":
		return model.EventOpenLong
	case label == "sell":
		return model.EventCloseLong
	default:
		return model.EventUnclassified
	}
}

// Normalize 归一化一批成交记录
// 丢弃 Symbol 为空、TimeMs ≤ 0 或 Size ≤ 0 的记录（视为噪声而非错误），
// 其余记录分类后按 TimeMs 升序稳定排序：同一时间戳保持输入顺序，
// 保证相同输入得到逐位一致的输出。
// 纯函数：不做 I/O，不保留状态。
func Normalize(raw []model.Fill) []model.ClassifiedEvent {
	events := make([]model.ClassifiedEvent, 0, len(raw))
	for i := range raw {
		f := &raw[i]
		if f.Symbol == "" || f.TimeMs <= 0 || f.Size <= 0 {
			continue
		}
		events = append(events, model.ClassifiedEvent{
			Symbol: f.Symbol,
			Kind:   Classify(f.Direction),
			TimeMs: f.TimeMs,
			Size:   f.Size,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].TimeMs < events[j].TimeMs
	})

	return events
}
