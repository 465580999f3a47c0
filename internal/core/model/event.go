package model

// Side 持仓方向
type Side string

const (
	// SideLong 多头方向
	SideLong Side = "long"
	// SideShort 空头方向
	SideShort Side = "short"
)

// Opposite 获取相反方向
func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}
	return SideLong
}

// EventKind 成交事件分类
// 由原始方向标签归一化得到的封闭枚举
type EventKind string

const (
	// EventOpenLong 开多
	EventOpenLong EventKind = "open_long"
	// EventCloseLong 平多
	EventCloseLong EventKind = "close_long"
	// EventOpenShort 开空
	EventOpenShort EventKind = "open_short"
	// EventCloseShort 平空
	EventCloseShort EventKind = "close_short"
	// EventFlipShortToLong 空翻多
	// 撮合时先平掉全部空头，再以本笔数量开多
	EventFlipShortToLong EventKind = "flip_short_to_long"
	// EventFlipLongToShort 多翻空
	// 撮合时先平掉全部多头，再以本笔数量开空
	EventFlipLongToShort EventKind = "flip_long_to_short"
	// EventUnclassified 无法识别的方向标签
	// 撮合阶段跳过并计数，不视为错误
	EventUnclassified EventKind = "unclassified"
)

// ClassifiedEvent 分类后的成交事件
// 由归一化器产出，按 TimeMs 升序排列；同时间戳保持输入顺序。
type ClassifiedEvent struct {
	// Symbol 交易标的
	Symbol string
	// Kind 事件分类
	Kind EventKind
	// TimeMs 成交时间（毫秒时间戳）
	TimeMs int64
	// Size 成交数量（绝对值）
	Size float64
}
