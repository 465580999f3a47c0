// Package holdtime 统计配对回合的持仓时长。
// 按平仓时间把回合归入 今日 / 最近7天 / 最近30天 / 全部 四个窗口，
// 输出每个窗口持仓天数的算术平均值。
package holdtime

import (
	"time"

	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/core/model"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/util/timeutil"
)

// Stats 持仓时长统计结果
// 四个字段单位都是天，空窗口为 0。
type Stats struct {
	// TodayAverage 今日平均持仓时长
	TodayAverage float64 `json:"todayAverage"`
	// Last7DaysAverage 最近 7 天平均持仓时长
	Last7DaysAverage float64 `json:"last7DaysAverage"`
	// Last30DaysAverage 最近 30 天平均持仓时长
	Last30DaysAverage float64 `json:"last30DaysAverage"`
	// AllTimeAverage 全部时间平均持仓时长
	AllTimeAverage float64 `json:"allTimeAverage"`
}

// Aggregate 计算四个时间窗口的平均持仓时长
// 窗口按平仓时间归属，以 now 所在日历日的零点为锚：
//   today:   CloseMs ≥ 零点
//   last7d:  CloseMs ≥ 零点往前 7 个日历日
//   last30d: CloseMs ≥ 零点往前 30 个日历日
//   allTime: 全部回合
// 一个回合可同时落入多个窗口；每个回合贡献一个等权样本，
// 不按配对数量加权。对相同的 trips 和 now 结果幂等。
func Aggregate(trips []model.RoundTrip, now time.Time) Stats {
	midnightMs := timeutil.MidnightMs(now)
	weekAgoMs := timeutil.DaysAgoMs(now, 7)
	monthAgoMs := timeutil.DaysAgoMs(now, 30)

	var (
		todaySum, weekSum, monthSum, allSum         float64
		todayCount, weekCount, monthCount, allCount int
	)

	for i := range trips {
		tr := &trips[i]
		d := tr.HoldDays()

		allSum += d
		allCount++

		if tr.CloseMs >= monthAgoMs {
			monthSum += d
			monthCount++
		}
		if tr.CloseMs >= weekAgoMs {
			weekSum += d
			weekCount++
		}
		if tr.CloseMs >= midnightMs {
			todaySum += d
			todayCount++
		}
	}

	return Stats{
		TodayAverage:      mean(todaySum, todayCount),
		Last7DaysAverage:  mean(weekSum, weekCount),
		Last30DaysAverage: mean(monthSum, monthCount),
		AllTimeAverage:    mean(allSum, allCount),
	}
}

// mean 算术平均，空样本返回 0 而非 NaN
func mean(sum float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
