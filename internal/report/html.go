// Package report 渲染分析结果。
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/analyzer"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/exchange/hyperliquid"
)

// mdRenderer 明细区的 Markdown 渲染器，GFM 扩展支持表格语法
var mdRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// htmlRow 汇总表格的一行数据，嵌入页面 JS 排序与过滤
type htmlRow struct {
	Rank          int     `json:"rank"`
	Address       string  `json:"address"`
	TotalTrades   int     `json:"total_trades"`
	WinRate       float64 `json:"win_rate"`
	SharpeRatio   float64 `json:"sharpe_ratio"`
	ProfitFactor  float64 `json:"profit_factor"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	TotalPnL      float64 `json:"total_pnl"`
	AccountValue  float64 `json:"account_value"`
	MeanReturn    float64 `json:"mean_return"`
	StdReturn     float64 `json:"std_return"`
	Bias          float64 `json:"bias"`
	AvgHoldTime   float64 `json:"avg_hold_time"`
	HoldTime7d    float64 `json:"hold_time_7d"`
	HoldTime30d   float64 `json:"hold_time_30d"`
	OpenPositions int     `json:"total_positions"`
	TradingDays   float64 `json:"trading_days"`
	RealizedPnL   float64 `json:"total_realized_pnl"`
	UnrealizedPnL float64 `json:"total_unrealized_pnl"`
}

// htmlDetail 单地址的可折叠明细
type htmlDetail struct {
	Address string
	Short   string
	Body    template.HTML
	Err     string
}

// htmlPage 页面模板数据
type htmlPage struct {
	Title           string
	GeneratedAt     string
	SuccessCount    int
	TotalCount      int
	AvgSharpe       string
	AvgSharpeClass  string
	AvgWinRate      string
	TotalPnL        string
	TotalPnLClass   string
	ProfitableCount int
	RowsJSON        template.JS
	Details         []htmlDetail
}

// HTML 渲染批量分析的 HTML 报告
// 单文件深色主题页面：统计卡片、可排序汇总表格、
// 每个地址一个由 Markdown 渲染的可折叠明细区。
// 参数 outcomes: 批量分析结果
// 参数 currency: 货币代码
// 参数 generatedAt: 报告生成时间
func HTML(outcomes []analyzer.AddressOutcome, currency string, generatedAt time.Time) (string, error) {
	rows, details, totalPnL, err := buildRows(outcomes, currency)
	if err != nil {
		return "", err
	}

	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("序列化表格数据失败: %w", err)
	}

	page := htmlPage{
		Title:        "Hyperliquid 交易地址分析报告",
		GeneratedAt:  generatedAt.Format("2006-01-02 15:04:05"),
		SuccessCount: len(rows),
		TotalCount:   len(outcomes),
		TotalPnL:     Money(totalPnL, currency),
		RowsJSON:     template.JS(rowsJSON),
		Details:      details,
	}

	var sharpeSum, winSum float64
	for _, row := range rows {
		sharpeSum += row.SharpeRatio
		winSum += row.WinRate
		if row.TotalPnL > 0 {
			page.ProfitableCount++
		}
	}
	if n := float64(len(rows)); n > 0 {
		page.AvgSharpe = fmt.Sprintf("%.2f", sharpeSum/n)
		page.AvgWinRate = Percent(winSum/n, 1)
	} else {
		page.AvgSharpe = "0.00"
		page.AvgWinRate = Percent(0, 1)
	}
	page.AvgSharpeClass = signClass(sharpeSum)
	page.TotalPnLClass = signClass(totalPnL)

	var buf bytes.Buffer
	if err := htmlTpl.Execute(&buf, page); err != nil {
		return "", fmt.Errorf("渲染 HTML 报告失败: %w", err)
	}
	return buf.String(), nil
}

// WriteHTML 渲染并写入批量 HTML 报告
// 文件名带时间戳: trading_report_YYYYMMDD_HHMMSS.html
// 返回: 报告文件路径
func WriteHTML(dir string, outcomes []analyzer.AddressOutcome, currency string, generatedAt time.Time) (string, error) {
	content, err := HTML(outcomes, currency, generatedAt)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %w", err)
	}

	name := fmt.Sprintf("trading_report_%s.html", generatedAt.Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("写入 HTML 报告失败: %w", err)
	}
	return path, nil
}

// buildRows 把批量结果整理成表格行与明细区
// 成功结果按年化 Sharpe 降序排名进表格；失败结果只出现在明细区。
func buildRows(outcomes []analyzer.AddressOutcome, currency string) ([]htmlRow, []htmlDetail, float64, error) {
	succeeded := make([]*analyzer.Result, 0, len(outcomes))
	for _, oc := range outcomes {
		if oc.Err == nil && oc.Result != nil {
			succeeded = append(succeeded, oc.Result)
		}
	}
	sort.SliceStable(succeeded, func(i, j int) bool {
		return succeeded[i].Sharpe.AnnualizedSharpe > succeeded[j].Sharpe.AnnualizedSharpe
	})

	rows := make([]htmlRow, 0, len(succeeded))
	var totalPnL float64
	for i, r := range succeeded {
		rows = append(rows, htmlRow{
			Rank:          i + 1,
			Address:       r.Address,
			TotalTrades:   r.WinRate.TotalTrades,
			WinRate:       r.WinRate.WinRate,
			SharpeRatio:   r.Sharpe.AnnualizedSharpe,
			ProfitFactor:  clampProfitFactor(r.ProfitFactor),
			MaxDrawdown:   r.Drawdown.MaxDrawdownPct,
			TotalPnL:      r.TotalPnL(),
			AccountValue:  r.Account.Value,
			MeanReturn:    r.Sharpe.MeanReturnPerTrade * 100,
			StdReturn:     r.Sharpe.StdDev * 100,
			Bias:          r.WinRate.Bias,
			AvgHoldTime:   r.HoldTime.AllTimeAverage,
			HoldTime7d:    r.HoldTime.Last7DaysAverage,
			HoldTime30d:   r.HoldTime.Last30DaysAverage,
			OpenPositions: r.Account.OpenPositions,
			TradingDays:   r.TradingDays(),
			RealizedPnL:   r.RealizedPnL,
			UnrealizedPnL: r.Account.UnrealizedPnL,
		})
		totalPnL += r.TotalPnL()
	}

	details := make([]htmlDetail, 0, len(outcomes))
	for _, oc := range outcomes {
		d := htmlDetail{
			Address: oc.Address,
			Short:   hyperliquid.ShortAddress(oc.Address),
		}
		if oc.Err != nil {
			d.Err = oc.Err.Error()
		} else if oc.Result != nil {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(Markdown(oc.Result, currency)), &buf); err != nil {
				return nil, nil, 0, fmt.Errorf("渲染地址明细失败: %w", err)
			}
			d.Body = template.HTML(buf.String())
		}
		details = append(details, d)
	}

	return rows, details, totalPnL, nil
}

// signClass 按正负返回着色样式名
func signClass(v float64) string {
	if v < 0 {
		return "negative"
	}
	return "positive"
}

var htmlTpl = template.Must(template.New("report").Parse(reportHTML))

const reportHTML = `<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
:root {
  --bg-primary: #0d1117;
  --bg-secondary: #161b22;
  --bg-tertiary: #21262d;
  --border-color: #30363d;
  --text-primary: #e6edf3;
  --text-secondary: #8b949e;
  --text-muted: #6e7681;
  --accent-cyan: #58a6ff;
  --accent-green: #3fb950;
  --accent-red: #f85149;
  --accent-purple: #a371f7;
}
* { margin: 0; padding: 0; box-sizing: border-box; }
body {
  font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', 'Noto Sans', Helvetica, Arial, sans-serif;
  background-color: var(--bg-primary);
  color: var(--text-primary);
  line-height: 1.5;
  padding: 20px;
}
.container { max-width: 1800px; margin: 0 auto; }
.header {
  text-align: center;
  padding: 30px 0;
  border-bottom: 1px solid var(--border-color);
  margin-bottom: 30px;
}
.header h1 { font-size: 2rem; color: var(--accent-cyan); }
.header .subtitle { color: var(--text-secondary); margin-top: 8px; font-size: 0.9rem; }
.stats-grid {
  display: grid;
  grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
  gap: 16px;
  margin-bottom: 30px;
}
.stat-card {
  background: var(--bg-secondary);
  border: 1px solid var(--border-color);
  border-radius: 8px;
  padding: 16px;
  text-align: center;
}
.stat-card .label { color: var(--text-secondary); font-size: 0.85rem; margin-bottom: 4px; }
.stat-card .value { font-size: 1.5rem; font-weight: 600; }
.table-container {
  background: var(--bg-secondary);
  border: 1px solid var(--border-color);
  border-radius: 8px;
  overflow: hidden;
  margin-bottom: 30px;
}
.table-header {
  display: flex;
  justify-content: space-between;
  align-items: center;
  padding: 16px 20px;
  border-bottom: 1px solid var(--border-color);
}
.table-header h2 { font-size: 1.1rem; }
.search-input {
  background: var(--bg-tertiary);
  border: 1px solid var(--border-color);
  border-radius: 6px;
  padding: 8px 12px;
  color: var(--text-primary);
  font-size: 0.9rem;
  width: 250px;
}
.search-input:focus { outline: none; border-color: var(--accent-cyan); }
.table-wrapper { overflow-x: auto; }
table { width: 100%; border-collapse: collapse; font-size: 0.9rem; }
th {
  background: var(--bg-tertiary);
  color: var(--accent-cyan);
  font-weight: 600;
  text-align: left;
  padding: 12px 16px;
  border-bottom: 1px solid var(--border-color);
  white-space: nowrap;
  cursor: pointer;
  user-select: none;
}
th:hover { background: var(--bg-primary); }
th .sort-icon { margin-left: 4px; opacity: 0.3; }
th.sort-asc .sort-icon, th.sort-desc .sort-icon { opacity: 1; }
th.sort-asc .sort-icon::after { content: '▲'; }
th.sort-desc .sort-icon::after { content: '▼'; }
th:not(.sort-asc):not(.sort-desc) .sort-icon::after { content: '⇅'; }
td { padding: 12px 16px; border-bottom: 1px solid var(--border-color); white-space: nowrap; }
tr:hover { background: var(--bg-tertiary); }
.rank { color: var(--text-muted); font-weight: 500; }
.address { font-family: 'SF Mono', Monaco, 'Andale Mono', monospace; color: var(--accent-purple); font-size: 0.85rem; }
.positive { color: var(--accent-green); }
.negative { color: var(--accent-red); }
.neutral { color: var(--text-secondary); }
.highlight { font-weight: 600; }
.detail-card {
  background: var(--bg-secondary);
  border: 1px solid var(--border-color);
  border-radius: 8px;
  margin-bottom: 12px;
  overflow: hidden;
}
.detail-card summary {
  padding: 14px 20px;
  cursor: pointer;
  user-select: none;
  font-size: 0.95rem;
}
.detail-card summary:hover { background: var(--bg-tertiary); }
.markdown-body { padding: 8px 24px 24px; }
.markdown-body h1 { font-size: 1.4rem; margin: 16px 0 8px; color: var(--accent-cyan); }
.markdown-body h2 { font-size: 1.15rem; margin: 16px 0 8px; }
.markdown-body h3 { font-size: 1rem; margin: 12px 0 6px; color: var(--text-secondary); }
.markdown-body p { margin: 8px 0; }
.markdown-body hr { border: none; border-top: 1px solid var(--border-color); margin: 16px 0; }
.markdown-body table { width: auto; min-width: 320px; margin: 8px 0; }
.markdown-body th { cursor: default; }
.markdown-body code {
  background: var(--bg-tertiary);
  border-radius: 4px;
  padding: 2px 6px;
  font-size: 0.85em;
}
.markdown-body pre {
  background: var(--bg-tertiary);
  border-radius: 6px;
  padding: 12px;
  overflow-x: auto;
  margin: 8px 0;
}
.markdown-body pre code { background: none; padding: 0; }
.markdown-body blockquote {
  border-left: 3px solid var(--accent-cyan);
  padding-left: 12px;
  color: var(--text-secondary);
  margin: 8px 0;
}
.column-toggle {
  background: var(--bg-tertiary);
  border: 1px solid var(--border-color);
  border-radius: 6px;
  padding: 8px 16px;
  color: var(--text-primary);
  cursor: pointer;
  font-size: 0.85rem;
}
.column-toggle:hover { background: var(--bg-primary); }
.column-menu {
  position: absolute;
  top: 100%;
  right: 0;
  background: var(--bg-secondary);
  border: 1px solid var(--border-color);
  border-radius: 8px;
  padding: 12px;
  z-index: 100;
  display: none;
  min-width: 200px;
  max-height: 400px;
  overflow-y: auto;
}
.column-menu.show { display: block; }
.column-menu label {
  display: flex;
  align-items: center;
  gap: 8px;
  padding: 6px 0;
  cursor: pointer;
  font-size: 0.85rem;
}
.column-menu label:hover { color: var(--accent-cyan); }
.section-title { font-size: 1.1rem; margin: 30px 0 12px; }
.footer {
  text-align: center;
  padding: 20px;
  color: var(--text-muted);
  font-size: 0.85rem;
  margin-top: 30px;
  border-top: 1px solid var(--border-color);
}
@media (max-width: 768px) {
  .stats-grid { grid-template-columns: repeat(2, 1fr); }
  .search-input { width: 100%; }
}
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>🔍 {{.Title}}</h1>
    <p class="subtitle">生成时间: {{.GeneratedAt}} | 数据来源: Hyperliquid API</p>
  </div>

  <div class="stats-grid">
    <div class="stat-card">
      <div class="label">分析地址数</div>
      <div class="value">{{.SuccessCount}} / {{.TotalCount}}</div>
    </div>
    <div class="stat-card">
      <div class="label">平均夏普比率</div>
      <div class="value {{.AvgSharpeClass}}">{{.AvgSharpe}}</div>
    </div>
    <div class="stat-card">
      <div class="label">平均胜率</div>
      <div class="value">{{.AvgWinRate}}</div>
    </div>
    <div class="stat-card">
      <div class="label">总累计盈亏</div>
      <div class="value {{.TotalPnLClass}}">{{.TotalPnL}}</div>
    </div>
    <div class="stat-card">
      <div class="label">盈利地址数</div>
      <div class="value positive">{{.ProfitableCount}} / {{.SuccessCount}}</div>
    </div>
  </div>

  <div class="table-container">
    <div class="table-header">
      <h2>📊 详细数据表格</h2>
      <div style="display: flex; gap: 12px; align-items: center;">
        <input type="text" class="search-input" id="searchInput" placeholder="搜索地址...">
        <div style="position: relative;">
          <button class="column-toggle" id="columnToggle">显示列 ▼</button>
          <div class="column-menu" id="columnMenu"></div>
        </div>
      </div>
    </div>
    <div class="table-wrapper">
      <table id="dataTable">
        <thead><tr id="tableHeader"></tr></thead>
        <tbody id="tableBody"></tbody>
      </table>
    </div>
  </div>

  <h2 class="section-title">📋 地址明细</h2>
  {{range .Details}}
  <details class="detail-card">
    <summary><span class="address">{{.Short}}</span>{{if .Err}} <span class="negative">✗ {{.Err}}</span>{{end}}</summary>
    {{if .Err}}<div class="markdown-body"><p class="negative">分析失败: {{.Err}}</p></div>
    {{else}}<div class="markdown-body">{{.Body}}</div>{{end}}
  </details>
  {{end}}

  <div class="footer">
    <p>📈 Hyperliquid Analyzer | 基于 Hyperliquid 官方 API</p>
    <p>所有指标基于单笔交易收益率计算，不依赖本金数据</p>
  </div>
</div>

<script>
const tableData = {{.RowsJSON}};

const columns = [
  { key: 'rank', label: '#', format: v => v, defaultVisible: true },
  { key: 'address', label: '地址', format: v => v, defaultVisible: true, isAddress: true },
  { key: 'total_trades', label: '交易数', format: v => v.toLocaleString(), defaultVisible: true },
  { key: 'win_rate', label: '胜率', format: v => v.toFixed(1) + '%', defaultVisible: true },
  { key: 'sharpe_ratio', label: '夏普比率', format: v => v.toFixed(2), defaultVisible: true, colorByValue: true },
  { key: 'profit_factor', label: '盈利因子', format: v => v >= 1000 ? '∞' : v.toFixed(2), defaultVisible: true, colorByValue: true, threshold: 1 },
  { key: 'max_drawdown', label: '最大回撤', format: v => v.toFixed(2) + '%', defaultVisible: true },
  { key: 'total_pnl', label: '总PNL', format: v => formatCurrency(v), defaultVisible: true, colorByValue: true },
  { key: 'account_value', label: '账户价值', format: v => formatCurrency(v), defaultVisible: true },
  { key: 'mean_return', label: '平均收益率', format: v => v.toFixed(2) + '%', defaultVisible: true, colorByValue: true },
  { key: 'std_return', label: '收益率标准差', format: v => v.toFixed(2) + '%', defaultVisible: false },
  { key: 'bias', label: '方向偏好', format: v => v.toFixed(1) + '%', defaultVisible: false },
  { key: 'avg_hold_time', label: '平均持仓时间', format: v => formatHoldTime(v), defaultVisible: true },
  { key: 'hold_time_7d', label: '持仓(7天)', format: v => formatHoldTime(v), defaultVisible: false },
  { key: 'hold_time_30d', label: '持仓(30天)', format: v => formatHoldTime(v), defaultVisible: false },
  { key: 'total_positions', label: '当前持仓', format: v => v, defaultVisible: false },
  { key: 'trading_days', label: '交易天数', format: v => v.toFixed(1), defaultVisible: false },
  { key: 'total_realized_pnl', label: '已实现PNL', format: v => formatCurrency(v), defaultVisible: false, colorByValue: true },
  { key: 'total_unrealized_pnl', label: '未实现PNL', format: v => formatCurrency(v), defaultVisible: false, colorByValue: true },
];

let visibleColumns = columns.filter(c => c.defaultVisible).map(c => c.key);
let currentSort = { key: 'rank', dir: 'asc' };

function formatCurrency(value) {
  if (Math.abs(value) >= 1000000) {
    return '$' + (value / 1000000).toFixed(2) + 'M';
  } else if (Math.abs(value) >= 1000) {
    return '$' + value.toLocaleString(undefined, { maximumFractionDigits: 0 });
  }
  return '$' + value.toFixed(2);
}

function formatHoldTime(days) {
  if (days === 0) return '0';
  if (days >= 1) return days.toFixed(1) + '天';
  if (days >= 1 / 24) return (days * 24).toFixed(1) + '时';
  return (days * 24 * 60).toFixed(0) + '分';
}

function renderHeader() {
  const header = document.getElementById('tableHeader');
  header.innerHTML = '';
  visibleColumns.forEach(key => {
    const col = columns.find(c => c.key === key);
    const th = document.createElement('th');
    th.dataset.key = key;
    th.innerHTML = col.label + ' <span class="sort-icon"></span>';
    if (currentSort.key === key) {
      th.classList.add(currentSort.dir === 'asc' ? 'sort-asc' : 'sort-desc');
    }
    th.addEventListener('click', () => sortTable(key));
    header.appendChild(th);
  });
}

function renderTable(data) {
  const tbody = document.getElementById('tableBody');
  tbody.innerHTML = '';
  data.forEach(row => {
    const tr = document.createElement('tr');
    visibleColumns.forEach(key => {
      const col = columns.find(c => c.key === key);
      const td = document.createElement('td');
      const value = row[key];
      td.textContent = col.format(value);
      if (col.isAddress) td.classList.add('address');
      if (key === 'rank') td.classList.add('rank');
      if (col.colorByValue) {
        const threshold = col.threshold || 0;
        if (value > threshold) {
          td.classList.add('positive', 'highlight');
        } else if (value < threshold) {
          td.classList.add('negative');
        } else {
          td.classList.add('neutral');
        }
      }
      tr.appendChild(td);
    });
    tbody.appendChild(tr);
  });
}

function sortTable(key) {
  if (currentSort.key === key) {
    currentSort.dir = currentSort.dir === 'asc' ? 'desc' : 'asc';
  } else {
    currentSort.key = key;
    currentSort.dir = 'desc';
  }
  const sorted = [...tableData].sort((a, b) => {
    const aVal = a[key], bVal = b[key];
    if (typeof aVal === 'string') {
      return currentSort.dir === 'asc' ? aVal.localeCompare(bVal) : bVal.localeCompare(aVal);
    }
    return currentSort.dir === 'asc' ? aVal - bVal : bVal - aVal;
  });
  renderHeader();
  renderTable(sorted);
}

function filterTable(term) {
  const filtered = tableData.filter(row => row.address.toLowerCase().includes(term.toLowerCase()));
  renderTable(filtered);
}

function renderColumnMenu() {
  const menu = document.getElementById('columnMenu');
  menu.innerHTML = '';
  columns.forEach(col => {
    const label = document.createElement('label');
    const checkbox = document.createElement('input');
    checkbox.type = 'checkbox';
    checkbox.checked = visibleColumns.includes(col.key);
    checkbox.addEventListener('change', () => {
      if (checkbox.checked) {
        visibleColumns.push(col.key);
      } else {
        visibleColumns = visibleColumns.filter(k => k !== col.key);
      }
      visibleColumns = columns.filter(c => visibleColumns.includes(c.key)).map(c => c.key);
      renderHeader();
      sortTable(currentSort.key);
    });
    label.appendChild(checkbox);
    label.appendChild(document.createTextNode(' ' + col.label));
    menu.appendChild(label);
  });
}

document.addEventListener('DOMContentLoaded', () => {
  renderHeader();
  renderTable(tableData);
  renderColumnMenu();

  document.getElementById('searchInput').addEventListener('input', e => filterTable(e.target.value));

  const toggle = document.getElementById('columnToggle');
  const menu = document.getElementById('columnMenu');
  toggle.addEventListener('click', () => menu.classList.toggle('show'));
  document.addEventListener('click', e => {
    if (!toggle.contains(e.target) && !menu.contains(e.target)) {
      menu.classList.remove('show');
    }
  });
});
</script>
</body>
</html>
`
