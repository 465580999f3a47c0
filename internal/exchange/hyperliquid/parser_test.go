// Package hyperliquid 解析器测试
package hyperliquid

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestParseFills_RoundTrip 测试解析往返一致性
// 属性: 解析后的成交应保留原始价格、数量和盈亏
func TestParseFills_RoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("解析保留价格数量和盈亏", prop.ForAll(
		func(px, sz, pnl float64, timeMs int64) bool {
			raw := Fill{
				Coin:      "BTC",
				Px:        fmt.Sprintf("%.4f", px),
				Sz:        fmt.Sprintf("%.4f", sz),
				Side:      "B",
				Time:      timeMs,
				Dir:       "Open Long",
				ClosedPnl: fmt.Sprintf("%.4f", pnl),
				Hash:      "0xabc",
			}

			fills := ParseFills([]Fill{raw})
			if len(fills) != 1 {
				return false
			}

			f := fills[0]
			pxDiff := f.Px - px
			szDiff := f.Size - sz
			pnlDiff := f.ClosedPnL - pnl

			return f.Symbol == "BTC" &&
				f.Direction == "Open Long" &&
				f.TimeMs == timeMs &&
				pxDiff < 0.001 && pxDiff > -0.001 &&
				szDiff < 0.001 && szDiff > -0.001 &&
				pnlDiff < 0.001 && pnlDiff > -0.001
		},
		gen.Float64Range(0.0001, 100000),             // px
		gen.Float64Range(0.0001, 10000),              // sz
		gen.Float64Range(-50000, 50000),              // pnl
		gen.Int64Range(1700000000000, 1800000000000), // timeMs
	))

	properties.TestingRun(t)
}

// TestParseFills_WireFormat 测试 API 原始 JSON 解析
func TestParseFills_WireFormat(t *testing.T) {
	data := `[
		{"coin":"ETH","px":"2867.1","sz":"0.0714","side":"A","time":1712092776440,
		 "startPosition":"0.0714","dir":"Close Long","closedPnl":"2.805769",
		 "hash":"0xa166e3fa63c25663024b03f2e0da011a00307e4017465df020210d3d432e7cb8",
		 "oid":73516320096,"crossed":true,"fee":"0.090929","tid":453282087091016,"feeToken":"USDC"},
		{"coin":"BTC","px":"69500.5","sz":"0.25","side":"B","time":1712092800000,
		 "startPosition":"0","dir":"Open Long","closedPnl":"0.0",
		 "hash":"0xdef","oid":73516320097,"crossed":false,"fee":"4.34","tid":453282087091017,"feeToken":"USDC"}
	]`

	var raw []Fill
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		t.Fatalf("解析失败: %v", err)
	}

	fills := ParseFills(raw)
	if len(fills) != 2 {
		t.Fatalf("len(fills) = %d, want 2", len(fills))
	}

	eth := fills[0]
	if eth.Symbol != "ETH" || eth.Direction != "Close Long" {
		t.Errorf("fills[0] = %s/%s, want ETH/Close Long", eth.Symbol, eth.Direction)
	}
	if eth.Px != 2867.1 || eth.Size != 0.0714 {
		t.Errorf("fills[0] 价格/数量 = %v/%v, want 2867.1/0.0714", eth.Px, eth.Size)
	}
	if eth.ClosedPnL != 2.805769 {
		t.Errorf("fills[0].ClosedPnL = %v, want 2.805769", eth.ClosedPnL)
	}
	if eth.Fee != 0.090929 {
		t.Errorf("fills[0].Fee = %v, want 0.090929", eth.Fee)
	}

	btc := fills[1]
	if btc.TimeMs != 1712092800000 {
		t.Errorf("fills[1].TimeMs = %d, want 1712092800000", btc.TimeMs)
	}
	if btc.ClosedPnL != 0 {
		t.Errorf("fills[1].ClosedPnL = %v, want 0", btc.ClosedPnL)
	}
}

// TestParseFills_DropsUnparsable 测试无法解析的记录被丢弃
func TestParseFills_DropsUnparsable(t *testing.T) {
	raw := []Fill{
		{Coin: "BTC", Px: "100", Sz: "1", Time: 1, Dir: "Open Long"},
		{Coin: "BTC", Px: "100", Sz: "abc", Time: 2, Dir: "Open Long"}, // 数量无法解析
		{Coin: "BTC", Px: "bad", Sz: "1", Time: 3, Dir: "Open Long"},   // 价格无法解析
		{Coin: "", Px: "100", Sz: "1", Time: 4, Dir: "Open Long"},      // 币种为空
		{Coin: "ETH", Px: "100", Sz: "1", Time: 5, ClosedPnl: "oops"},  // 盈亏解析失败按 0 处理
	}

	fills := ParseFills(raw)
	if len(fills) != 2 {
		t.Fatalf("len(fills) = %d, want 2", len(fills))
	}
	if fills[0].TimeMs != 1 || fills[1].TimeMs != 5 {
		t.Errorf("保留的记录 = %d/%d, want 1/5", fills[0].TimeMs, fills[1].TimeMs)
	}
	if fills[1].ClosedPnL != 0 {
		t.Errorf("无法解析的盈亏 = %v, want 0", fills[1].ClosedPnL)
	}
}

// TestClearinghouseState_Helpers 测试账户状态解析
func TestClearinghouseState_Helpers(t *testing.T) {
	data := `{
		"marginSummary": {
			"accountValue": "12345.67",
			"totalNtlPos": "50000.0",
			"totalRawUsd": "10000.0",
			"totalMarginUsed": "2500.5"
		},
		"crossMarginSummary": {
			"accountValue": "12345.67",
			"totalNtlPos": "50000.0",
			"totalRawUsd": "10000.0",
			"totalMarginUsed": "2500.5"
		},
		"crossMaintenanceMarginUsed": "1250.0",
		"withdrawable": "9845.17",
		"assetPositions": [
			{"type": "oneWay", "position": {
				"coin": "BTC",
				"szi": "0.5",
				"leverage": {"type": "cross", "value": 20},
				"entryPx": "65000.0",
				"positionValue": "33000.0",
				"unrealizedPnl": "500.25",
				"returnOnEquity": "0.3",
				"liquidationPx": "35000.0",
				"marginUsed": "1650.0",
				"maxLeverage": 50,
				"cumFunding": {"allTime": "12.5", "sinceOpen": "1.2", "sinceChange": "0.1"}
			}},
			{"type": "oneWay", "position": {
				"coin": "ETH",
				"szi": "-10.0",
				"leverage": {"type": "isolated", "value": 10},
				"entryPx": "3000.0",
				"positionValue": "29000.0",
				"unrealizedPnl": "-120.75",
				"returnOnEquity": "-0.04",
				"liquidationPx": null,
				"marginUsed": "2900.0",
				"maxLeverage": 25,
				"cumFunding": {"allTime": "-3.1", "sinceOpen": "-0.5", "sinceChange": "0"}
			}}
		],
		"time": 1712092776440
	}`

	var state ClearinghouseState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		t.Fatalf("解析失败: %v", err)
	}

	if got := state.AccountValue(); got != 12345.67 {
		t.Errorf("AccountValue() = %v, want 12345.67", got)
	}
	if got := state.TotalMarginUsed(); got != 2500.5 {
		t.Errorf("TotalMarginUsed() = %v, want 2500.5", got)
	}
	if got := state.WithdrawableValue(); got != 9845.17 {
		t.Errorf("WithdrawableValue() = %v, want 9845.17", got)
	}
	if got := state.OpenPositionCount(); got != 2 {
		t.Errorf("OpenPositionCount() = %d, want 2", got)
	}

	pnls := state.UnrealizedPnLs()
	if len(pnls) != 2 {
		t.Fatalf("len(UnrealizedPnLs()) = %d, want 2", len(pnls))
	}
	if pnls[0] != 500.25 || pnls[1] != -120.75 {
		t.Errorf("UnrealizedPnLs() = %v, want [500.25 -120.75]", pnls)
	}

	// liquidationPx 为 null 时保持零值
	if state.AssetPositions[1].Position.LiquidationPx != "" {
		t.Errorf("LiquidationPx = %q, want 空字符串", state.AssetPositions[1].Position.LiquidationPx)
	}
}

// TestValidateAddress 测试地址格式验证
func TestValidateAddress(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"0xfbd99a273f18714c3893708a47b796a7ed6cbd4f", false},
		{"0xFBD99A273F18714C3893708A47B796A7ED6CBD4F", false},
		{"fbd99a273f18714c3893708a47b796a7ed6cbd4f", true},   // 缺少前缀
		{"0xfbd99a273f18714c3893708a47b796a7ed6cbd4", true},  // 长度不足
		{"0xfbd99a273f18714c3893708a47b796a7ed6cbdzz", true}, // 非十六进制
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateAddress(tt.addr)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateAddress(%q) = %v, wantErr %v", tt.addr, err, tt.wantErr)
		}
	}
}

// TestShortAddress 测试地址缩写
func TestShortAddress(t *testing.T) {
	if got := ShortAddress("0xfbd99a273f18714c3893708a47b796a7ed6cbd4f"); got != "0xfbd9...bd4f" {
		t.Errorf("ShortAddress() = %s, want 0xfbd9...bd4f", got)
	}
	if got := ShortAddress("0xabc"); got != "0xabc" {
		t.Errorf("短地址应原样返回, got %s", got)
	}
}
