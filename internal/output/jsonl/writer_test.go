// Package jsonl 输出模块测试
package jsonl

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"

	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/core/model"
)

const writerTestAddr = "0xFBD99A273F18714C3893708A47B796A7ED6CBD4F"

func TestRoundTripRecord_RequiredFields_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("回合记录 JSON 必含必需字段", prop.ForAll(
		func(openMs int64, closeMs int64, size float64, side string) bool {
			rec := roundTripRecord{
				Type:         "round_trip",
				Address:      writerTestAddr,
				RecordedAtMs: closeMs,
				RoundTrip: model.RoundTrip{
					Symbol:  "BTC",
					Side:    model.Side(side),
					OpenMs:  openMs,
					CloseMs: closeMs,
					Size:    size,
				},
			}

			b, err := json.Marshal(rec)
			if err != nil {
				return false
			}

			var m map[string]any
			if err := json.Unmarshal(b, &m); err != nil {
				return false
			}
			for _, k := range []string{"type", "address", "recorded_at_ms", "round_trip"} {
				if _, ok := m[k]; !ok {
					return false
				}
			}

			rt, ok := m["round_trip"].(map[string]any)
			if !ok {
				return false
			}
			for _, k := range []string{"symbol", "side", "open_ms", "close_ms", "size"} {
				if _, ok := rt[k]; !ok {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.Int64(),
		gen.Float64Range(0.0001, 1_000_000),
		gen.OneConstOf("long", "short"),
	))

	properties.TestingRun(t)
}

func TestWriter_FillAndRoundTripLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.jsonl")

	w, err := NewWriter(path, 100, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	for i := 0; i < 6; i++ {
		fill := model.Fill{Symbol: "BTC", Px: 50000, Size: 0.1, Direction: "Open Long", TimeMs: int64(i)}
		if err := w.WriteFill(writerTestAddr, fill); err != nil {
			t.Fatalf("WriteFill: %v", err)
		}
	}
	for i := 0; i < 4; i++ {
		rt := model.RoundTrip{Symbol: "ETH", Side: model.SideShort, OpenMs: 1000, CloseMs: 2000, Size: 1.5}
		if err := w.WriteRoundTrip(writerTestAddr, rt); err != nil {
			t.Fatalf("WriteRoundTrip: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if n := w.Dropped(); n != 0 {
		t.Fatalf("Dropped=%d, want 0", n)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	fills, roundTrips := 0, 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("行不是合法 JSON: %v", err)
		}
		// 地址统一小写落盘
		if got := m["address"]; got != "0xfbd99a273f18714c3893708a47b796a7ed6cbd4f" {
			t.Fatalf("address=%v", got)
		}
		switch m["type"] {
		case "fill":
			fills++
			payload, ok := m["fill"].(map[string]any)
			if !ok || payload["symbol"] != "BTC" {
				t.Fatalf("成交记录负载不完整: %v", m)
			}
		case "round_trip":
			roundTrips++
			payload, ok := m["round_trip"].(map[string]any)
			if !ok || payload["symbol"] != "ETH" {
				t.Fatalf("回合记录负载不完整: %v", m)
			}
		default:
			t.Fatalf("未知记录类型: %v", m["type"])
		}
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if fills != 6 || roundTrips != 4 {
		t.Fatalf("fills=%d roundTrips=%d, want 6/4", fills, roundTrips)
	}
}

func TestWriter_AppendAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.jsonl")

	w, err := NewWriter(path, 10, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := w.WriteFill(writerTestAddr, model.Fill{Symbol: "BTC"}); err != nil {
			t.Fatalf("WriteFill: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	w, err = NewWriter(path, 10, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWriter 重开: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := w.WriteFill(writerTestAddr, model.Fill{Symbol: "ETH"}); err != nil {
			t.Fatalf("WriteFill: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if lines != 5 {
		t.Fatalf("lines=%d, want 5（追加模式不应截断旧记录）", lines)
	}
}

func TestWriter_FlushMakesLinesVisible(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.jsonl")

	w, err := NewWriter(path, 10, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	if err := w.WriteFill(writerTestAddr, model.Fill{Symbol: "SOL"}); err != nil {
		t.Fatalf("WriteFill: %v", err)
	}
	// 通道按序处理，Flush 返回时前面的写入已落盘
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("flush 后文件仍为空")
	}
}

func TestWriter_ClosedRejectsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.jsonl")

	w, err := NewWriter(path, 10, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := w.WriteFill(writerTestAddr, model.Fill{Symbol: "BTC"}); err == nil {
		t.Fatal("关闭后写入应返回错误")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("重复 Close: %v", err)
	}
}

func TestWriter_DropsWhenBufferFull(t *testing.T) {
	// 不启动后台循环，通道占满后走丢弃路径
	w := &Writer{
		path:   "unused",
		ch:     make(chan op, 1),
		logger: zap.NewNop().Named("jsonl"),
	}

	for i := 0; i < 3; i++ {
		if err := w.WriteFill(writerTestAddr, model.Fill{Symbol: "BTC"}); err != nil {
			t.Fatalf("WriteFill: %v", err)
		}
	}
	if n := w.Dropped(); n != 2 {
		t.Fatalf("Dropped=%d, want 2", n)
	}
}
