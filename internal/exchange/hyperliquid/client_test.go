// Package hyperliquid REST 客户端测试
package hyperliquid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/config"
)

const testAddr = "0xfbd99a273f18714c3893708a47b796a7ed6cbd4f"

// testAPIConfig 构造测试用 API 配置
// 间隔和限流暂停都压到 1ms，避免拖慢测试
func testAPIConfig(baseURL string, pageSize, maxFills int) config.APIConfig {
	return config.APIConfig{
		BaseURL:          baseURL,
		TimeoutMs:        5000,
		PageSize:         pageSize,
		MaxFills:         maxFills,
		PageDelayMs:      1,
		MaxRetries:       2,
		RateLimitPauseMs: 1,
	}
}

// makeWireFills 构造指定时间戳的成交记录（从新到旧）
func makeWireFills(times ...int64) []Fill {
	fills := make([]Fill, 0, len(times))
	for i, ts := range times {
		fills = append(fills, Fill{
			Coin:      "BTC",
			Px:        "100",
			Sz:        "1",
			Side:      "B",
			Time:      ts,
			Dir:       "Open Long",
			ClosedPnl: "0",
			Hash:      fmt.Sprintf("0x%d", i),
		})
	}
	return fills
}

// TestUserFills_Pagination 测试倒序翻页
// 第一页满页，第二页不足一页即终止；endTime 为上一页最早时间减一
func TestUserFills_Pagination(t *testing.T) {
	var mu sync.Mutex
	var requests []FillsByTimeRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req FillsByTimeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("解析请求失败: %v", err)
		}
		mu.Lock()
		requests = append(requests, req)
		mu.Unlock()

		var fills []Fill
		if req.EndTime == nil {
			fills = makeWireFills(300, 200, 100) // 第一页: 满页
		} else {
			fills = makeWireFills(90, 80) // 第二页: 不足一页
		}
		json.NewEncoder(w).Encode(fills)
	}))
	defer srv.Close()

	client := NewClient(testAPIConfig(srv.URL, 3, 100), zap.NewNop())
	fills, err := client.UserFills(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("UserFills 失败: %v", err)
	}

	if len(fills) != 5 {
		t.Fatalf("len(fills) = %d, want 5", len(fills))
	}
	// 保持 API 的从新到旧顺序
	wantTimes := []int64{300, 200, 100, 90, 80}
	for i, want := range wantTimes {
		if fills[i].Time != want {
			t.Errorf("fills[%d].Time = %d, want %d", i, fills[i].Time, want)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(requests) != 2 {
		t.Fatalf("请求次数 = %d, want 2", len(requests))
	}
	if requests[0].Type != "userFillsByTime" || requests[0].User != testAddr {
		t.Errorf("请求参数 = %s/%s", requests[0].Type, requests[0].User)
	}
	if requests[0].StartTime != 0 || requests[0].EndTime != nil {
		t.Errorf("第一页应为 startTime=0 且不带 endTime")
	}
	if requests[1].EndTime == nil || *requests[1].EndTime != 99 {
		t.Errorf("第二页 endTime = %v, want 99", requests[1].EndTime)
	}
}

// TestUserFills_MaxFillsCap 测试拉取上限
func TestUserFills_MaxFillsCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req FillsByTimeRequest
		json.Unmarshal(body, &req)

		// 以 endTime 为游标持续返回满页
		base := int64(1000000)
		if req.EndTime != nil {
			base = *req.EndTime
		}
		json.NewEncoder(w).Encode(makeWireFills(base, base-1))
	}))
	defer srv.Close()

	client := NewClient(testAPIConfig(srv.URL, 2, 5), zap.NewNop())
	fills, err := client.UserFills(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("UserFills 失败: %v", err)
	}

	if len(fills) != 5 {
		t.Errorf("len(fills) = %d, want 上限 5", len(fills))
	}
}

// TestUserFills_EmptyAccount 测试无成交记录的地址
func TestUserFills_EmptyAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	client := NewClient(testAPIConfig(srv.URL, 2000, 10000), zap.NewNop())
	fills, err := client.UserFills(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("UserFills 失败: %v", err)
	}
	if len(fills) != 0 {
		t.Errorf("len(fills) = %d, want 0", len(fills))
	}
}

// TestUserFills_InvalidAddress 测试无效地址直接拒绝
func TestUserFills_InvalidAddress(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	client := NewClient(testAPIConfig(srv.URL, 2000, 10000), zap.NewNop())
	if _, err := client.UserFills(context.Background(), "not-an-address"); err == nil {
		t.Error("无效地址应返回错误")
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("无效地址不应发起请求, calls = %d", calls)
	}
}

// TestPost_RateLimitRetry 测试限流重试
// 第一次返回 429，重试后成功
func TestPost_RateLimitRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(makeWireFills(100))
	}))
	defer srv.Close()

	client := NewClient(testAPIConfig(srv.URL, 2000, 10000), zap.NewNop())
	fills, err := client.UserFills(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("限流重试后应成功: %v", err)
	}
	if len(fills) != 1 {
		t.Errorf("len(fills) = %d, want 1", len(fills))
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("请求次数 = %d, want 2", got)
	}
}

// TestPost_ServerErrorExhaustsRetries 测试服务端错误耗尽重试
func TestPost_ServerErrorExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testAPIConfig(srv.URL, 2000, 10000)
	cfg.MaxRetries = 1
	client := NewClient(cfg, zap.NewNop())

	if _, err := client.UserFills(context.Background(), testAddr); err == nil {
		t.Error("持续 500 应返回错误")
	}
	// 初始请求 + 1 次重试
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("请求次数 = %d, want 2", got)
	}
}

// TestPost_ClientErrorNoRetry 测试 4xx 不重试
func TestPost_ClientErrorNoRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(testAPIConfig(srv.URL, 2000, 10000), zap.NewNop())
	if _, err := client.UserFills(context.Background(), testAddr); err == nil {
		t.Error("404 应返回错误")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("请求次数 = %d, want 1（4xx 不应重试）", got)
	}
}

// TestClearinghouseState 测试账户状态请求
func TestClearinghouseState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req StateRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("解析请求失败: %v", err)
		}
		if req.Type != "clearinghouseState" || req.User != testAddr {
			t.Errorf("请求参数 = %s/%s", req.Type, req.User)
		}

		w.Write([]byte(`{
			"marginSummary": {"accountValue": "5000.5", "totalMarginUsed": "100.0"},
			"withdrawable": "4900.5",
			"assetPositions": [],
			"time": 1712092776440
		}`))
	}))
	defer srv.Close()

	client := NewClient(testAPIConfig(srv.URL, 2000, 10000), zap.NewNop())
	state, err := client.ClearinghouseState(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("ClearinghouseState 失败: %v", err)
	}

	if got := state.AccountValue(); got != 5000.5 {
		t.Errorf("AccountValue() = %v, want 5000.5", got)
	}
	if got := state.OpenPositionCount(); got != 0 {
		t.Errorf("OpenPositionCount() = %d, want 0", got)
	}
}

// TestUserFills_ContextCancel 测试上下文取消
func TestUserFills_ContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(makeWireFills(100))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(testAPIConfig(srv.URL, 2000, 10000), zap.NewNop())
	if _, err := client.UserFills(ctx, testAddr); err == nil {
		t.Error("已取消的上下文应返回错误")
	}
}
