// Package jsonl 实现分析结果的异步 JSONL 落盘。
// 批量模式逐行写入配对回合，watch 模式逐行写入实时成交。
// 实际 JSON 编码与文件 I/O 在后台 goroutine 完成，
// 缓冲占满时丢弃记录并计数，调用方永不阻塞。
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/core/model"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/util/timeutil"
)

type opType int

const (
	opWrite opType = iota
	opFlush
	opClose
)

type op struct {
	typ  opType
	val  any
	done chan error
}

// fillRecord watch 模式的实时成交行
type fillRecord struct {
	Type         string     `json:"type"`
	Address      string     `json:"address"`
	RecordedAtMs int64      `json:"recorded_at_ms"`
	Fill         model.Fill `json:"fill"`
}

// roundTripRecord 批量模式的配对回合行
type roundTripRecord struct {
	Type         string          `json:"type"`
	Address      string          `json:"address"`
	RecordedAtMs int64           `json:"recorded_at_ms"`
	RoundTrip    model.RoundTrip `json:"round_trip"`
}

// Writer 异步 JSONL 写入器
// WriteFill / WriteRoundTrip 只负责投递，投递失败不算错误：
// 缓冲占满时记录被丢弃并累加 Dropped 计数。
type Writer struct {
	// path 输出文件路径
	path string
	// ch 操作通道
	ch     chan op
	logger *zap.Logger

	// dropped 因缓冲占满被丢弃的记录数
	dropped uint64

	closeOnce sync.Once
	closeErr  error
	closed    int32

	sendMu sync.Mutex

	wg sync.WaitGroup
}

// NewWriter 创建 JSONL 写入器，文件以追加模式打开
// 参数 path: 输出文件路径
// 参数 bufferSize: 投递缓冲区大小（channel capacity）
// 参数 logger: 日志器
func NewWriter(path string, bufferSize int, logger *zap.Logger) (*Writer, error) {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("打开输出文件失败: %w", err)
	}

	w := &Writer{
		path:   path,
		ch:     make(chan op, bufferSize),
		logger: logger.Named("jsonl"),
	}

	w.wg.Add(1)
	go w.loop(f)

	return w, nil
}

// WriteFill 异步写入一条实时成交记录
// 参数 address: 成交所属钱包地址
// 参数 f: 解析后的成交
func (w *Writer) WriteFill(address string, f model.Fill) error {
	return w.send(fillRecord{
		Type:         "fill",
		Address:      strings.ToLower(address),
		RecordedAtMs: timeutil.NowMs(),
		Fill:         f,
	})
}

// WriteRoundTrip 异步写入一条配对回合记录
// 参数 address: 回合所属钱包地址
// 参数 rt: 配对出的开平回合
func (w *Writer) WriteRoundTrip(address string, rt model.RoundTrip) error {
	return w.send(roundTripRecord{
		Type:         "round_trip",
		Address:      strings.ToLower(address),
		RecordedAtMs: timeutil.NowMs(),
		RoundTrip:    rt,
	})
}

// Dropped 因缓冲占满被丢弃的记录数
func (w *Writer) Dropped() uint64 {
	if w == nil {
		return 0
	}
	return atomic.LoadUint64(&w.dropped)
}

// send 非阻塞投递一条记录
// 返回错误仅代表写入器不可用，缓冲占满丢弃时返回 nil
func (w *Writer) send(v any) error {
	if w == nil {
		return fmt.Errorf("writer 为空")
	}
	if atomic.LoadInt32(&w.closed) == 1 {
		return fmt.Errorf("writer 已关闭")
	}
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	if atomic.LoadInt32(&w.closed) == 1 {
		return fmt.Errorf("writer 已关闭")
	}
	select {
	case w.ch <- op{typ: opWrite, val: v}:
	default:
		if atomic.AddUint64(&w.dropped, 1) == 1 {
			w.logger.Warn("写入缓冲区已满，开始丢弃记录", zap.String("path", w.path))
		}
	}
	return nil
}

// Flush 强制 flush 文件缓冲区
func (w *Writer) Flush() error {
	if w == nil {
		return nil
	}
	if atomic.LoadInt32(&w.closed) == 1 {
		return nil
	}
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	if atomic.LoadInt32(&w.closed) == 1 {
		return nil
	}
	done := make(chan error, 1)
	w.ch <- op{typ: opFlush, done: done}
	return <-done
}

// Close 关闭写入器（会先 flush）
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.closeOnce.Do(func() {
		atomic.StoreInt32(&w.closed, 1)
		w.sendMu.Lock()
		defer w.sendMu.Unlock()
		done := make(chan error, 1)
		w.ch <- op{typ: opClose, done: done}
		w.closeErr = <-done
		close(w.ch)
		if n := atomic.LoadUint64(&w.dropped); n > 0 {
			w.logger.Warn("部分记录因缓冲占满被丢弃",
				zap.String("path", w.path),
				zap.Uint64("dropped", n))
		}
	})
	w.wg.Wait()
	return w.closeErr
}

func (w *Writer) loop(f *os.File) {
	defer w.wg.Done()
	defer f.Close()

	bw := bufio.NewWriterSize(f, 1<<20) // 1MB buffer
	encErr := func(err error, done chan error) {
		if done != nil {
			done <- err
		}
	}

	for req := range w.ch {
		switch req.typ {
		case opWrite:
			b, err := json.Marshal(req.val)
			if err != nil {
				continue
			}
			if _, err := bw.Write(b); err != nil {
				continue
			}
			if err := bw.WriteByte('\n'); err != nil {
				continue
			}
		case opFlush:
			encErr(bw.Flush(), req.done)
		case opClose:
			err := bw.Flush()
			encErr(err, req.done)
			return
		}
	}
}
