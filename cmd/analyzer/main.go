// Package main 是 Hyperliquid 交易分析器的入口点。
// 拉取指定钱包地址的全部历史成交，按 FIFO 规则配对开平回合，
// 计算持仓时长、胜率、Profit Factor、交易级 Sharpe 与最大回撤，
// 输出终端摘要、单地址 Markdown 报告与批量 HTML 报告。
//
// -watch 模式改为通过 WebSocket 订阅实时成交并逐行落盘 JSONL。
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/analyzer"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/cache"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/config"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/exchange/hyperliquid"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/output/jsonl"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/report"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/util/timeutil"
)

// defaultConfigPath 默认配置文件路径
// 文件不存在时回退到内置默认配置，仅靠命令行地址即可运行
const defaultConfigPath = "config.yaml"

// addrFlags 可重复的 -addr 参数，单个值内支持逗号分隔
type addrFlags []string

func (a *addrFlags) String() string { return strings.Join(*a, ",") }

func (a *addrFlags) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*a = append(*a, part)
		}
	}
	return nil
}

func main() {
	var (
		configPath string
		addrs      addrFlags
		addrFile   string
		force      bool
		watch      bool
		verbose    bool
	)
	flag.StringVar(&configPath, "config", defaultConfigPath, "配置文件路径")
	flag.Var(&addrs, "addr", "待分析的钱包地址，可重复或逗号分隔")
	flag.StringVar(&addrFile, "file", "", "地址列表文件，每行一个地址，# 后为注释")
	flag.BoolVar(&force, "force", false, "忽略缓存，强制重新拉取成交数据")
	flag.BoolVar(&watch, "watch", false, "订阅实时成交（WebSocket 监控模式）")
	flag.BoolVar(&verbose, "v", false, "输出 debug 级别日志")
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	if verbose {
		cfg.App.LogLevel = "debug"
	}

	logger := newLogger(cfg.App.LogLevel)
	defer logger.Sync()

	addresses, err := collectAddresses(addrs, addrFile, cfg.Addresses)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if len(addresses) == 0 {
		fmt.Fprintln(os.Stderr, "未指定任何地址，请使用 -addr、-file 或配置文件的 addresses")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 捕获 SIGINT/SIGTERM，触发优雅退出
	sigCh := make(chan os.Signal, 2)
	ossignal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("收到退出信号，开始优雅关闭")
		cancel()
	}()

	if watch {
		if err := runWatch(ctx, cfg, addresses, logger); err != nil {
			logger.Error("监控模式退出", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	if err := runBatch(ctx, cfg, addresses, force, logger); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// loadConfig 加载配置文件
// 默认路径不存在时回退到内置默认配置
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == defaultConfigPath {
		return config.Default(), nil
	}
	return config.Load(path)
}

// newLogger 构建 zap 日志器，输出到 stderr
// stdout 留给报告与进度输出
func newLogger(level string) *zap.Logger {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// collectAddresses 合并命令行、文件与配置中的地址
// 按出现顺序去重（不区分大小写），任一非法地址立即报错
func collectAddresses(flagAddrs []string, file string, cfgAddrs []string) ([]string, error) {
	all := make([]string, 0, len(flagAddrs)+len(cfgAddrs))
	all = append(all, flagAddrs...)

	if file != "" {
		fromFile, err := readAddressFile(file)
		if err != nil {
			return nil, err
		}
		all = append(all, fromFile...)
	}
	all = append(all, cfgAddrs...)

	seen := make(map[string]bool, len(all))
	out := make([]string, 0, len(all))
	for _, addr := range all {
		if err := hyperliquid.ValidateAddress(addr); err != nil {
			return nil, err
		}
		key := strings.ToLower(addr)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, addr)
	}
	return out, nil
}

// readAddressFile 读取地址列表文件
// 每行一个地址，空行跳过，# 之后为注释
func readAddressFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开地址文件失败: %w", err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("读取地址文件失败: %w", err)
	}
	return out, nil
}

// runBatch 批量分析并输出报告
// 单个地址失败不影响其余地址，全部失败时返回错误
func runBatch(ctx context.Context, cfg *config.Config, addresses []string, force bool, logger *zap.Logger) error {
	client := hyperliquid.NewClient(cfg.API, logger)
	fillCache := cache.New(cfg.Cache.Dir, time.Duration(cfg.Cache.TTLMinutes)*time.Minute, logger)
	a := analyzer.New(client, fillCache, cfg, logger)

	fmt.Printf("开始分析 %d 个地址\n", len(addresses))
	outcomes := a.AnalyzeBatch(ctx, addresses, force)

	var tradesWriter *jsonl.Writer
	if cfg.Output.TradesEnabled {
		w, err := jsonl.NewWriter(filepath.Join(cfg.Output.Dir, "round_trips.jsonl"), cfg.Output.BufferSize, logger)
		if err != nil {
			logger.Warn("创建回合输出失败", zap.Error(err))
		} else {
			tradesWriter = w
		}
	}

	succeeded := 0
	for i, oc := range outcomes {
		if oc.Err != nil {
			fmt.Printf("✗ [%d/%d] %s: %v\n",
				i+1, len(outcomes), hyperliquid.ShortAddress(oc.Address), oc.Err)
			continue
		}
		succeeded++
		fmt.Printf("✓ [%d/%d] %s\n", i+1, len(outcomes), hyperliquid.ShortAddress(oc.Address))
		fmt.Print(report.Summary(oc.Result, cfg.Report.Currency))

		if path, err := report.WriteMarkdown(cfg.Report.Dir, oc.Result, cfg.Report.Currency); err != nil {
			logger.Warn("写入 Markdown 报告失败", zap.Error(err))
		} else {
			fmt.Printf("📄 报告已保存: %s\n", path)
		}

		if tradesWriter != nil {
			for _, rt := range oc.Result.RoundTrips {
				_ = tradesWriter.WriteRoundTrip(oc.Address, rt)
			}
		}
	}

	if tradesWriter != nil {
		if err := tradesWriter.Close(); err != nil {
			logger.Warn("关闭回合输出失败", zap.Error(err))
		}
	}

	if succeeded == 0 {
		return fmt.Errorf("全部 %d 个地址分析失败", len(outcomes))
	}

	path, err := report.WriteHTML(cfg.Report.Dir, outcomes, cfg.Report.Currency, time.Now())
	if err != nil {
		logger.Warn("写入 HTML 报告失败", zap.Error(err))
	} else {
		fmt.Printf("\n🌐 批量报告已保存: %s\n", path)
	}

	fmt.Printf("\n完成: %d/%d 个地址分析成功\n", succeeded, len(outcomes))
	return nil
}

// runWatch 订阅实时成交直到收到退出信号
func runWatch(ctx context.Context, cfg *config.Config, addresses []string, logger *zap.Logger) error {
	ws := hyperliquid.NewWSClient(cfg.WS, addresses, logger)

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	defer connectCancel()
	if err := ws.Connect(connectCtx); err != nil {
		return err
	}
	if err := ws.Subscribe(); err != nil {
		return err
	}
	go ws.Run(ctx)

	var fillsWriter *jsonl.Writer
	if cfg.Output.FillsEnabled {
		w, err := jsonl.NewWriter(filepath.Join(cfg.Output.Dir, "fills.jsonl"), cfg.Output.BufferSize, logger)
		if err != nil {
			_ = ws.Close()
			return err
		}
		fillsWriter = w
	}

	fmt.Printf("正在监控 %d 个地址的实时成交，Ctrl+C 退出\n", len(addresses))

	for {
		select {
		case <-ctx.Done():
			return shutdownWatch(ws, fillsWriter, logger)
		case ev, ok := <-ws.Fills():
			if !ok {
				return shutdownWatch(ws, fillsWriter, logger)
			}
			printFill(ev)
			if fillsWriter != nil {
				_ = fillsWriter.WriteFill(ev.Address, ev.Fill)
			}
		}
	}
}

// printFill 实时成交的终端输出行
func printFill(ev hyperliquid.FillEvent) {
	f := ev.Fill
	ts := timeutil.MsToTime(f.TimeMs).Format("15:04:05")
	line := fmt.Sprintf("[%s] %s %s %s %.4f @ %.4f",
		ts, hyperliquid.ShortAddress(ev.Address), f.Symbol, f.Direction, f.Size, f.Px)
	if f.ClosedPnL != 0 {
		line += fmt.Sprintf("  盈亏 %+.2f", f.ClosedPnL)
	}
	fmt.Println(line)
}

// shutdownWatch 优雅关闭（10s 超时）
func shutdownWatch(ws *hyperliquid.WSClient, w *jsonl.Writer, logger *zap.Logger) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ws.Close()
		if w != nil {
			_ = w.Close()
		}
	}()

	select {
	case <-shutdownCtx.Done():
		logger.Warn("关闭超时，强制退出")
	case <-done:
		if n := ws.DroppedCount(); n > 0 {
			logger.Warn("监控期间有成交因通道满被丢弃", zap.Int64("dropped", n))
		}
		logger.Info("关闭完成")
	}
	return nil
}
