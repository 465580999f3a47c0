// Package main 入口辅助函数测试
package main

import (
	"os"
	"path/filepath"
	"testing"
)

const (
	mainTestAddr  = "0xfbd99a273f18714c3893708a47b796a7ed6cbd4f"
	mainTestAddr2 = "0x1234567890abcdef1234567890abcdef12345678"
)

func TestAddrFlags_Set(t *testing.T) {
	var a addrFlags

	if err := a.Set(mainTestAddr); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := a.Set(mainTestAddr2 + " , " + mainTestAddr); err != nil {
		t.Fatalf("Set 逗号分隔: %v", err)
	}

	if len(a) != 3 {
		t.Fatalf("len=%d, want 3", len(a))
	}
	if a[0] != mainTestAddr || a[1] != mainTestAddr2 || a[2] != mainTestAddr {
		t.Fatalf("a=%v", a)
	}
}

func TestCollectAddresses_MergeAndDedupe(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "addresses.txt")

	// 文件含注释、空行、行尾注释，以及与命令行地址仅大小写不同的重复
	mixedCase := "0xFBD99A273F18714C3893708A47B796A7ED6CBD4F"
	content := "# 监控地址\n" +
		mainTestAddr2 + "  # 主力账户\n" +
		"\n" +
		mixedCase + "\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := collectAddresses([]string{mainTestAddr}, file, []string{mainTestAddr2})
	if err != nil {
		t.Fatalf("collectAddresses: %v", err)
	}

	// 顺序: 命令行优先，其后文件，配置中的重复被去除
	if len(got) != 2 {
		t.Fatalf("got=%v, want 2 个地址", got)
	}
	if got[0] != mainTestAddr || got[1] != mainTestAddr2 {
		t.Fatalf("got=%v", got)
	}
}

func TestCollectAddresses_InvalidAddress(t *testing.T) {
	if _, err := collectAddresses([]string{"not-an-address"}, "", nil); err == nil {
		t.Fatal("非法地址应报错")
	}
}

func TestReadAddressFile_Missing(t *testing.T) {
	if _, err := readAddressFile(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Fatal("文件不存在应报错")
	}
}

func TestLoadConfig_MissingDefaultFallsBack(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatalf("默认路径缺失不应报错: %v", err)
	}
	if cfg.API.BaseURL != "https://api.hyperliquid.xyz" {
		t.Fatalf("BaseURL=%q", cfg.API.BaseURL)
	}
}

func TestLoadConfig_MissingExplicitPathFails(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "custom.yaml")); err == nil {
		t.Fatal("显式指定的配置文件缺失应报错")
	}
}
