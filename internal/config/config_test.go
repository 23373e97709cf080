package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StateFile != "./data/pools.json" || cfg.Addr != ":8080" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.Journal) != 1 || cfg.Journal[0] != "./data/operations.jsonl" {
		t.Fatalf("unexpected journal: %v", cfg.Journal)
	}
	if cfg.RetryBackoff != 500*time.Millisecond {
		t.Fatalf("unexpected backoff: %v", cfg.RetryBackoff)
	}
}

func TestLoadMergeOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "amm.yaml")
	body := "log-level: warn\naddr: \":9000\"\njournal:\n  - a.jsonl\n  - b.jsonl\nmax-retries: 2\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AMM_ADDR", ":9100")
	t.Setenv("AMM_PG_DSN", "postgres://localhost/amm")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("max-retries", 5, "")
	if err := flags.Parse([]string{"--max-retries=7"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("file value lost: %s", cfg.LogLevel)
	}
	if cfg.Addr != ":9100" {
		t.Fatalf("env should override file: %s", cfg.Addr)
	}
	if cfg.PGDSN != "postgres://localhost/amm" {
		t.Fatalf("env dsn lost: %s", cfg.PGDSN)
	}
	if cfg.MaxRetries != 7 {
		t.Fatalf("changed flag should win: %d", cfg.MaxRetries)
	}
	if len(cfg.Journal) != 2 || cfg.Journal[1] != "b.jsonl" {
		t.Fatalf("unexpected journal: %v", cfg.Journal)
	}
}

func TestLoadRejectsNegativeRetries(t *testing.T) {
	t.Setenv("AMM_MAX_RETRIES", "-1")
	if _, err := Load("", nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSplitAndClean(t *testing.T) {
	got := splitAndClean(" a.jsonl, ,b.jsonl ")
	if len(got) != 2 || got[0] != "a.jsonl" || got[1] != "b.jsonl" {
		t.Fatalf("unexpected split: %v", got)
	}
}
