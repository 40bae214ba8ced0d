package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/dietbot/internal/config"
	"github.com/tbourn/dietbot/internal/repo"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev, lvl := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(lvl)
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrateAndPurge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dietbot.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", path)

	out, err := run(t, "--env-file", "", "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "schema up to date (sqlite)") {
		t.Fatalf("migrate output = %q", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file not created: %v", err)
	}

	db, err := repo.Open(config.DBConfig{Driver: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	if _, err := repo.CreateIdempotency(ctx, db, "line-webhook", "old", 1, 200, -time.Minute); err != nil {
		t.Fatalf("seed expired: %v", err)
	}
	if _, err := repo.CreateIdempotency(ctx, db, "line-webhook", "fresh", 2, 200, time.Hour); err != nil {
		t.Fatalf("seed fresh: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	out, err = run(t, "--env-file", "", "purge-retries")
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if !strings.Contains(out, "purged 1 expired keys") {
		t.Fatalf("purge output = %q", out)
	}
}

func TestBadConfigFailsBeforeRunning(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")
	if _, err := run(t, "--env-file", "", "migrate"); err == nil || !strings.Contains(err.Error(), "LOG_LEVEL") {
		t.Fatalf("err = %v", err)
	}
}

func TestRangeCommandsRequireFlags(t *testing.T) {
	for _, name := range []string{"backfill", "reconcile", "goal"} {
		if _, err := run(t, "--env-file", "", name, "U1"); err == nil || !strings.Contains(err.Error(), "required flag") {
			t.Fatalf("%s without range: err = %v", name, err)
		}
	}
	if _, err := run(t, "--env-file", "", "backfill"); err == nil {
		t.Fatalf("backfill without user id should fail")
	}
}

func TestLoadEnv(t *testing.T) {
	if err := loadEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file: %v", err)
	}

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("DIETBOT_TEST_KEY=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DIETBOT_TEST_KEY", "")
	os.Unsetenv("DIETBOT_TEST_KEY")
	if err := loadEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("DIETBOT_TEST_KEY"); got != "from-file" {
		t.Fatalf("DIETBOT_TEST_KEY = %q", got)
	}
}

func TestSubjectArg(t *testing.T) {
	if _, err := subjectArg([]string{"  "}); err == nil {
		t.Fatal("blank id accepted")
	}
	if id, err := subjectArg([]string{" U1 "}); err != nil || id != "U1" {
		t.Fatalf("id = %q err=%v", id, err)
	}
}
