package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tbourn/welder-tracker/internal/app"
	"github.com/tbourn/welder-tracker/internal/config"
)

func TestServe_StopsOnCancel(t *testing.T) {
	t.Setenv("PORT", "0")
	t.Setenv("GIN_MODE", "test")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "serve.db"))
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	a, err := app.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, a) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not stop")
	}
}
