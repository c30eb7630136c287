package main

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ORIGIN_URL", "https://origin.example.com/")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.LayoutPath != "index.html" {
		t.Errorf("LayoutPath = %q, want index.html", cfg.LayoutPath)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.UserAgent != "fragment-loader/0.1.0" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.CacheNamespace != "default" {
		t.Errorf("CacheNamespace = %q, want default", cfg.CacheNamespace)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Errorf("FetchTimeout = %v, want 30s", cfg.FetchTimeout)
	}
	if cfg.RedisURL != "" || cfg.Minify {
		t.Errorf("unexpected optional settings: %+v", cfg)
	}
}

func TestLoadConfig_Full(t *testing.T) {
	t.Setenv("ORIGIN_URL", "https://origin.example.com/")
	t.Setenv("LAYOUT_PATH", "layouts/sheet.html")
	t.Setenv("SLOTS", "header-slot:parts/header.html, footer-slot:https://cdn.example.com/footer.html")
	t.Setenv("PRELOAD", "parts/a.html,,parts/b.html")
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_URL", "redis://:secret@cache.internal:6380/3")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("MINIFY", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	slots, err := cfg.slots()
	if err != nil {
		t.Fatalf("slots failed: %v", err)
	}
	wantSlots := []slot{
		{TargetID: "header-slot", Path: "parts/header.html"},
		{TargetID: "footer-slot", Path: "https://cdn.example.com/footer.html"},
	}
	if !reflect.DeepEqual(slots, wantSlots) {
		t.Errorf("slots = %+v, want %+v", slots, wantSlots)
	}

	if got := cfg.preloadPaths(); !reflect.DeepEqual(got, []string{"parts/a.html", "parts/b.html"}) {
		t.Errorf("preloadPaths = %v", got)
	}
	if !cfg.Minify {
		t.Error("Minify should be true")
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("FetchTimeout = %v, want 5s", cfg.FetchTimeout)
	}

	opts, err := cfg.redisOptions()
	if err != nil {
		t.Fatalf("redisOptions failed: %v", err)
	}
	if opts.Addr != "cache.internal:6380" || opts.DB != 3 || opts.Password != "secret" {
		t.Errorf("redis options = addr %q db %d password %q", opts.Addr, opts.DB, opts.Password)
	}
}

func TestRedisOptions_Unset(t *testing.T) {
	opts, err := Config{}.redisOptions()
	if err != nil || opts != nil {
		t.Errorf("redisOptions() = %v, %v; want nil, nil", opts, err)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing origin",
			env:     map[string]string{},
			wantErr: "parse env",
		},
		{
			name:    "invalid origin",
			env:     map[string]string{"ORIGIN_URL": "not a url"},
			wantErr: "invalid config",
		},
		{
			name:    "non numeric port",
			env:     map[string]string{"ORIGIN_URL": "https://o.example.com/", "PORT": "http"},
			wantErr: "invalid config",
		},
		{
			name:    "bad slot",
			env:     map[string]string{"ORIGIN_URL": "https://o.example.com/", "SLOTS": "header-slot"},
			wantErr: "target:path",
		},
		{
			name:    "redis address instead of url",
			env:     map[string]string{"ORIGIN_URL": "https://o.example.com/", "REDIS_URL": "localhost:6379"},
			wantErr: "invalid config",
		},
		{
			name:    "redis url with wrong scheme",
			env:     map[string]string{"ORIGIN_URL": "https://o.example.com/", "REDIS_URL": "http://localhost:6379"},
			wantErr: "REDIS_URL",
		},
		{
			name:    "negative fetch timeout",
			env:     map[string]string{"ORIGIN_URL": "https://o.example.com/", "FETCH_TIMEOUT": "-1s"},
			wantErr: "FETCH_TIMEOUT",
		},
		{
			name:    "bad log level",
			env:     map[string]string{"ORIGIN_URL": "https://o.example.com/", "LOG_LEVEL": "trace"},
			wantErr: "unknown log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ORIGIN_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := loadConfig()
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
