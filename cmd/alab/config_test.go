package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matsen/abstractlab/internal/config"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"tf-idf", "tf-idf"},
		{"tf_idf", "tf-idf"},
		{"TF_IDF", "tf-idf"},
		{"Distance-Metric", "distance-metric"},
	}
	for _, tt := range tests {
		if got := normalizeKey(tt.in); got != tt.want {
			t.Errorf("normalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSetConfigValue(t *testing.T) {
	corpus := filepath.Join(t.TempDir(), "folds.json")
	if err := os.WriteFile(corpus, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		key      string
		value    string
		wantCode int
		wantErr  bool
	}{
		{"span", "40", ExitSuccess, false},
		{"span", "-1", ExitError, true},
		{"span", "many", ExitError, true},
		{"neighbors", "3", ExitSuccess, false},
		{"neighbors", "0", ExitError, true},
		{"distance-metric", "cosine", ExitSuccess, false},
		{"distance-metric", "chebyshev", ExitError, true},
		{"tf-idf", "true", ExitSuccess, false},
		{"tf-idf", "sometimes", ExitError, true},
		{"test-year", "2012", ExitSuccess, false},
		{"test-year", " ", ExitError, true},
		{"corpus-path", corpus, ExitSuccess, false},
		{"corpus-path", filepath.Join(t.TempDir(), "missing.json"), ExitConfigError, true},
		{"output-dir", "/tmp/out", ExitSuccess, false},
		{"pdf-root", "/x", ExitError, true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := config.Default()
			code, err := setConfigValue(cfg, tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("setConfigValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if code != tt.wantCode {
				t.Errorf("setConfigValue() code = %d, want %d", code, tt.wantCode)
			}
			if tt.wantErr {
				return
			}
			got, ok := configValue(cfg, tt.key)
			if !ok {
				t.Fatalf("configValue(%q) not found", tt.key)
			}
			if got != tt.value {
				t.Errorf("configValue(%q) = %q, want %q", tt.key, got, tt.value)
			}
		})
	}
}

func TestConfigValue_AllKeys(t *testing.T) {
	cfg := config.Default()
	for _, key := range configKeys {
		if _, ok := configValue(cfg, key); !ok {
			t.Errorf("configValue(%q) not found", key)
		}
	}
	if _, ok := configValue(cfg, "unknown"); ok {
		t.Error("configValue(unknown) should not be found")
	}
}
