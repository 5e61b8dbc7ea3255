package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("headless and parallel parse as bools", func(t *testing.T) {
		t.Setenv("SEATFINDER_HEADLESS", "true")
		t.Setenv("SEATFINDER_PARALLEL", "1")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.True(t, cfg.Headless)
		assert.True(t, cfg.Parallel)
	})

	t.Run("unparseable bools are ignored", func(t *testing.T) {
		t.Setenv("SEATFINDER_HEADLESS", "sometimes")

		cfg := &Config{Headless: true}
		cfg.applyEnvOverrides()

		assert.True(t, cfg.Headless)
	})

	t.Run("port", func(t *testing.T) {
		t.Setenv("SEATFINDER_PORT", "9600")

		cfg := &Config{Port: 9515}
		cfg.applyEnvOverrides()

		assert.Equal(t, 9600, cfg.Port)
	})

	t.Run("non-numeric port is ignored", func(t *testing.T) {
		t.Setenv("SEATFINDER_PORT", "ninety")

		cfg := &Config{Port: 9515}
		cfg.applyEnvOverrides()

		assert.Equal(t, 9515, cfg.Port)
	})

	t.Run("parity is lower-cased", func(t *testing.T) {
		t.Setenv("SEATFINDER_PARITY", "EVEN")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, ParityEven, cfg.Parity)
	})

	t.Run("browser and database paths", func(t *testing.T) {
		t.Setenv("SEATFINDER_CHROME_BIN", "/opt/chrome/chrome")
		t.Setenv("SEATFINDER_DEBUGGER_URL", "ws://127.0.0.1:9222/devtools/browser/abc")
		t.Setenv("SEATFINDER_DB", "/tmp/history.db")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/opt/chrome/chrome", cfg.Browser.ChromeBin)
		assert.Equal(t, "ws://127.0.0.1:9222/devtools/browser/abc", cfg.Browser.DebuggerURL)
		assert.Equal(t, "/tmp/history.db", cfg.HistoryPath("/ignored"))
	})

	t.Run("unset variables leave the file's values", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Browser.ChromeBin = "/from/file"
		cfg.applyEnvOverrides()

		assert.Equal(t, "/from/file", cfg.Browser.ChromeBin)
	})
}
