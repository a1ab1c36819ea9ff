package config

import (
	"testing"
)

func BenchmarkValidate(b *testing.B) {
	cfg := validConfig()
	cfg.StorageMode = "sqlite"
	cfg.SQLitePath = "claims.db"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cfg.Validate()
	}
}

func BenchmarkNewLogger_Console(b *testing.B) {
	for i := 0; i < b.N; i++ {
		logger, err := NewLogger("debug", "console")
		if err != nil {
			b.Fatal(err)
		}
		_ = logger.Sync()
	}
}
