package storage

import (
	"context"
	"testing"

	"github.com/yndnr/filegate/internal/telemetry/logger"
	"github.com/yndnr/filegate/internal/telemetry/metric"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default is memory", Config{}, false},
		{"memory", Config{Driver: DriverMemory}, false},
		{"badger", Config{Driver: DriverBadger, Badger: DefaultBadgerConfig(t.TempDir())}, false},
		{"badger without dir", Config{Driver: DriverBadger}, true},
		{"unknown", Config{Driver: "sqlite"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.cfg, logger.Nop(), metric.NewRegistry())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer s.Close()

			if err := s.Ping(ctx); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
		})
	}
}
