package observe

import (
	"context"
	"errors"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name: "minimal valid",
			cfg:  Config{ServiceName: "boardbridge"},
		},
		{
			name:    "missing service name",
			cfg:     Config{},
			wantErr: ErrMissingServiceName,
		},
		{
			name: "bad tracing exporter",
			cfg: Config{
				ServiceName: "boardbridge",
				Tracing:     TracingConfig{Enabled: true, Exporter: "carrier-pigeon"},
			},
			wantErr: ErrInvalidTracingExporter,
		},
		{
			name: "sample pct out of range",
			cfg: Config{
				ServiceName: "boardbridge",
				Tracing:     TracingConfig{Enabled: true, Exporter: "stderr", SamplePct: 1.5},
			},
			wantErr: ErrInvalidSamplePct,
		},
		{
			name: "bad metrics exporter",
			cfg: Config{
				ServiceName: "boardbridge",
				Metrics:     MetricsConfig{Enabled: true, Exporter: "smoke-signal"},
			},
			wantErr: ErrInvalidMetricsExporter,
		},
		{
			name: "bad log level",
			cfg: Config{
				ServiceName: "boardbridge",
				Logging:     LoggingConfig{Enabled: true, Level: "shout"},
			},
			wantErr: ErrInvalidLogLevel,
		},
		{
			name: "disabled subsystems skip exporter checks",
			cfg: Config{
				ServiceName: "boardbridge",
				Tracing:     TracingConfig{Enabled: false, Exporter: "carrier-pigeon"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestNewObserver_AllDisabled(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "boardbridge"})
	if err != nil {
		t.Fatalf("NewObserver error = %v", err)
	}
	defer obs.Shutdown(context.Background())

	if obs.Tracer() == nil {
		t.Error("Tracer should be non-nil even when disabled")
	}
	if obs.Meter() == nil {
		t.Error("Meter should be non-nil even when disabled")
	}
	if obs.Logger() == nil {
		t.Error("Logger should be non-nil even when disabled")
	}
}

func TestNewObserver_ShutdownIdempotent(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "boardbridge"})
	if err != nil {
		t.Fatalf("NewObserver error = %v", err)
	}

	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("first Shutdown error = %v", err)
	}
	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown error = %v", err)
	}
}

func TestOpMeta_Names(t *testing.T) {
	meta := OpMeta{Service: "workitems", Name: "get_work_item", Project: "Alpha"}
	if got := meta.SpanName(); got != "bridge.workitems.get_work_item" {
		t.Errorf("SpanName = %q", got)
	}
	if got := meta.OpID(); got != "workitems.get_work_item" {
		t.Errorf("OpID = %q", got)
	}

	bare := OpMeta{Name: "stats"}
	if got := bare.SpanName(); got != "bridge.stats" {
		t.Errorf("SpanName = %q", got)
	}
	if got := bare.OpID(); got != "stats" {
		t.Errorf("OpID = %q", got)
	}
}
