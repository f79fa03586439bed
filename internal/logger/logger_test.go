package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		env     string
		level   string
		want    zapcore.Level
		wantErr bool
	}{
		{"local", "", zapcore.DebugLevel, false},
		{"dev", "warn", zapcore.WarnLevel, false},
		{"prod", "", zapcore.InfoLevel, false},
		{"prod", "debug", zapcore.DebugLevel, false},
		{"staging", "", 0, true},
		{"prod", "loud", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			l, err := NewLogger(tt.env, tt.level)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !l.Core().Enabled(tt.want) {
				t.Errorf("level %s should be enabled", tt.want)
			}
			if tt.want > zapcore.DebugLevel && l.Core().Enabled(tt.want-1) {
				t.Errorf("level %s should be disabled", tt.want-1)
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	scoped := zap.New(core).With(zap.String("request_id", "r-1"))
	fallback := zap.NewNop()

	ctx := ContextWithLogger(context.Background(), scoped)
	FromContext(ctx, fallback).Info("hello")

	if logs.Len() != 1 || logs.All()[0].ContextMap()["request_id"] != "r-1" {
		t.Errorf("scoped logger not used: %+v", logs.All())
	}
}

func TestFromContext_Fallback(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	fallback := zap.New(core)

	FromContext(context.Background(), fallback).Info("x")
	if logs.Len() != 1 {
		t.Error("fallback logger not used")
	}

	if FromContext(context.Background(), nil) == nil {
		t.Error("nil fallback must yield a usable logger")
	}
}
