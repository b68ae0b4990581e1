package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"WARN":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"":      zapcore.InfoLevel,
		"loud":  zapcore.InfoLevel,
	}
	for in, want := range cases {
		for _, format := range []string{"json", "console"} {
			l, err := New(in, format)
			if err != nil {
				t.Fatalf("New(%q,%q): %v", in, format, err)
			}
			if !l.Core().Enabled(want) {
				t.Fatalf("%q: level %v should be enabled", in, want)
			}
			if want > zapcore.DebugLevel && l.Core().Enabled(want-1) {
				t.Fatalf("%q: level %v should be disabled", in, want-1)
			}
		}
	}
}

func TestLBeforeSetup(t *testing.T) {
	if L() == nil {
		t.Fatal("L must never return nil")
	}
	l, _ := New("info", "json")
	Setup(l)
	if L() != l {
		t.Fatal("Setup did not install logger")
	}
}
