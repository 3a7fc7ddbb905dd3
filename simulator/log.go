package simulator

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the simulator-wide logger labelled "gradysim-sim" (§6). It
// exposes DEBUG/INFO/WARNING/ERROR and annotates every record emitted while
// inside a callback with `it=<N> time=<HH:MM:SS.ffff> | <context>`, per the
// scope pushed by Simulator.step. Built on github.com/rs/zerolog (carried
// from the cuemby-warren corpus) in place of the teacher's bare log.Printf,
// see DESIGN.md.
type Logger struct {
	zl    zerolog.Logger
	debug bool
	scope *logScope
}

type logScope struct {
	iteration int
	timestamp float64
	context   string
}

// newLogger builds the "gradysim-sim" logger. When logFile is non-empty,
// records are written to both stderr and that file.
func newLogger(debug bool, logFile string) (*Logger, error) {
	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		w = zerolog.MultiLevelWriter(w, f)
	}
	zl := zerolog.New(w).With().Str("logger", "gradysim-sim").Timestamp().Logger()
	return &Logger{zl: zl, debug: debug}, nil
}

// enterScope marks subsequent records as happening inside the callback at
// (iteration, timestamp), tagged with context.
func (l *Logger) enterScope(iteration int, timestamp float64, context string) {
	l.scope = &logScope{iteration: iteration, timestamp: timestamp, context: context}
}

// exitScope clears the callback annotation.
func (l *Logger) exitScope() {
	l.scope = nil
}

func (l *Logger) event(level zerolog.Level) *zerolog.Event {
	e := l.zl.WithLevel(level)
	if l.scope != nil {
		e = e.Int("it", l.scope.iteration).
			Str("time", formatSimTime(l.scope.timestamp)).
			Str("ctx", l.scope.context)
	}
	return e
}

// Debug logs at DEBUG level, emitted only when the simulator was built with
// Options.Debug set.
func (l *Logger) Debug(msg string) {
	if l.debug {
		l.event(zerolog.DebugLevel).Msg(msg)
	}
}

// Info logs at INFO level.
func (l *Logger) Info(msg string) { l.event(zerolog.InfoLevel).Msg(msg) }

// Warning logs at WARNING level (zerolog's WarnLevel).
func (l *Logger) Warning(msg string) { l.event(zerolog.WarnLevel).Msg(msg) }

// Error logs at ERROR level.
func (l *Logger) Error(msg string) { l.event(zerolog.ErrorLevel).Msg(msg) }

// formatSimTime renders simulated seconds as HH:MM:SS.ffff.
func formatSimTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(seconds*1e4 + 0.5) // round to 1/10 ms, then split
	hours := totalMillis / (3600 * 10000)
	totalMillis %= 3600 * 10000
	minutes := totalMillis / (60 * 10000)
	totalMillis %= 60 * 10000
	secs := totalMillis / 10000
	frac := totalMillis % 10000
	return fmt.Sprintf("%02d:%02d:%02d.%04d", hours, minutes, secs, frac)
}
