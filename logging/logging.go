// Package logging builds the process zap logger and bridges it to the
// key/value Logger used by the auth package.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	auth "github.com/goliatone/go-shop-auth"
)

// New returns a logger writing to w. format is "console" or "json".
func New(level, format string, w io.Writer) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = func(ts time.Time, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(ts.UTC().Format(time.RFC3339))
	}
	config.EncodeDuration = func(d time.Duration, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(d.String())
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(format) {
	case "", "console":
		encoder = zapcore.NewConsoleEncoder(config)
	case "json":
		encoder = zapcore.NewJSONEncoder(config)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return zap.New(zapcore.NewCore(
		encoder,
		zapcore.Lock(zapcore.AddSync(w)),
		lvl,
	)), nil
}

// ParseLevel maps debug, info, warn and error to a zap level. Empty is info.
func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return lvl, fmt.Errorf("unknown log level %q", level)
	}
	return lvl, nil
}

type adapter struct {
	s *zap.SugaredLogger
}

// Adapter exposes l through the auth.Logger interface
func Adapter(l *zap.Logger) auth.Logger {
	if l == nil {
		return auth.NopLogger{}
	}
	return adapter{s: l.Sugar()}
}

func (a adapter) Debug(msg string, args ...any) { a.s.Debugw(msg, args...) }
func (a adapter) Info(msg string, args ...any)  { a.s.Infow(msg, args...) }
func (a adapter) Warn(msg string, args ...any)  { a.s.Warnw(msg, args...) }
func (a adapter) Error(msg string, args ...any) { a.s.Errorw(msg, args...) }
