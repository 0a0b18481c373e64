// Package logging builds the zap logger handed into every component.
//
// There is no package-level logger: the CLI constructs one and passes it
// down through constructors, so component lifecycles own no logging state
// and tests can substitute Nop().
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Initialize builds a console logger. debug lowers the level to Debug and
// enables caller annotation.
func Initialize(debug bool) (*zap.SugaredLogger, error) {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(os.Stderr),
		level,
	)

	opts := []zap.Option{}
	if debug {
		opts = append(opts, zap.AddCaller())
	}
	return zap.New(core, opts...).Sugar(), nil
}

// Nop returns a logger that discards everything. Default for tests.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
