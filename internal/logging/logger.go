package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the process-wide logger: JSON to a rotated file,
// console output to stdout.
func NewLogger(logDir string) (*zap.Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	fileSink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, "watchtower.log"),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"

	consoleCfg := zap.NewDevelopmentEncoderConfig()

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), fileSink, zap.InfoLevel),
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(os.Stdout), zap.InfoLevel),
	)

	return zap.New(core), nil
}
