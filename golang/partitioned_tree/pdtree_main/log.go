package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func newLogger(config *rootCmdConfig) *zap.Logger {
	level := zap.InfoLevel
	if config.verbose {
		level = zap.DebugLevel
	}

	sink := zapcore.Lock(os.Stderr)
	if config.logFile != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   config.logFile,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
		})
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), sink, level)
	return zap.New(core)
}
