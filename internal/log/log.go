package log

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level = zapcore.Level

const (
	InfoLevel  = zap.InfoLevel  // 0, default level
	WarnLevel  = zap.WarnLevel  // 1
	ErrorLevel = zap.ErrorLevel // 2
	DebugLevel = zap.DebugLevel // -1
)

// Log types accepted by New and $GOPRELOAD_LOG.
const (
	TypeDebug   = "Debug"
	TypeRelease = "Release"
)

type Field = zap.Field

// function variables for the field types used by preloadgen
// in github.com/uber-go/zap/field.go

var (
	Bool     = zap.Bool
	Int      = zap.Int
	String   = zap.String
	Strings  = zap.Strings
	Duration = zap.Duration
	Any      = zap.Any

	Info = func(msg string, fields ...zap.Field) {
		if stdLogger != nil {
			stdLogger.Info(msg, fields...)
		}
	}
	Warn = func(msg string, fields ...zap.Field) {
		if stdLogger != nil {
			stdLogger.Warn(msg, fields...)
		}
	}
	Error = func(msg string, fields ...zap.Field) {
		if stdLogger != nil {
			stdLogger.Error(msg, fields...)
		}
	}
	Debug = func(msg string, fields ...zap.Field) {
		if stdLogger != nil {
			stdLogger.Debug(msg, fields...)
		}
	}
)

type Logger struct {
	*zap.Logger // zap ensure that zap.Logger is safe for concurrent use
	level       Level
}

func Default() *Logger {
	return stdLogger
}

var stdLogger *Logger

var LogFileName string

// Clear syncs the logger and removes the release log file.
func Clear() {
	Sync()
	if LogFileName != "" {
		_ = os.RemoveAll(LogFileName)
	}
}

// New create a new logger (not support log rotating).
// Debug logs everything to stderr; Release logs Info and above to stderr and
// everything to a file in the temporary directory.
func New(logType string) *Logger {
	debugEncoderCfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "ts",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    "func",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if logType == TypeDebug {
		consoleCore := zapcore.NewCore(
			zapcore.NewConsoleEncoder(debugEncoderCfg),
			zapcore.AddSync(os.Stderr),
			DebugLevel,
		)
		return &Logger{
			Logger: zap.New(consoleCore, zap.AddCaller()),
			level:  DebugLevel,
		}
	}

	consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(debugEncoderCfg), zapcore.AddSync(os.Stderr), InfoLevel)

	LogFileName = os.TempDir() + fmt.Sprintf("/.preloadgen_%s.log", time.Now().Format("20060102T150405"))
	logFile, err := os.OpenFile(LogFileName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		LogFileName = ""
		return &Logger{
			Logger: zap.New(consoleCore),
			level:  InfoLevel,
		}
	}
	fileEncoderCfg := debugEncoderCfg
	fileEncoderCfg.EncodeCaller = nil
	fileCore := zapcore.NewCore(zapcore.NewConsoleEncoder(fileEncoderCfg), zapcore.AddSync(logFile), DebugLevel)

	return &Logger{
		Logger: zap.New(zapcore.NewTee(consoleCore, fileCore)),
		level:  DebugLevel,
	}
}

func Sync() error {
	if stdLogger != nil {
		return stdLogger.Sync()
	}
	return nil
}

func InitLog(logType string) {
	if logType == "" {
		logType = TypeRelease
	}
	stdLogger = New(logType)
}
