package logger

import (
	"fmt"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger builds the console logger and installs it as the zap global.
// level is one of debug, info, warn, error.
func InitLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    colorLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(color.Output),
		zap.NewAtomicLevelAt(lvl),
	)

	l := zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)

	zap.ReplaceGlobals(l)
	return l, nil
}

var levelColors = map[zapcore.Level]*color.Color{
	zapcore.DebugLevel:  color.New(color.FgBlue),
	zapcore.InfoLevel:   color.New(color.FgGreen),
	zapcore.WarnLevel:   color.New(color.FgYellow),
	zapcore.ErrorLevel:  color.New(color.FgRed),
	zapcore.DPanicLevel: color.New(color.FgMagenta),
	zapcore.PanicLevel:  color.New(color.FgMagenta),
	zapcore.FatalLevel:  color.New(color.FgMagenta),
}

// levelLabel is the text printed for a level; the panic and fatal levels
// share one label.
func levelLabel(l zapcore.Level) string {
	if l >= zapcore.DPanicLevel && l <= zapcore.FatalLevel {
		return "CRITICAL"
	}
	return l.CapitalString()
}

func colorLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	c, ok := levelColors[l]
	if !ok {
		c = color.New(color.FgWhite)
	}
	enc.AppendString(c.Sprint(levelLabel(l)))
}

var sizeUnits = []string{"KB", "MB", "GB", "TB", "PB", "EB"}

// HumanizeBytes renders a body size for transaction logs: plain bytes below
// 1 KiB, otherwise one decimal in the largest fitting binary unit.
func HumanizeBytes(n int) string {
	const unit = 1024
	if n < unit {
		return color.BlueString("%d B", n)
	}
	size := float64(n) / unit
	i := 0
	for size >= unit && i < len(sizeUnits)-1 {
		size /= unit
		i++
	}
	return color.BlueString("%.1f %s", size, sizeUnits[i])
}
