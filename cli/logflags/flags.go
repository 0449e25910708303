// Package logflags configures the zap logger of long running commands.
package logflags

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type FileMode string

const (
	FileModeAppend   FileMode = "append"
	FileModeTruncate FileMode = "truncate"
	FileModeRotate   FileMode = "rotate"
)

func (m *FileMode) Set(s string) error {
	switch mode := FileMode(s); mode {
	case FileModeAppend, FileModeTruncate, FileModeRotate:
		*m = mode
		return nil
	}
	return fmt.Errorf("unsupported file mode %q", s)
}

func (m FileMode) String() string {
	return string(m)
}

type Flags struct {
	Level    zapcore.Level
	Path     string
	FileMode FileMode
	// MaxSizeMB is the size at which a rotated log file is rolled over.
	MaxSizeMB int
}

func (f *Flags) SetFlags(fs *flag.FlagSet) {
	f.Level = zapcore.InfoLevel
	f.FileMode = FileModeAppend
	fs.Var(&f.Level, "log.level", "logging level")
	fs.StringVar(&f.Path, "log.path", "", "path to send logs (default: stderr)")
	fs.Var(&f.FileMode, "log.filemode", "logger file write mode (values: append, truncate, rotate)")
	fs.IntVar(&f.MaxSizeMB, "log.maxsize", 100, "size in megabytes at which a rotated log file rolls over")
}

func (f *Flags) Init() error {
	if f.FileMode == FileModeRotate && f.Path == "" {
		return errors.New("-log.filemode=rotate requires -log.path")
	}
	return nil
}

// Open returns a JSON logger writing to the configured destination.
func (f *Flags) Open() (*zap.Logger, error) {
	ws, err := f.sink()
	if err != nil {
		return nil, err
	}
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(enc, ws, zap.NewAtomicLevelAt(f.Level))
	return zap.New(core, zap.ErrorOutput(zapcore.Lock(os.Stderr))), nil
}

func (f *Flags) sink() (zapcore.WriteSyncer, error) {
	if f.Path == "" || f.Path == "stderr" {
		return zapcore.Lock(os.Stderr), nil
	}
	switch f.FileMode {
	case FileModeRotate:
		return zapcore.AddSync(&lumberjack.Logger{
			Filename: f.Path,
			MaxSize:  f.MaxSizeMB,
		}), nil
	case FileModeTruncate:
		file, err := os.Create(f.Path)
		if err != nil {
			return nil, err
		}
		return zapcore.Lock(file), nil
	default:
		file, err := os.OpenFile(f.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		return zapcore.Lock(file), nil
	}
}
