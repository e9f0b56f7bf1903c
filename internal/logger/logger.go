// Package logger configures the process wide logrus logger.
package logger

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lorepo/lorepo/internal/config"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the standard logrus logger according the given settings.
func Setup(cfg config.Log) error {
	return Configure(logrus.StandardLogger(), cfg)
}

// Configure applies the given settings to the logger.
func Configure(l *logrus.Logger, cfg config.Log) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return errors.Wrap(err, "could not parse log level")
	}
	l.SetLevel(level)

	var formatter logrus.Formatter = new(logFormatter)
	if cfg.JSON {
		formatter = &logrus.JSONFormatter{TimestampFormat: time.RFC3339}
	}
	l.SetFormatter(formatter)
	l.SetOutput(os.Stdout)

	if cfg.File != "" {
		l.AddHook(&fileHook{
			rotate: &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.Rotation.MaxSize, // megabytes
				MaxBackups: cfg.Rotation.MaxBackups,
				MaxAge:     cfg.Rotation.MaxAge, // days
				Compress:   cfg.Rotation.Compress,
			},
			formatter: formatter,
		})
	}

	return nil
}

////////////////////
//                //
// File hook      //
//                //
////////////////////

// fileHook mirrors every entry into a lumberjack rotated file.
type fileHook struct {
	sync.Mutex
	rotate    *lumberjack.Logger
	formatter logrus.Formatter
}

// Fire formats the entry and appends it to the log file, rotating it when it grows too large.
// The file and its directory are created on first write, so the running user needs write permissions there.
func (hook *fileHook) Fire(entry *logrus.Entry) error {
	hook.Lock()
	defer hook.Unlock()

	msg, err := hook.formatter.Format(entry)
	if err != nil {
		log.Println("failed to generate string for entry:", err)
		return err
	}

	_, err = hook.rotate.Write(msg)
	return err
}

// Levels returns configured log levels.
func (hook *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

////////////////////
//                //
// Log formatter  //
//                //
////////////////////

// logFormatter renders `[time] LEVEL: message (key=value, ...)` with sorted fields.
type logFormatter struct{}

// Format implements Logrus formatter.
func (f *logFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	fields := ""
	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fs := make([]string, 0, len(keys))
		for _, k := range keys {
			fs = append(fs, fmt.Sprintf("%s=%v", k, entry.Data[k]))
		}
		fields = fmt.Sprintf(" (%s)", strings.Join(fs, ", "))
	}

	data := fmt.Sprintf("[%s] %+5s: %s%s\n",
		entry.Time.Format(time.RFC3339),
		strings.ToUpper(entry.Level.String()),
		entry.Message,
		fields,
	)
	return []byte(data), nil
}
