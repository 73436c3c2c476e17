// Package logger provides structured logging using zerolog.
package logger

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const battleIDKey contextKey = "battle_id"

const milliTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Options control the global logger. JSON emits one object per line instead
// of console output, File receives a copy of every line when set, and Out
// defaults to stderr so stdout stays free for results.
type Options struct {
	Level zerolog.Level
	JSON  bool
	Color bool
	File  string
	Out   io.Writer
}

// OptionsFromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_FILE and the DEV flags.
func OptionsFromEnv() Options {
	return Options{
		Level: ParseLevel(os.Getenv("LOG_LEVEL")),
		JSON:  strings.EqualFold(os.Getenv("LOG_FORMAT"), "json"),
		Color: isDevelopmentMode(),
		File:  os.Getenv("LOG_FILE"),
	}
}

// ParseLevel maps a level name to a zerolog level. Empty or unknown names
// mean info.
func ParseLevel(name string) zerolog.Level {
	if name == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// Init initializes the global logger from the environment.
func Init() {
	Setup(OptionsFromEnv())
}

// Setup installs opts as the global logger configuration.
func Setup(opts Options) {
	zerolog.TimeFieldFormat = milliTimeFormat
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }

	const callerWidth = 30
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		path := fmt.Sprintf("%s:%d", filepath.Base(file), line)
		if len(path) >= callerWidth {
			return path[len(path)-callerWidth:]
		}
		return path + strings.Repeat(" ", callerWidth-len(path))
	}
	zerolog.SetGlobalLevel(opts.Level)

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if !opts.JSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: milliTimeFormat,
			NoColor:    !opts.Color,
		}
	}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			out = io.MultiWriter(out, f)
		}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Caller().Logger()

	log.Info().
		Str("level", opts.Level.String()).
		Bool("json", opts.JSON).
		Msg("Logger initialized")
}

// SetLevel overrides the global level, e.g. from a -debug flag.
func SetLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// Quiet drops everything below warn. Test binaries call it from TestMain.
func Quiet() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
}

func isDevelopmentMode() bool {
	return os.Getenv("DEV") == "true" ||
		os.Getenv("DEV_MODE") == "true" ||
		os.Getenv("DEVELOPMENT") == "true"
}

// Get returns the global logger instance.
func Get() zerolog.Logger {
	return log.Logger
}

// NewBattleID generates a random 8-character alphanumeric battle identifier.
func NewBattleID() string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	const length = 8

	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return fmt.Sprintf("b%07d", time.Now().UnixNano()%10000000)
	}

	for i := range b {
		b[i] = charset[b[i]%byte(len(charset))]
	}
	return string(b)
}

// WithBattleID returns a new context with the given battle ID stored.
func WithBattleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, battleIDKey, id)
}

// BattleIDFromContext extracts the battle ID from context, or empty string.
func BattleIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(battleIDKey).(string)
	return id
}

// ForBattle returns a logger enriched with the battle ID from context.
func ForBattle(ctx context.Context) zerolog.Logger {
	id := BattleIDFromContext(ctx)
	if id == "" {
		return log.Logger
	}
	return log.Logger.With().Str("battle", id).Logger()
}

// ForUnit returns a child of base tagged with a unit ID.
func ForUnit(base zerolog.Logger, unitID int) zerolog.Logger {
	return base.With().Int("unit", unitID).Logger()
}
