package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

func New(environment, level string) (zerolog.Logger, error) {
	parsedLevel, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse LOG_LEVEL=%q: %w", level, err)
	}

	var writer io.Writer = os.Stdout
	if useConsoleWriter(environment, os.Stdout.Fd()) {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(writer).
		Level(parsedLevel).
		With().
		Timestamp().
		Str("service", "meetups").
		Logger()

	return logger, nil
}

func useConsoleWriter(environment string, fd uintptr) bool {
	if strings.EqualFold(strings.TrimSpace(environment), "local") {
		return true
	}
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
