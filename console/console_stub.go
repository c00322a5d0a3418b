//go:build !(js && wasm)

package console

import (
	"fmt"
	"log/slog"
	"strings"
)

func message(args []any) string {
	return strings.TrimSuffix(fmt.Sprintln(args...), "\n")
}

// Log writes an informational message to the default slog logger.
func Log(args ...any) { slog.Info(message(args)) }

// Warn writes a warning to the default slog logger.
func Warn(args ...any) { slog.Warn(message(args)) }

// Error writes an error to the default slog logger.
func Error(args ...any) { slog.Error(message(args)) }
