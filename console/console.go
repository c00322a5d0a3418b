//go:build js && wasm

// Package console writes to the browser console in WebAssembly builds and to
// the process's structured logger elsewhere.
package console

import (
	"fmt"
	"syscall/js"
)

// call converts values js.ValueOf cannot take to their printed form.
func call(method string, args []any) {
	vals := make([]any, len(args))
	for i, a := range args {
		switch a.(type) {
		case string, bool, int, int32, int64, float32, float64, js.Value, nil:
			vals[i] = a
		default:
			vals[i] = fmt.Sprint(a)
		}
	}
	js.Global().Get("console").Call(method, vals...)
}

// Log writes an informational message.
func Log(args ...any) { call("log", args) }

// Warn writes a warning.
func Warn(args ...any) { call("warn", args) }

// Error writes an error.
func Error(args ...any) { call("error", args) }
