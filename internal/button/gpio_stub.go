//go:build !linux

package button

import (
	"fmt"
	"time"
)

// Stub implementation for non-Linux platforms.
func openLine(pin int, debounce time.Duration, onPress func()) (lineCloser, error) {
	return nil, fmt.Errorf("button: gpio unsupported on this platform")
}

var openLineFn = openLine
