package clip

import (
	"context"
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

var (
	nativeOnce sync.Once
	nativeErr  error
)

// NativeAccessor uses the OS clipboard API via golang.design/x/clipboard
// instead of external commands. Selected with --native.
type NativeAccessor struct{}

// NewNative initialises the native clipboard backend. It fails on headless
// hosts (no X11/Wayland display); callers should fall back to commands or
// report the error.
func NewNative() (*NativeAccessor, error) {
	nativeOnce.Do(func() {
		nativeErr = clipboard.Init()
	})
	if nativeErr != nil {
		return nil, fmt.Errorf("native clipboard unavailable: %w", nativeErr)
	}
	return &NativeAccessor{}, nil
}

func (a *NativeAccessor) Name() string { return "native" }

func (a *NativeAccessor) Read(_ context.Context) (string, error) {
	return string(clipboard.Read(clipboard.FmtText)), nil
}

func (a *NativeAccessor) Write(_ context.Context, content string) error {
	clipboard.Write(clipboard.FmtText, []byte(content))
	return nil
}
