package terminal

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"event-panel/internal/domain"
)

var (
	infoColor  = color.New(color.FgGreen)
	errorColor = color.New(color.FgRed, color.Bold)
	titleColor = color.New(color.FgCyan, color.Bold)
	onColor    = color.New(color.FgGreen)
	offColor   = color.New(color.FgHiBlack)
	warnColor  = color.New(color.FgYellow)
)

// Console prints toasts on a terminal, one line each.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Notify(_ context.Context, toast domain.Toast) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stamp := toast.CreatedAt.Format("15:04:05")
	var err error
	if toast.Level == domain.ToastError {
		_, err = errorColor.Fprintf(c.out, "[%s] ✗ %s\n", stamp, toast.Message)
	} else {
		_, err = infoColor.Fprintf(c.out, "[%s] ✓ %s\n", stamp, toast.Message)
	}
	if err != nil {
		return fmt.Errorf("writing toast: %w", err)
	}
	return nil
}
