package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// colorScheme defines the colors used for the different parts of the output
type colorScheme struct {
	Title   *color.Color
	Key     *color.Color
	Value   *color.Color
	Success *color.Color
	Warn    *color.Color
	Dim     *color.Color
}

func newColorScheme(noColor bool) *colorScheme {
	s := &colorScheme{
		Title:   color.New(color.FgMagenta, color.Bold),
		Key:     color.New(color.FgYellow),
		Value:   color.New(color.FgWhite),
		Success: color.New(color.FgGreen),
		Warn:    color.New(color.FgYellow, color.Bold),
		Dim:     color.New(color.FgHiBlack),
	}
	if noColor {
		for _, c := range []*color.Color{s.Title, s.Key, s.Value, s.Success, s.Warn, s.Dim} {
			c.DisableColor()
		}
	}
	return s
}

// printer serializes writes so download workers can report concurrently.
type printer struct {
	mu     sync.Mutex
	out    io.Writer
	colors *colorScheme
}

func newPrinter(out io.Writer, noColor bool) *printer {
	return &printer{out: out, colors: newColorScheme(noColor)}
}

func (p *printer) title(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.colors.Title.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) field(key string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.colors.Key.Fprintf(p.out, "  %-12s ", key+":")
	p.colors.Value.Fprintln(p.out, value)
}

func (p *printer) line(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) dim(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.colors.Dim.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) success(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.colors.Success.Fprintf(p.out, "✓ "+format+"\n", args...)
}

func (p *printer) warn(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.colors.Warn.Fprintf(p.out, "! "+format+"\n", args...)
}

// json writes v indented, for --json output.
func (p *printer) json(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err = fmt.Fprintln(p.out, string(data))
	return err
}
