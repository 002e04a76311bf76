//go:build !tinygo

package hal

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"sync"

	"fadecode-go/x/mathx"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Console draws the two outputs as coloured blocks on a terminal line, for
// watching the simulated platform breathe.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	palette ansi256.Palette
	buf     bytes.Buffer
}

// NewConsole returns a Console writing to w, or to a colour-capable stdout
// when w is nil. A nil palette selects ansi256.Default.
func NewConsole(w io.Writer, p *ansi256.Palette) *Console {
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	if p == nil {
		p = ansi256.Default
	}
	return &Console{w: w, palette: *p}
}

// Draw redraws the line in place.
func (c *Console) Draw(duty, top Duty, companion bool) error {
	level := uint8(mathx.MapU16(uint16(duty), 0, uint16(top), 0, 255))
	ramp := color.NRGBA{R: level, G: uint8(uint16(level) * 3 / 4), A: 255}
	comp := color.NRGBA{R: 24, G: 24, B: 24, A: 255}
	if companion {
		comp = color.NRGBA{G: 255, A: 255}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Reset()
	_, _ = c.buf.WriteString("\r\033[0m")
	for i := 0; i < 8; i++ {
		_, _ = io.WriteString(&c.buf, c.palette.Block(ramp))
	}
	_, _ = c.buf.WriteString("\033[0m ")
	_, _ = io.WriteString(&c.buf, c.palette.Block(comp))
	_, _ = fmt.Fprintf(&c.buf, "\033[0m %3d/%d", duty, top)
	_, err := c.buf.WriteTo(c.w)
	return err
}

// Halt resets terminal attributes and ends the line.
func (c *Console) Halt() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.w.Write([]byte("\n\033[0m"))
	return err
}
