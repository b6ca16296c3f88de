package runtime

import (
	"bytes"
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/hinshun/vt10x"
)

// Size of the emulated terminal tools are attached to.
const (
	ScreenRows = 40
	ScreenCols = 160
)

// Braille pattern characters (spinners)
var spinnerRegex = regexp.MustCompile(`[\x{2800}-\x{28FF}]`)

// RenderScreen replays raw terminal output on an emulated screen and returns
// the visible lines with trailing blank lines removed. Progress bars redrawn
// in place collapse to their final state.
func RenderScreen(data []byte, rows, cols int) []string {
	term := vt10x.New(vt10x.WithSize(cols, rows))
	_, _ = term.Write(data)

	term.Lock()
	defer term.Unlock()

	lines := make([]string, 0, rows)
	for y := 0; y < rows; y++ {
		var b strings.Builder
		for x := 0; x < cols; x++ {
			ch := term.Cell(x, y).Char
			if ch == 0 {
				ch = ' '
			}
			b.WriteRune(ch)
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Tail returns at most n trailing lines.
func Tail(lines []string, n int) []string {
	if n <= 0 || len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}

// lineWriter turns a terminal byte stream into plain text lines. Carriage
// returns keep only the last redraw of a line.
type lineWriter struct {
	mu   sync.Mutex
	emit func(string)
	buf  []byte
}

func newLineWriter(emit func(string)) *lineWriter {
	return &lineWriter{emit: emit}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.flushLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Flush emits a pending partial line.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		w.flushLine(w.buf)
		w.buf = nil
	}
}

func (w *lineWriter) flushLine(line []byte) {
	text := strings.TrimRight(ansi.Strip(string(line)), "\r")
	if i := strings.LastIndexByte(text, '\r'); i >= 0 {
		text = text[i+1:]
	}
	text = strings.TrimSpace(spinnerRegex.ReplaceAllString(text, ""))
	if text != "" {
		w.emit(text)
	}
}
