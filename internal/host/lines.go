package host

import (
	"bytes"
	"strings"
	"sync"
)

const maxLineLen = 64 * 1024

// LineWriter is an io.Writer that calls OnLine for every complete line written,
// without the line break. Lines longer than 64KiB are split.
// Remember to call Flush after the process exits to get the last partial line.
type LineWriter struct {
	OnLine func(line string)

	mu   sync.Mutex
	buf  []byte
	last string
}

func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			if len(w.buf) >= maxLineLen {
				w.emit(w.buf[:maxLineLen])
				w.buf = w.buf[maxLineLen:]
				continue
			}
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

// Flush emits the pending partial line, if any.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
}

// Last returns the last non empty line written.
func (w *LineWriter) Last() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

func (w *LineWriter) emit(b []byte) {
	line := strings.TrimRight(string(b), "\r")
	if strings.TrimSpace(line) != "" {
		w.last = line
	}
	if w.OnLine != nil {
		w.OnLine(line)
	}
}
