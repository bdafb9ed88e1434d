package launch

import (
	"bufio"
	"io"
	"log/slog"
)

// maxLineBytes bounds a single streamed output line.
const maxLineBytes = 1024 * 1024

// streamLines forwards each line read from r to the logger, tagged with its
// source stream. It returns when r is exhausted or fails, which happens when
// the owning process exits.
func streamLines(r io.Reader, logger *slog.Logger) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		logger.Info(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("Output stream closed with error.", "error", err)
	}
}
