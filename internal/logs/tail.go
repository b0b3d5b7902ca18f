package logs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const pollInterval = 200 * time.Millisecond

// TailOptions controls a single read.
type TailOptions struct {
	// Offset < 0 requests the last Limit lines.
	Offset int64
	Limit  int
	// Wait bounds how long to block for new lines when none are available.
	Wait time.Duration
}

// TailResult holds complete lines and the offset to pass on the next call.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads lines from path. A missing file yields no lines and offset zero.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return TailResult{}, nil
	}
	if err != nil {
		return TailResult{}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return TailResult{}, fmt.Errorf("log path %q is a directory", path)
	}

	offset := opts.Offset
	if offset < 0 {
		lines, end, err := lastLines(path, opts.Limit)
		if err != nil || len(lines) > 0 || opts.Wait <= 0 {
			return TailResult{Lines: lines, Offset: end}, err
		}
		offset = end
	}
	if offset > info.Size() {
		// Truncated or rotated; start over.
		offset = 0
	}

	deadline := time.Now().Add(opts.Wait)
	for {
		lines, next, err := linesFrom(path, offset)
		if err != nil {
			return TailResult{Offset: offset}, err
		}
		if len(lines) > 0 || opts.Wait <= 0 || !time.Now().Before(deadline) {
			return TailResult{Lines: lines, Offset: next}, nil
		}
		select {
		case <-ctx.Done():
			return TailResult{Offset: next}, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// lastLines returns up to limit trailing complete lines and the offset just
// past the last newline.
func lastLines(path string, limit int) ([]string, int64, error) {
	lines, end, err := linesFrom(path, 0)
	if err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		return nil, end, nil
	}
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return lines, end, nil
}

func linesFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	var lines []string
	for {
		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			// Unterminated tail is still being written.
			return lines, offset, nil
		}
		if err != nil {
			return nil, offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		lines = append(lines, string(bytes.TrimRight(line, "\r\n")))
	}
}
