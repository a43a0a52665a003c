package pty

import (
	"encoding/base64"
	"io"
	"strings"
	"time"
)

const (
	// readChunkSize is the fixed read size against the pty master.
	readChunkSize = 16 * 1024

	// batchMax forces a flush as soon as the batch buffer reaches it.
	batchMax = 64 * 1024

	// flushInterval bounds the latency of any non-empty batch.
	flushInterval = 8 * time.Millisecond

	// Small batches (interactive prompts, single keystrokes of echo) are
	// flushed on a tighter deadline so they stay visible.
	smallBatchMax      = 1024
	smallFlushInterval = 2 * time.Millisecond

	// tailCap bounds the rolling raw tail kept for exit diagnostics.
	tailCap = 8 * 1024

	// maxTailLines caps ExitInfo.LastOutput.
	maxTailLines = 50
)

// batcher accumulates raw output into one outbound batch plus a rolling tail
// of the most recent bytes. It is used only from the session's reader
// goroutine and needs no locking.
type batcher struct {
	sink      OutputSink
	batch     []byte
	tail      []byte
	lastFlush time.Time
}

func newBatcher(sink OutputSink) *batcher {
	return &batcher{sink: sink, lastFlush: time.Now()}
}

// append adds a chunk to the batch and the tail, flushing immediately if the
// batch has reached its size cap.
func (b *batcher) append(chunk []byte) {
	b.batch = append(b.batch, chunk...)

	b.tail = append(b.tail, chunk...)
	if len(b.tail) > tailCap {
		b.tail = b.tail[len(b.tail)-tailCap:]
	}

	if len(b.batch) >= batchMax {
		b.flush()
	}
}

// maybeFlush applies the time-based flush policy: any batch older than
// flushInterval goes out, and small batches go out after smallFlushInterval.
func (b *batcher) maybeFlush(now time.Time) {
	if len(b.batch) == 0 {
		return
	}
	since := now.Sub(b.lastFlush)
	if since >= flushInterval || (len(b.batch) < smallBatchMax && since >= smallFlushInterval) {
		b.flush()
	}
}

// flush emits the pending batch as one base64 message and resets the clock.
func (b *batcher) flush() {
	if len(b.batch) > 0 {
		b.sink.Data(base64.StdEncoding.EncodeToString(b.batch))
		b.batch = b.batch[:0]
	}
	b.lastFlush = time.Now()
}

// lastLines renders the retained tail into at most maxTailLines non-empty,
// CR-stripped lines in original order.
func (b *batcher) lastLines() []string {
	var lines []string
	for _, line := range strings.Split(string(b.tail), "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > maxTailLines {
		lines = lines[len(lines)-maxTailLines:]
	}
	return lines
}

// streamOutput is the body of a session's reader goroutine. It reads r in
// fixed-size chunks until stream end, pushing batched Data messages to the
// sink, then blocks on wait for the exit status and emits the single Exit
// message. A zero-byte read or a read error both count as stream end; on a
// pty master a read error is the normal way to observe the child closing
// its side.
func streamOutput(r io.Reader, sink OutputSink, wait func() ExitInfo) {
	chunks := make(chan []byte)
	go func() {
		defer close(chunks)
		buf := make([]byte, readChunkSize)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				chunks <- chunk
			}
			if err != nil || n == 0 {
				return
			}
		}
	}()

	b := newBatcher(sink)
	ticker := time.NewTicker(smallFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				b.flush()
				info := wait()
				info.LastOutput = b.lastLines()
				sink.Exit(info)
				return
			}
			b.append(chunk)
		case now := <-ticker.C:
			b.maybeFlush(now)
		}
	}
}
