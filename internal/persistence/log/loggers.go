// Package log keeps the farm's tick journal and audit trail on disk.
//
// Both are JSON lines split into hourly zstd segments named
// <prefix>-YYYY-MM-DD-HH.jsonl.zst. Segment names sort in write order, which
// is what replay relies on. Reopening an hour appends a new zstd frame to the
// same file.
package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"tillcraft.ai/internal/sim/world"
)

const (
	segmentExt  = ".jsonl.zst"
	segmentHour = "2006-01-02-15"
)

func TicksDir(worldDir string) string { return filepath.Join(worldDir, "ticks") }
func AuditDir(worldDir string) string { return filepath.Join(worldDir, "audit") }

// segment is the open file for one hour.
type segment struct {
	hour string
	f    *os.File
	enc  *zstd.Encoder
	buf  *bufio.Writer
}

func openSegment(path, hour string) (*segment, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &segment{hour: hour, f: f, enc: enc, buf: bufio.NewWriterSize(enc, 128*1024)}, nil
}

func (s *segment) writeLine(b []byte) error {
	if _, err := s.buf.Write(b); err != nil {
		return err
	}
	if err := s.buf.WriteByte('\n'); err != nil {
		return err
	}
	return s.buf.Flush()
}

// close ends the zstd frame; a segment without a closed frame is unreadable past its last flush.
func (s *segment) close() error {
	return errors.Join(s.buf.Flush(), s.enc.Close(), s.f.Close())
}

// JSONLZstdWriter appends values as JSON lines to hourly segments under dir.
// It is safe for concurrent use.
type JSONLZstdWriter struct {
	dir    string
	prefix string
	now    func() time.Time

	mu  sync.Mutex
	cur *segment
}

func NewJSONLZstdWriter(dir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{dir: dir, prefix: prefix, now: time.Now}
}

func (w *JSONLZstdWriter) segmentPath(hour string) string {
	return filepath.Join(w.dir, w.prefix+"-"+hour+segmentExt)
}

// Write encodes v before touching the file, so a value that fails to marshal
// never opens or rotates a segment.
func (w *JSONLZstdWriter) Write(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format(segmentHour)
	if w.cur == nil || w.cur.hour != hour {
		if w.cur != nil {
			err := w.cur.close()
			w.cur = nil
			if err != nil {
				return err
			}
		}
		seg, err := openSegment(w.segmentPath(hour), hour)
		if err != nil {
			return err
		}
		w.cur = seg
	}
	return w.cur.writeLine(b)
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cur == nil {
		return nil
	}
	err := w.cur.close()
	w.cur = nil
	return err
}

// TickLogger records each tick's input and resulting digest; cmd/replay
// feeds the entries back through World.StepOnce.
type TickLogger struct{ w *JSONLZstdWriter }

func NewTickLogger(worldDir string) *TickLogger {
	return &TickLogger{w: NewJSONLZstdWriter(TicksDir(worldDir), "ticks")}
}

func (l *TickLogger) WriteTick(e world.TickLogEntry) error { return l.w.Write(e) }
func (l *TickLogger) Close() error                         { return l.w.Close() }

// AuditLogger records farm actions (till, plant, harvest, ...).
type AuditLogger struct{ w *JSONLZstdWriter }

func NewAuditLogger(worldDir string) *AuditLogger {
	return &AuditLogger{w: NewJSONLZstdWriter(AuditDir(worldDir), "audit")}
}

func (l *AuditLogger) WriteAudit(e world.AuditEntry) error { return l.w.Write(e) }
func (l *AuditLogger) Close() error                        { return l.w.Close() }
