// Package log holds the append-only world logs. Each kind (ticks, events)
// is a series of zstd-compressed JSONL segments, one per UTC hour, under
// <worldDir>/<kind>/. The tick log is the replay source of truth.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"outbreak.gg/internal/sim/world"
)

const segmentLayout = "2006-01-02-15"

// segment is the open hour file of one log kind.
type segment struct {
	hour string
	file *os.File
	zw   *zstd.Encoder
	buf  *bufio.Writer
}

func (s *segment) close() error {
	if s == nil {
		return nil
	}
	flushErr := s.buf.Flush()
	encErr := s.zw.Close()
	fileErr := s.file.Close()
	for _, err := range []error{flushErr, encErr, fileErr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// recordLog appends records of type T to hourly segments. Reopening an hour
// that already has a segment appends a new zstd frame to it.
type recordLog[T any] struct {
	dir  string
	kind string
	now  func() time.Time

	mu  sync.Mutex
	cur *segment
}

func newRecordLog[T any](worldDir, kind string) *recordLog[T] {
	return &recordLog[T]{dir: filepath.Join(worldDir, kind), kind: kind, now: time.Now}
}

func (l *recordLog[T]) segmentPath(hour string) string {
	return filepath.Join(l.dir, fmt.Sprintf("%s-%s.jsonl.zst", l.kind, hour))
}

func (l *recordLog[T]) open(hour string) (*segment, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(l.segmentPath(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &segment{hour: hour, file: f, zw: zw, buf: bufio.NewWriterSize(zw, 128*1024)}, nil
}

func (l *recordLog[T]) append(rec T) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%s log: %w", l.kind, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	hour := l.now().UTC().Format(segmentLayout)
	if l.cur == nil || l.cur.hour != hour {
		if err := l.cur.close(); err != nil {
			return fmt.Errorf("%s log: close %s: %w", l.kind, l.cur.hour, err)
		}
		l.cur = nil
		seg, err := l.open(hour)
		if err != nil {
			return fmt.Errorf("%s log: %w", l.kind, err)
		}
		l.cur = seg
	}
	b = append(b, '\n')
	if _, err := l.cur.buf.Write(b); err != nil {
		return err
	}
	return l.cur.buf.Flush()
}

func (l *recordLog[T]) close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.cur.close()
	l.cur = nil
	return err
}

// TickLogger records one entry per simulated tick.
type TickLogger struct {
	log *recordLog[world.TickLogEntry]
}

func NewTickLogger(worldDir string) *TickLogger {
	return &TickLogger{log: newRecordLog[world.TickLogEntry](worldDir, "ticks")}
}

func (l *TickLogger) WriteTick(e world.TickLogEntry) error { return l.log.append(e) }
func (l *TickLogger) Close() error                         { return l.log.close() }

// EventLogger records kills and diagnostics.
type EventLogger struct{ log *recordLog[world.EventEntry] }

func NewEventLogger(worldDir string) *EventLogger {
	return &EventLogger{log: newRecordLog[world.EventEntry](worldDir, "events")}
}

func (l *EventLogger) WriteEvent(e world.EventEntry) error { return l.log.append(e) }
func (l *EventLogger) Close() error                        { return l.log.close() }

var (
	_ world.TickLogger  = (*TickLogger)(nil)
	_ world.EventLogger = (*EventLogger)(nil)
)
