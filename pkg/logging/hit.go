package logging

import (
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// HitLevel is the level hits are filtered at. Hits are written at error
// level and relabelled "hit" by HitLevelWriter.
const HitLevel zerolog.Level = zerolog.WarnLevel

const hitMarker = "_hit"

// HitLevelWriter rewrites the level of the next hit event to "hit".
type HitLevelWriter struct {
	out       io.Writer
	mu        sync.Mutex
	nextIsHit bool
}

func NewHitLevelWriter(out io.Writer) *HitLevelWriter {
	return &HitLevelWriter{out: out}
}

func (w *HitLevelWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	isHit := w.nextIsHit
	w.nextIsHit = false
	out := w.out
	w.mu.Unlock()

	if !isHit || len(p) == 0 {
		return out.Write(p)
	}

	var entry map[string]any
	if err := json.Unmarshal(p, &entry); err != nil {
		return out.Write(p)
	}

	if entry[zerolog.LevelFieldName] == zerolog.LevelWarnValue || entry[zerolog.LevelFieldName] == zerolog.LevelErrorValue {
		entry[zerolog.LevelFieldName] = "hit"
	}
	delete(entry, hitMarker)

	rewritten, err := json.Marshal(entry)
	if err != nil {
		return out.Write(p)
	}
	if _, err := out.Write(append(rewritten, '\n')); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *HitLevelWriter) SetOutput(out io.Writer) {
	w.mu.Lock()
	w.out = out
	w.mu.Unlock()
}

func (w *HitLevelWriter) markNextAsHit() {
	w.mu.Lock()
	w.nextIsHit = true
	w.mu.Unlock()
}

// HitEvent is a log event for a finding.
type HitEvent struct {
	event  *zerolog.Event
	writer *HitLevelWriter
}

func (h *HitEvent) Str(key, val string) *HitEvent {
	h.event.Str(key, val)
	return h
}

func (h *HitEvent) Int(key string, val int) *HitEvent {
	h.event.Int(key, val)
	return h
}

func (h *HitEvent) Bool(key string, val bool) *HitEvent {
	h.event.Bool(key, val)
	return h
}

// Msg writes the event. It is a no-op when hits are filtered out.
func (h *HitEvent) Msg(msg string) {
	if h.event == nil {
		return
	}
	if h.writer != nil {
		h.writer.markNextAsHit()
	}
	h.event.Bool(hitMarker, true).Msg(msg)
}

var (
	hitWriterMu     sync.Mutex
	globalHitWriter *HitLevelWriter
)

// SetGlobalHitWriter installs the writer hits are marked on. The CLI calls it
// after building the global logger on top of w.
func SetGlobalHitWriter(w *HitLevelWriter) {
	hitWriterMu.Lock()
	globalHitWriter = w
	hitWriterMu.Unlock()
}

func hitWriter() *HitLevelWriter {
	hitWriterMu.Lock()
	defer hitWriterMu.Unlock()
	if globalHitWriter == nil {
		globalHitWriter = NewHitLevelWriter(os.Stderr)
		log.Logger = zerolog.New(globalHitWriter).With().Timestamp().Logger()
	}
	return globalHitWriter
}

// Hit starts a hit event. Hits pass every global level up to and including
// "hit", e.g. logging.Hit().Str("value", v).Msg("ENDPOINT").
func Hit() *HitEvent {
	w := hitWriter()
	return &HitEvent{
		event:  log.WithLevel(zerolog.ErrorLevel),
		writer: w,
	}
}

// ParseLevel is zerolog.ParseLevel plus the "hit" level.
func ParseLevel(levelStr string) (zerolog.Level, error) {
	if levelStr == "hit" {
		return HitLevel, nil
	}
	return zerolog.ParseLevel(levelStr)
}
