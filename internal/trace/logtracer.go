package trace

import (
	"io"
	"sort"
	"sync"

	"github.com/phuslu/log"
)

// LogTracer renders events as structured log lines through phuslu/log.
// Driver and phase events log at info, finer scopes at debug.
type LogTracer struct {
	mu     sync.Mutex
	logger log.Logger
	w      io.Writer
	level  Level
}

// NewLogTracer creates a LogTracer writing JSON log lines to w.
func NewLogTracer(w io.Writer, level Level) *LogTracer {
	return &LogTracer{
		logger: log.Logger{
			Level:      log.TraceLevel,
			TimeFormat: "15:04:05.000",
			Writer:     &log.IOWriter{Writer: w},
		},
		w:     w,
		level: level,
	}
}

// Emit writes one log line for the event.
func (t *LogTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	entry := t.logger.Debug()
	if ev.Scope <= ScopePhase && ev.Kind != KindHeartbeat {
		entry = t.logger.Info()
	}
	entry = entry.
		Uint64("seq", ev.Seq).
		Str("kind", ev.Kind.String()).
		Str("scope", ev.Scope.String())
	if ev.SpanID != 0 {
		entry = entry.Uint64("span", ev.SpanID)
	}
	if ev.ParentID != 0 {
		entry = entry.Uint64("parent", ev.ParentID)
	}
	if ev.Elapsed > 0 {
		entry = entry.Dur("elapsed", ev.Elapsed)
	}
	if ev.Detail != "" {
		entry = entry.Str("detail", ev.Detail)
	}
	keys := make([]string, 0, len(ev.Extra))
	for k := range ev.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		entry = entry.Str(k, ev.Extra[k])
	}
	entry.Msg(ev.Name)
}

func (t *LogTracer) Flush() error {
	if flusher, ok := t.w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

func (t *LogTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if closer, ok := t.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (t *LogTracer) Level() Level { return t.level }

func (t *LogTracer) Enabled() bool { return t.level > LevelOff }
