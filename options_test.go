package communicator

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is written to while the communicator's mutex is held, but may be
// written from multiple goroutines
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (x *syncBuffer) Write(p []byte) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.buf.Write(p)
}

func (x *syncBuffer) Lines() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return strings.Split(strings.TrimSpace(x.buf.String()), "\n")
}

func newTestLogger(w *syncBuffer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(
			stumpy.WithWriter(w),
			stumpy.WithTimeField(``),
		),
		stumpy.L.WithLevel(level),
	).Logger()
}

func TestResolveCommunicatorOptions_defaults(t *testing.T) {
	cfg := resolveCommunicatorOptions(nil)
	require.NotNil(t, cfg)
	assert.Nil(t, cfg.logger)
	assert.Empty(t, cfg.name)

	cfg = resolveCommunicatorOptions([]Option{nil, nil})
	require.NotNil(t, cfg)
	assert.Nil(t, cfg.logger)
}

func TestWithLogger(t *testing.T) {
	var buf syncBuffer
	c := New[Word](WithLogger(newTestLogger(&buf, logiface.LevelDebug)), WithName(`test`))

	done := sendAsync(c, 7)
	assert.Equal(t, Word(7), c.Receive())
	<-done

	lines := buf.Lines()
	require.Len(t, lines, 2)
	var spoke, heard bool
	for _, line := range lines {
		assert.Contains(t, line, `"lvl":"debug"`)
		assert.Contains(t, line, `"communicator":"test"`)
		switch {
		case strings.Contains(line, `"msg":"spoke"`):
			spoke = true
		case strings.Contains(line, `"msg":"heard"`):
			heard = true
		}
	}
	assert.True(t, spoke, `expected a spoke event`)
	assert.True(t, heard, `expected a heard event`)
}

func TestWithLogger_trace(t *testing.T) {
	var buf syncBuffer
	c := New[Word](WithLogger(newTestLogger(&buf, logiface.LevelTrace)))

	done := sendAsync(c, 1)
	assert.Equal(t, Word(1), c.Receive())
	<-done

	out := strings.Join(buf.Lines(), "\n")
	assert.Contains(t, out, `"wait":"handoff"`)
	assert.Contains(t, out, `"msg":"speaker waiting"`)
	assert.NotContains(t, out, `"communicator":`)
}

func TestWithLogger_disabledLevel(t *testing.T) {
	var buf syncBuffer
	c := New[Word](WithLogger(newTestLogger(&buf, logiface.LevelInformational)), WithName(`quiet`))

	done := sendAsync(c, 1)
	c.Receive()
	<-done

	assert.Equal(t, []string{``}, buf.Lines())
}
