package scenario

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/joeycumines/go-communicator"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_builtin(t *testing.T) {
	for _, s := range Builtin() {
		t.Run(s.Name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
			defer cancel()

			c := communicator.New[Word]()
			result, err := Run(ctx, c, s, nil)
			require.NoError(t, err)
			require.NotNil(t, result)

			speakers, _ := s.Counts()
			assert.Equal(t, s.Name, result.Scenario)
			assert.Len(t, result.Sent, speakers)
			assert.Equal(t, result.Sent, result.Received)
			assert.Zero(t, result.Stuck)
			assert.Positive(t, result.Elapsed)
			assert.Equal(t, communicator.Stats{Sent: uint64(speakers), Received: uint64(speakers)}, result.Stats)
		})
	}
}

func TestRun_unbalanced(t *testing.T) {
	for _, s := range [...]Scenario{
		{Name: `more speakers`, Steps: roles(`S S L`)},
		{Name: `more listeners`, Steps: roles(`L L S`)},
		{Name: `unknown role`, Steps: []Step{{Role: Speaker}, {Role: Listener}, {}}},
	} {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(context.Background(), communicator.New[Word](), s, nil)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, ErrUnbalanced)
		})
	}
}

func TestRun_empty(t *testing.T) {
	result, err := Run(context.Background(), communicator.New[Word](), Scenario{Name: `empty`}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Sent)
	assert.Empty(t, result.Received)
}

func TestRun_contextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, _ := Lookup(`speaker-first`)
	result, err := Run(ctx, communicator.New[Word](), s, nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Zero(t, result.Stuck)
}

// the listener is delayed past the deadline, leaving the speaker stuck
func TestRun_abandoned(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*50)
	defer cancel()

	c := communicator.New[Word]()
	s := Scenario{
		Name: `abandoned`,
		Steps: []Step{
			{Role: Speaker, Value: 9},
			{Role: Listener, Delay: time.Hour},
		},
	}

	result, err := Run(ctx, c, s, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, result)
	assert.Equal(t, `abandoned`, result.Scenario)
	assert.Empty(t, result.Sent)
	assert.Empty(t, result.Received)
	assert.Equal(t, 1, result.Stuck)

	// release the stuck speaker
	assert.Equal(t, Word(9), c.Receive())
}

func TestRun_nilArgs(t *testing.T) {
	assert.PanicsWithValue(t, `scenario: nil context`, func() {
		//lint:ignore SA1012 testing nil context
		_, _ = Run(nil, communicator.New[Word](), Scenario{}, nil)
	})
	assert.PanicsWithValue(t, `scenario: nil communicator`, func() {
		_, _ = Run(context.Background(), nil, Scenario{}, nil)
	})
}

func TestRun_logging(t *testing.T) {
	var buf bytes.Buffer
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(&buf), stumpy.WithTimeField(``)),
		stumpy.L.WithLevel(logiface.LevelInformational),
	).Logger()

	s, _ := Lookup(`listener-first`)
	_, err := Run(context.Background(), communicator.New[Word](), s, logger)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"scenario":"listener-first"`)
	assert.Contains(t, buf.String(), `"msg":"scenario passed"`)
}
