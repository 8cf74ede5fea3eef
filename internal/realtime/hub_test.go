package realtime

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imi6/dandan/internal/testutil"
)

type fakeSender struct {
	mu       sync.Mutex
	received []Message
	failSend bool
	closed   bool
}

func (f *fakeSender) Send(msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend {
		return errors.New("transport closed")
	}
	f.received = append(f.received, msg)
	return nil
}

func (f *fakeSender) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSender) messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.received...)
}

func newTestHub() *Hub {
	return NewHub(&testutil.MockLogger{}, testutil.NewMockMetrics())
}

func TestHub_SendTo(t *testing.T) {
	h := newTestHub()
	a, b := &fakeSender{}, &fakeSender{}
	h.Register("a", a)
	h.Register("b", b)

	h.SendTo("a", Message{"type": "pong"})

	assert.Len(t, a.messages(), 1)
	assert.Empty(t, b.messages())
}

func TestHub_SendToUnknownClientIsNoop(t *testing.T) {
	h := newTestHub()

	h.SendTo("ghost", Message{"type": "pong"})

	assert.Zero(t, h.Size())
}

func TestHub_BroadcastReachesAll(t *testing.T) {
	h := newTestHub()
	senders := []*fakeSender{{}, {}, {}}
	h.Register("a", senders[0])
	h.Register("b", senders[1])
	h.Register("c", senders[2])

	h.Broadcast(Message{"type": "sync", "time": 12.5})

	for i, s := range senders {
		assert.Len(t, s.messages(), 1, "sender %d", i)
	}
}

func TestHub_BroadcastSurvivesFailingChannel(t *testing.T) {
	h := newTestHub()
	ok1 := &fakeSender{}
	broken := &fakeSender{failSend: true}
	ok2 := &fakeSender{}
	h.Register("ok1", ok1)
	h.Register("broken", broken)
	h.Register("ok2", ok2)

	h.Broadcast(Message{"type": "danmaku", "content": "hi"})

	assert.Len(t, ok1.messages(), 1)
	assert.Len(t, ok2.messages(), 1)
	assert.Empty(t, broken.messages())
}

func TestHub_RegisterReplacesAndClosesPrevious(t *testing.T) {
	h := newTestHub()
	old := &fakeSender{}
	h.Register("a", old)

	replacement := &fakeSender{}
	h.Register("a", replacement)

	assert.True(t, old.closed)
	assert.Equal(t, 1, h.Size())

	h.SendTo("a", Message{"type": "pong"})
	assert.Empty(t, old.messages())
	assert.Len(t, replacement.messages(), 1)
}

func TestHub_UnregisterIgnoresStaleSender(t *testing.T) {
	h := newTestHub()
	old := &fakeSender{}
	h.Register("a", old)
	replacement := &fakeSender{}
	h.Register("a", replacement)

	// The replaced connection's cleanup must not evict its successor.
	h.Unregister("a", old)
	assert.Equal(t, 1, h.Size())

	h.Unregister("a", replacement)
	assert.Zero(t, h.Size())
}

func TestHub_CloseAll(t *testing.T) {
	h := newTestHub()
	a, b := &fakeSender{}, &fakeSender{}
	h.Register("a", a)
	h.Register("b", b)

	h.CloseAll()

	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.Zero(t, h.Size())
}

func TestHub_ConcurrentRegisterAndBroadcast(t *testing.T) {
	h := newTestHub()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		id := string(rune('a' + i%26))
		go func() {
			defer wg.Done()
			h.Register(id, &fakeSender{})
		}()
		go func() {
			defer wg.Done()
			h.Broadcast(Message{"type": "sync"})
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, h.Size(), 26)
}

func TestMessage_Type(t *testing.T) {
	assert.Equal(t, "ping", Message{"type": "ping"}.Type())
	assert.Empty(t, Message{"time": 1.0}.Type())
	assert.Empty(t, Message{"type": 42}.Type())
}
