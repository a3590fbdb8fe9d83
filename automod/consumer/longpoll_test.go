package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/vkmod/vkmod/automod"
	"github.com/vkmod/vkmod/automod/seenstore"
	"github.com/vkmod/vkmod/vkapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// replays a fixed list of events, then returns Err (or blocks until the context is done, if Err is nil)
type fakeSource struct {
	Events []vkapi.Event
	Err    error
}

func (s *fakeSource) Next(ctx context.Context) (*vkapi.Event, error) {
	if len(s.Events) > 0 {
		evt := s.Events[0]
		s.Events = s.Events[1:]
		return &evt, nil
	}
	if s.Err != nil {
		return nil, s.Err
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func messageEvent(t *testing.T, msg map[string]any) vkapi.Event {
	obj, err := json.Marshal(map[string]any{"message": msg})
	require.NoError(t, err)
	return vkapi.Event{Type: vkapi.EventMessageNew, GroupID: 1, Object: obj}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errSourceDone = errors.New("source done")

func TestConsumerScenario(t *testing.T) {
	assert := assert.New(t)
	eng, sink, _ := automod.EngineTestFixture(false)

	src := &fakeSource{
		Events: []vkapi.Event{
			messageEvent(t, map[string]any{"peer_id": 2000000001, "from_id": 1, "conversation_message_id": 1, "text": "hello there"}),
			messageEvent(t, map[string]any{"peer_id": 2000000001, "from_id": 1, "conversation_message_id": 2, "text": "BUY SPAM NOW"}),
			{Type: "group_join", Object: json.RawMessage(`{"user_id": 5}`)},
			messageEvent(t, map[string]any{"peer_id": 2000000001, "from_id": 2, "conversation_message_id": 3, "text": "",
				"attachments": []any{map[string]any{"type": "wall", "wall": map[string]any{"id": 9, "from_id": -100}}}}),
		},
		Err: errSourceDone,
	}
	lc := &LongPollConsumer{Logger: testLogger(), Engine: eng, Source: src}

	err := lc.Run(context.Background())
	assert.ErrorIs(err, errSourceDone)
	require.Equal(t, 2, sink.Count())
	assert.Equal(int64(2), sink.Deleted[0].ConversationMessageID)
	assert.Equal(int64(2000000001), sink.Deleted[0].PeerID)
	assert.Equal(int64(3), sink.Deleted[1].ConversationMessageID)
}

func TestConsumerSkipsMalformed(t *testing.T) {
	assert := assert.New(t)
	eng, sink, _ := automod.EngineTestFixture(false)

	src := &fakeSource{
		Events: []vkapi.Event{
			{Type: vkapi.EventMessageNew, Object: json.RawMessage(`{"message": "nope"}`)},
			{Type: vkapi.EventMessageNew},
			messageEvent(t, map[string]any{"from_id": 1, "conversation_message_id": 1, "text": "spam"}),
			messageEvent(t, map[string]any{"peer_id": 5, "from_id": 1, "text": "spam"}),
			messageEvent(t, map[string]any{"peer_id": 5, "from_id": 1, "conversation_message_id": 7, "text": "spam"}),
		},
		Err: errSourceDone,
	}
	lc := &LongPollConsumer{Logger: testLogger(), Engine: eng, Source: src}

	assert.ErrorIs(lc.Run(context.Background()), errSourceDone)
	require.Equal(t, 1, sink.Count())
	assert.Equal(int64(7), sink.Deleted[0].ConversationMessageID)
}

func TestConsumerSkipsDuplicates(t *testing.T) {
	assert := assert.New(t)
	eng, sink, _ := automod.EngineTestFixture(false)

	evt := messageEvent(t, map[string]any{"peer_id": 5, "from_id": 1, "conversation_message_id": 7, "text": "spam"})
	src := &fakeSource{
		Events: []vkapi.Event{evt, evt, evt},
		Err:    errSourceDone,
	}
	lc := &LongPollConsumer{
		Logger: testLogger(),
		Engine: eng,
		Source: src,
		Seen:   seenstore.NewMemSeenStore(100, time.Hour),
	}

	assert.ErrorIs(lc.Run(context.Background()), errSourceDone)
	assert.Equal(1, sink.Count())
}

func TestConsumerSurvivesSinkFailure(t *testing.T) {
	assert := assert.New(t)
	eng, sink, _ := automod.EngineTestFixture(false)
	sink.Err = errors.New("access denied")

	src := &fakeSource{
		Events: []vkapi.Event{
			messageEvent(t, map[string]any{"peer_id": 5, "from_id": 1, "conversation_message_id": 1, "text": "spam"}),
			messageEvent(t, map[string]any{"peer_id": 5, "from_id": 1, "conversation_message_id": 2, "text": "free   money"}),
		},
		Err: errSourceDone,
	}
	lc := &LongPollConsumer{Logger: testLogger(), Engine: eng, Source: src}

	assert.ErrorIs(lc.Run(context.Background()), errSourceDone)
	assert.Equal(2, sink.Count())
}

func TestConsumerContextCancel(t *testing.T) {
	assert := assert.New(t)
	eng, _, _ := automod.EngineTestFixture(false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	lc := &LongPollConsumer{Logger: testLogger(), Engine: eng, Source: &fakeSource{}}
	go func() {
		done <- lc.Run(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		assert.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestConsumerRequiresEngine(t *testing.T) {
	lc := &LongPollConsumer{Source: &fakeSource{}}
	assert.Error(t, lc.Run(context.Background()))
}

func TestMessageFromEvent(t *testing.T) {
	assert := assert.New(t)

	evt := messageEvent(t, map[string]any{
		"peer_id":                 2000000001,
		"from_id":                 42,
		"conversation_message_id": 9,
		"text":                    "Hello World",
		"attachments": []any{
			map[string]any{"type": "sticker", "sticker": map[string]any{"sticker_id": 1}},
			map[string]any{"type": "wall", "wall": map[string]any{"id": 1, "from_id": -100}},
			map[string]any{"type": "wall", "wall": map[string]any{"id": 2}},
			map[string]any{"type": "photo"},
		},
	})
	msg, err := messageFromEvent(&evt)
	require.NoError(t, err)
	assert.Equal(int64(2000000001), msg.PeerID)
	assert.Equal(int64(42), msg.SenderID)
	assert.Equal(int64(9), msg.ConversationMessageID)
	assert.Equal("hello world", msg.Text)
	require.Equal(t, 4, len(msg.Attachments))
	assert.Equal(automod.AttachmentSticker, msg.Attachments[0].Kind)
	assert.Equal(automod.WallAttachment(-100), msg.Attachments[1])
	assert.Equal(automod.AttachmentOther, msg.Attachments[2].Kind)
	assert.Equal("wall", msg.Attachments[2].Type)
	assert.Equal(automod.OtherAttachment("photo"), msg.Attachments[3])

	// missing text is the empty string
	evt = messageEvent(t, map[string]any{"peer_id": 1, "conversation_message_id": 1})
	msg, err = messageFromEvent(&evt)
	require.NoError(t, err)
	assert.Equal("", msg.Text)
	assert.Empty(msg.Attachments)

	evt = messageEvent(t, map[string]any{"peer_id": 1})
	_, err = messageFromEvent(&evt)
	assert.ErrorIs(err, ErrMalformedEvent)
}
