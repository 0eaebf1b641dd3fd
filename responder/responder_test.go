package responder

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/truemediaorg/cobaltbot/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMediaSender struct {
	mock.Mock
}

func (m *MockMediaSender) SendText(ctx context.Context, chat model.Chat, text string) error {
	args := m.Called(ctx, chat, text)
	return args.Error(0)
}

func (m *MockMediaSender) SendAudio(ctx context.Context, chat model.Chat, mediaURL string, caption string) error {
	args := m.Called(ctx, chat, mediaURL, caption)
	return args.Error(0)
}

func (m *MockMediaSender) SendPhoto(ctx context.Context, chat model.Chat, mediaURL string, caption string) error {
	args := m.Called(ctx, chat, mediaURL, caption)
	return args.Error(0)
}

func (m *MockMediaSender) SendVideo(ctx context.Context, chat model.Chat, mediaURL string, caption string) error {
	args := m.Called(ctx, chat, mediaURL, caption)
	return args.Error(0)
}

type MockSizeProber struct {
	mock.Mock
}

func (m *MockSizeProber) ProbeSize(ctx context.Context, directURL string) (int64, bool) {
	args := m.Called(ctx, directURL)
	return args.Get(0).(int64), args.Bool(1)
}

var (
	chat      = model.Chat{ID: 42, ReplyToMessageID: 7}
	directURL = "https://cdn.example/media"
)

func unknownSize() *MockSizeProber {
	prober := new(MockSizeProber)
	prober.On("ProbeSize", context.TODO(), directURL).Return(int64(0), false)
	return prober
}

func TestDeliver(t *testing.T) {
	t.Run("sends oversized media as a link without uploading", func(t *testing.T) {
		prober := new(MockSizeProber)
		prober.On("ProbeSize", context.TODO(), directURL).Return(int64(60*1024*1024), true)
		sender := new(MockMediaSender)
		sender.On("SendText", context.TODO(), chat, mock.MatchedBy(func(text string) bool {
			return assert.Contains(t, text, directURL) && assert.Contains(t, text, "60 MiB")
		})).Return(nil)
		responder := NewResponder(sender, prober, 49*1024*1024, false)

		delivery, err := responder.Deliver(context.TODO(), chat, model.ResolutionResult{DirectURL: directURL, Kind: model.KindVideo}, false)
		assert.NoError(t, err)
		assert.Equal(t, model.OutcomeOversized, delivery.Outcome)
		assert.Equal(t, int64(60*1024*1024), delivery.SizeBytes)
		sender.AssertNumberOfCalls(t, "SendText", 1)
		sender.AssertNumberOfCalls(t, "SendVideo", 0)
		sender.AssertNumberOfCalls(t, "SendAudio", 0)
		sender.AssertNumberOfCalls(t, "SendPhoto", 0)
	})

	t.Run("media exactly at the limit is still sent", func(t *testing.T) {
		prober := new(MockSizeProber)
		prober.On("ProbeSize", context.TODO(), directURL).Return(int64(1024), true)
		sender := new(MockMediaSender)
		sender.On("SendVideo", context.TODO(), chat, directURL, "✅ Done (1.0 KiB)").Return(nil)
		responder := NewResponder(sender, prober, 1024, false)

		delivery, err := responder.Deliver(context.TODO(), chat, model.ResolutionResult{DirectURL: directURL, Kind: model.KindVideo}, false)
		assert.NoError(t, err)
		assert.Equal(t, model.OutcomeDelivered, delivery.Outcome)
		sender.AssertExpectations(t)
	})

	t.Run("unknown size does not block delivery", func(t *testing.T) {
		sender := new(MockMediaSender)
		sender.On("SendVideo", context.TODO(), chat, directURL, doneCaption).Return(nil)
		responder := NewResponder(sender, unknownSize(), 0, false)

		delivery, err := responder.Deliver(context.TODO(), chat, model.ResolutionResult{DirectURL: directURL, Kind: model.KindVideo}, false)
		assert.NoError(t, err)
		assert.Equal(t, model.OutcomeDelivered, delivery.Outcome)
		assert.False(t, delivery.SizeKnown)
		sender.AssertNumberOfCalls(t, "SendVideo", 1)
	})

	t.Run("falls back to a link when the video send fails", func(t *testing.T) {
		sender := new(MockMediaSender)
		sender.On("SendVideo", context.TODO(), chat, directURL, doneCaption).Return(&model.DeliveryError{Operation: "send video", Err: errors.New("Bad Request: failed to get HTTP URL content")})
		sender.On("SendText", context.TODO(), chat, mock.MatchedBy(func(text string) bool {
			return assert.Contains(t, text, directURL) && assert.Contains(t, text, "failed to get HTTP URL content")
		})).Return(nil)
		responder := NewResponder(sender, unknownSize(), 0, false)

		delivery, err := responder.Deliver(context.TODO(), chat, model.ResolutionResult{DirectURL: directURL, Kind: model.KindVideo}, false)
		assert.NoError(t, err)
		assert.Equal(t, model.OutcomeFallbackSent, delivery.Outcome)
		sender.AssertNumberOfCalls(t, "SendVideo", 1)
		sender.AssertNumberOfCalls(t, "SendText", 1)
	})

	t.Run("does not fall back on errors that are not delivery failures", func(t *testing.T) {
		sender := new(MockMediaSender)
		sender.On("SendPhoto", context.TODO(), chat, directURL, doneCaption).Return(fmt.Errorf("nil pointer somewhere"))
		responder := NewResponder(sender, unknownSize(), 0, false)

		delivery, err := responder.Deliver(context.TODO(), chat, model.ResolutionResult{DirectURL: directURL, Kind: model.KindImage}, false)
		assert.EqualError(t, err, "nil pointer somewhere")
		assert.Equal(t, model.OutcomeFailed, delivery.Outcome)
		sender.AssertNumberOfCalls(t, "SendText", 0)
	})

	t.Run("reports a failure when the fallback cannot be sent either", func(t *testing.T) {
		sender := new(MockMediaSender)
		sender.On("SendAudio", context.TODO(), chat, directURL, doneCaption).Return(&model.DeliveryError{Operation: "send audio", Err: errors.New("timeout")})
		sender.On("SendText", context.TODO(), chat, mock.Anything).Return(&model.DeliveryError{Operation: "send text", Err: errors.New("timeout")})
		responder := NewResponder(sender, unknownSize(), 0, false)

		delivery, err := responder.Deliver(context.TODO(), chat, model.ResolutionResult{DirectURL: directURL, Kind: model.KindAudio}, true)
		var deliveryErr *model.DeliveryError
		assert.ErrorAs(t, err, &deliveryErr)
		assert.Equal(t, model.OutcomeFailed, delivery.Outcome)
		assert.False(t, delivery.Outcome.UserNotified())
	})

	t.Run("does not actually send media if test mode is engaged", func(t *testing.T) {
		sender := new(MockMediaSender)
		responder := NewResponder(sender, unknownSize(), 0, true)

		delivery, err := responder.Deliver(context.TODO(), chat, model.ResolutionResult{DirectURL: directURL, Kind: model.KindVideo}, false)
		assert.NoError(t, err)
		assert.Equal(t, model.OutcomeDelivered, delivery.Outcome)
		sender.AssertNumberOfCalls(t, "SendVideo", 0)
	})
}

func TestDeliverDispatch(t *testing.T) {
	testCases := []struct {
		description string
		kind        model.Kind
		audioOnly   bool
		method      string
	}{
		{"audio is sent as audio", model.KindAudio, false, "SendAudio"},
		{"an audio request wins over the resolved kind", model.KindImage, true, "SendAudio"},
		{"images are sent as photos", model.KindImage, false, "SendPhoto"},
		{"video is sent as video", model.KindVideo, false, "SendVideo"},
		{"generic files are sent as video", model.KindFile, false, "SendVideo"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			sender := new(MockMediaSender)
			sender.On(testCase.method, context.TODO(), chat, directURL, doneCaption).Return(nil)
			responder := NewResponder(sender, unknownSize(), 0, false)

			delivery, err := responder.Deliver(context.TODO(), chat, model.ResolutionResult{DirectURL: directURL, Kind: testCase.kind}, testCase.audioOnly)
			require.NoError(t, err)
			assert.Equal(t, model.OutcomeDelivered, delivery.Outcome)
			sender.AssertExpectations(t)
			assert.Len(t, sender.Calls, 1)
		})
	}
}

func TestWithFallback(t *testing.T) {
	t.Run("skips the fallback on success", func(t *testing.T) {
		called := false
		err := withFallback(func() error { return nil }, func(error) error { called = true; return nil })
		assert.NoError(t, err)
		assert.False(t, called)
	})

	t.Run("passes wrapped delivery errors to the fallback", func(t *testing.T) {
		cause := &model.DeliveryError{Operation: "send video", Err: errors.New("too big")}
		var received error
		err := withFallback(func() error { return fmt.Errorf("context: %w", cause) }, func(e error) error { received = e; return nil })
		assert.NoError(t, err)
		assert.Equal(t, cause, received)
	})
}

func TestGenerateCaption(t *testing.T) {
	assert.Equal(t, "✅ Done", generateCaption(0, false))
	assert.Equal(t, "✅ Done (12 MiB)", generateCaption(12*1024*1024, true))
}
