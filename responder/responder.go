package responder

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/truemediaorg/cobaltbot/model"

	log "github.com/sirupsen/logrus"
)

const (
	doneCaption   = "✅ Done"
	oversizedMsg  = "⚠️ File size is %s, too large to send through the bot.\nDirect link:\n%s" // size, link
	sendFailedMsg = "⚠️ Could not send the media through Telegram. Here is the link: %s\nError: %v" // link, error

	// Practical ceiling for media Telegram will fetch by URL for a bot
	DefaultMaxBytes = 49 * 1024 * 1024
)

// MediaSender is the outbound side of the chat transport. Implementations report
// transport failures as *model.DeliveryError.
type MediaSender interface {
	SendText(ctx context.Context, chat model.Chat, text string) error
	SendAudio(ctx context.Context, chat model.Chat, mediaURL string, caption string) error
	SendPhoto(ctx context.Context, chat model.Chat, mediaURL string, caption string) error
	SendVideo(ctx context.Context, chat model.Chat, mediaURL string, caption string) error
}

type SizeProber interface {
	ProbeSize(ctx context.Context, directURL string) (int64, bool)
}

type Responder struct {
	sender          MediaSender
	prober          SizeProber
	maxBytes        int64
	testModeEnabled bool
}

func NewResponder(sender MediaSender, prober SizeProber, maxBytes int64, isTestMode bool) *Responder {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Responder{
		sender:          sender,
		prober:          prober,
		maxBytes:        maxBytes,
		testModeEnabled: isTestMode,
	}
}

// Delivery describes what Deliver did.
type Delivery struct {
	Outcome   model.Outcome
	SizeBytes int64
	SizeKnown bool
}

/*
Deliver relays a resolved media URL to the chat:

 1. probe the size; failures only mean the size is unknown
 2. if the size is known and over the limit, send the link as text and stop
 3. otherwise send as audio, photo or video depending on the kind
 4. if the transport rejects the media, send the link as text instead

Transport failures never escape. The returned error is only set when a send
path failed with something other than a *model.DeliveryError, or when even the
text fallback could not be sent.
*/
func (r *Responder) Deliver(ctx context.Context, chat model.Chat, result model.ResolutionResult, audioOnly bool) (Delivery, error) {
	logger := log.WithField("chatID", chat.ID).WithField("directURL", result.DirectURL).WithField("kind", result.Kind)

	size, sizeKnown := r.prober.ProbeSize(ctx, result.DirectURL)
	delivery := Delivery{SizeBytes: size, SizeKnown: sizeKnown}
	if sizeKnown {
		logger = logger.WithField("size", size)
	} else {
		logger.Debug("media size unknown")
	}

	if sizeKnown && size > r.maxBytes {
		logger.WithField("maxBytes", r.maxBytes).Info("media over the size limit, sending link")
		delivery.Outcome = model.OutcomeOversized
		if err := r.sender.SendText(ctx, chat, fmt.Sprintf(oversizedMsg, humanSize(size), result.DirectURL)); err != nil {
			delivery.Outcome = model.OutcomeFailed
			return delivery, err
		}
		return delivery, nil
	}

	caption := generateCaption(size, sizeKnown)
	send := r.mediaSend(ctx, chat, result, audioOnly, caption)
	if r.testModeEnabled {
		logger.WithField("caption", caption).Info("Simulating media send")
		send = func() error { return nil }
	}

	fallbackUsed := false
	err := withFallback(send, func(sendErr error) error {
		fallbackUsed = true
		logger.Warnf("error sending media, falling back to link: %v", sendErr)
		return r.sender.SendText(ctx, chat, fmt.Sprintf(sendFailedMsg, result.DirectURL, sendErr))
	})
	switch {
	case err != nil:
		delivery.Outcome = model.OutcomeFailed
		logger.Errorf("error delivering media: %v", err)
	case fallbackUsed:
		delivery.Outcome = model.OutcomeFallbackSent
	default:
		delivery.Outcome = model.OutcomeDelivered
		logger.Info("media delivered")
	}
	return delivery, err
}

// Explicitly requesting audio wins over the resolved kind.
func (r *Responder) mediaSend(ctx context.Context, chat model.Chat, result model.ResolutionResult, audioOnly bool, caption string) func() error {
	switch {
	case result.Kind == model.KindAudio || audioOnly:
		return func() error { return r.sender.SendAudio(ctx, chat, result.DirectURL, caption) }
	case result.Kind == model.KindImage:
		return func() error { return r.sender.SendPhoto(ctx, chat, result.DirectURL, caption) }
	default:
		// video or generic file
		return func() error { return r.sender.SendVideo(ctx, chat, result.DirectURL, caption) }
	}
}

// withFallback runs attempt and, only if it fails with a *model.DeliveryError,
// runs fallback with that error. Other errors are returned untouched.
func withFallback(attempt func() error, fallback func(error) error) error {
	err := attempt()
	if err == nil {
		return nil
	}
	var deliveryErr *model.DeliveryError
	if !errors.As(err, &deliveryErr) {
		return err
	}
	return fallback(deliveryErr)
}

func generateCaption(size int64, sizeKnown bool) string {
	if !sizeKnown {
		return doneCaption
	}
	return fmt.Sprintf("%s (%s)", doneCaption, humanSize(size))
}

func humanSize(nbytes int64) string {
	return humanize.IBytes(uint64(nbytes))
}
