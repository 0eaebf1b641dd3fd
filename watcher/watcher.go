package watcher

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/truemediaorg/cobaltbot/link"
	"github.com/truemediaorg/cobaltbot/metrics"
	"github.com/truemediaorg/cobaltbot/model"
	"github.com/truemediaorg/cobaltbot/responder"
	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"

	log "github.com/sirupsen/logrus"
)

const (
	welcomeMsg         = "Hi! I download media from links for you.\nSend me a link and I'll reply with the video.\n\n%s" // usage
	resolvingMsg       = "⏳ Resolving the link..."
	resolutionErrorMsg = "❌ Resolution error: %v"
	invalidLinkMsg     = "That doesn't look like a link: %s"
	commandUsageMsg    = "Please send /%s <link>, or reply to a message that contains a link." // command name
)

type MessageSource interface {
	Messages(ctx context.Context) <-chan model.Message
}

type TextSender interface {
	SendText(ctx context.Context, chat model.Chat, text string) error
}

type MediaResolver interface {
	Resolve(ctx context.Context, request model.ResolutionRequest) (model.ResolutionResult, error)
}

type MediaDeliverer interface {
	Deliver(ctx context.Context, chat model.Chat, result model.ResolutionResult, audioOnly bool) (responder.Delivery, error)
}

type RelayRecorder interface {
	AddRelay(ctx context.Context, relay model.Relay) error
}

type Watcher struct {
	source    MessageSource
	sender    TextSender
	resolver  MediaResolver
	deliverer MediaDeliverer
	db        RelayRecorder
}

func NewWatcher(source MessageSource, sender TextSender, resolver MediaResolver, deliverer MediaDeliverer, db RelayRecorder) *Watcher {
	return &Watcher{
		source:    source,
		sender:    sender,
		resolver:  resolver,
		deliverer: deliverer,
		db:        db,
	}
}

/*
Watch handles inbound messages until ctx is done or the source closes.
Every message gets its own goroutine; there is no ordering between them, not even
for the same chat. Requests already in flight are allowed to finish on shutdown,
bounded by their own HTTP timeouts.
*/
func (w *Watcher) Watch(ctx context.Context) error {
	var g errgroup.Group
	requestCtx := context.WithoutCancel(ctx)
	messages := w.source.Messages(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Debug("exiting Watcher by closing channel")
			return g.Wait()
		case msg, ok := <-messages:
			if !ok {
				log.Debug("message source closed")
				return g.Wait()
			}
			g.Go(func() error {
				w.handleMessage(requestCtx, msg)
				return nil
			})
		}
	}
}

type commandHandler func(ctx context.Context, msg model.Message) error

type commandRoute struct {
	usage   string
	handler commandHandler
}

func (w *Watcher) commandRoutes() map[string]commandRoute {
	return map[string]commandRoute{
		"start": {"show the welcome message", w.handleStartCommand},
		"help":  {"show this message", w.handleHelpCommand},
		"audio": {"<link> send only the audio", w.relayCommand(true)},
		"video": {"<link> send the video", w.relayCommand(false)},
	}
}

func (w *Watcher) handleMessage(ctx context.Context, msg model.Message) {
	logger := log.WithField("chatID", msg.ChatID).WithField("messageID", msg.MessageID).WithField("userName", msg.UserName)
	var err error
	if msg.IsCommand() {
		route, ok := w.commandRoutes()[msg.Command]
		if !ok {
			logger.WithField("command", msg.Command).Debug("ignoring unknown command")
			return
		}
		metrics.IncRequest(msg.Command)
		err = route.handler(ctx, msg)
	} else {
		sourceURL := link.ExtractFirstURL(msg.Text)
		if sourceURL == "" {
			// ignore chatter without a link
			return
		}
		metrics.IncRequest("")
		err = w.relay(ctx, msg, sourceURL, false)
	}
	if err != nil {
		logger.Errorf("error handling message: %v", err)
	}
}

func (w *Watcher) handleStartCommand(ctx context.Context, msg model.Message) error {
	return w.sender.SendText(ctx, msg.ReplyChat(), fmt.Sprintf(welcomeMsg, w.usage()))
}

func (w *Watcher) handleHelpCommand(ctx context.Context, msg model.Message) error {
	return w.sender.SendText(ctx, msg.ReplyChat(), w.usage())
}

func (w *Watcher) usage() string {
	routes := w.commandRoutes()
	commands := maps.Keys(routes)
	sort.Strings(commands)
	lines := make([]string, 0, len(commands))
	for _, command := range commands {
		lines = append(lines, fmt.Sprintf("/%s %s", command, routes[command].usage))
	}
	return strings.Join(lines, "\n")
}

// The link comes from the first argument, or else from the message being replied to.
func (w *Watcher) relayCommand(audioOnly bool) commandHandler {
	return func(ctx context.Context, msg model.Message) error {
		var sourceURL string
		if len(msg.Args) > 0 {
			sourceURL = msg.Args[0]
		} else {
			sourceURL = link.ExtractFirstURL(msg.ReplyToText)
		}
		if sourceURL == "" {
			return w.sender.SendText(ctx, msg.ReplyChat(), fmt.Sprintf(commandUsageMsg, msg.Command))
		}
		return w.relay(ctx, msg, sourceURL, audioOnly)
	}
}

// relay runs one request from resolution to delivery. Every path ends with a
// message to the user unless the transport itself is down.
func (w *Watcher) relay(ctx context.Context, msg model.Message, sourceURL string, audioOnly bool) error {
	chat := msg.ReplyChat()
	logger := log.WithField("chatID", chat.ID).WithField("sourceURL", sourceURL).WithField("audioOnly", audioOnly)

	request, err := model.NewResolutionRequest(sourceURL, audioOnly)
	if err != nil {
		return w.sender.SendText(ctx, chat, fmt.Sprintf(invalidLinkMsg, sourceURL))
	}

	// Status messages are best effort
	if err := w.sender.SendText(ctx, chat, resolvingMsg); err != nil {
		logger.Warnf("error sending status message: %v", err)
	}

	relay := model.Relay{ChatID: chat.ID, SourceURL: sourceURL}
	result, err := w.resolver.Resolve(ctx, request)
	if err != nil {
		logger.Errorf("error resolving media: %v", err)
		relay.Outcome = model.OutcomeResolutionFailed
		sendErr := w.sender.SendText(ctx, chat, fmt.Sprintf(resolutionErrorMsg, err))
		if sendErr != nil {
			relay.Outcome = model.OutcomeFailed
		}
		w.record(ctx, relay)
		return sendErr
	}

	delivery, err := w.deliverer.Deliver(ctx, chat, result, audioOnly)
	relay.DirectURL = result.DirectURL
	relay.Kind = result.Kind
	relay.Outcome = delivery.Outcome
	if delivery.SizeKnown {
		relay.SizeBytes = delivery.SizeBytes
	}
	metrics.IncDelivery(string(result.Kind), string(delivery.Outcome))
	logger.WithField("outcome", delivery.Outcome).Info("relay finished")
	w.record(ctx, relay)
	return err
}

func (w *Watcher) record(ctx context.Context, relay model.Relay) {
	if err := w.db.AddRelay(ctx, relay); err != nil {
		log.WithField("chatID", relay.ChatID).Warnf("relay finished but wasn't recorded in the database: %v", err)
	}
}
