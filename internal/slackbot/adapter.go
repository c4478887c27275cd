package slackbot

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"golang.org/x/sync/errgroup"

	"github.com/esi/esi-bot/internal/bot"
	"github.com/esi/esi-bot/internal/logger"
)

const subtypeMessageChanged = "message_changed"

// StartupMessages are posted to the primary channel on the first connect.
var StartupMessages = []string{
	"hello, world",
	"how did I wake up here?",
	"anyone seen my pants?",
	"I need coffee",
	"it's bot o'clock",
	"rip my cache",
	"this isn't where I parked my car",
	"spam can take many different forms",
	"uhhhhhh, hi?",
	"I guess I'm online again :/",
	"WHO TOUCHED MY BITS?",
	"vim > emacs",
	"rust is better than golang",
	"some of you are cool. you might be spared in the bot uprising",
	"what was that?",
	"who pinged me?",
	"was I pinged?",
	"I'm just here for the memes",
	":frogsiren: someone kicked me :frogsiren:",
}

// EventHandler consumes chat events. *bot.Processor satisfies it.
type EventHandler interface {
	Process(ctx context.Context, ev bot.Event) error
}

// AdapterConfig configures an Adapter.
type AdapterConfig struct {
	// Channels is the allow-list by name; the first entry is the primary channel.
	Channels []string
	// Greeting posts a startup message to the primary channel.
	Greeting bool
}

// Adapter runs the Socket Mode event loop.
type Adapter struct {
	api      API
	socket   SocketClient
	events   <-chan socketmode.Event
	sender   *Sender
	channels *Channels
	handler  EventHandler
	greeting bool
	log      *logger.Logger
	pick     func(n int) int

	botUserID string
	greetOnce sync.Once
}

// NewClient creates the Web API client. The app-level token enables Socket Mode.
func NewClient(botToken, appToken string) *slack.Client {
	return slack.New(botToken, slack.OptionAppLevelToken(appToken))
}

// NewAdapter creates an adapter on a Socket Mode connection over api.
func NewAdapter(api *slack.Client, handler EventHandler, cfg AdapterConfig, log *logger.Logger) *Adapter {
	socket := socketmode.New(api)
	return newAdapter(api, socket, socket.Events, handler, cfg, log)
}

func newAdapter(api API, socket SocketClient, events <-chan socketmode.Event, handler EventHandler, cfg AdapterConfig, log *logger.Logger) *Adapter {
	log = log.WithModule("slack")
	return &Adapter{
		api:      api,
		socket:   socket,
		events:   events,
		sender:   NewSender(api),
		channels: NewChannels(api, cfg.Channels, log),
		handler:  handler,
		greeting: cfg.Greeting,
		log:      log,
		pick:     rand.IntN,
	}
}

// Channels returns the allow-list.
func (a *Adapter) Channels() *Channels {
	return a.channels
}

// Run authenticates, joins the allowed channels and processes events until
// ctx is cancelled.
func (a *Adapter) Run(ctx context.Context) error {
	auth, err := a.api.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack auth: %w", err)
	}
	a.botUserID = auth.UserID
	a.log.WithField("bot_user_id", auth.UserID).Info("Authenticated with Slack")

	if err := a.channels.Join(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.socket.RunContext(gctx)
	})
	g.Go(func() error {
		a.loop(gctx)
		return nil
	})

	err = g.Wait()
	if ctx.Err() != nil && (err == nil || errors.Is(err, context.Canceled)) {
		return nil
	}
	return err
}

func (a *Adapter) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-a.events:
			if !ok {
				return
			}
			a.handle(ctx, evt)
		}
	}
}

func (a *Adapter) handle(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		a.log.Debug("Connecting to Socket Mode")
	case socketmode.EventTypeConnectionError:
		a.log.WithField("data", evt.Data).Warn("Socket Mode connection error")
	case socketmode.EventTypeConnected:
		a.log.Info("Connected to Socket Mode")
		a.greet(ctx)
	case socketmode.EventTypeEventsAPI:
		a.ack(evt)
		apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok || apiEvent.Type != slackevents.CallbackEvent {
			return
		}
		if msg, ok := apiEvent.InnerEvent.Data.(*slackevents.MessageEvent); ok {
			a.message(ctx, msg)
		}
	default:
		a.ack(evt)
	}
}

func (a *Adapter) ack(evt socketmode.Event) {
	if evt.Request != nil {
		a.socket.Ack(*evt.Request)
	}
}

func (a *Adapter) message(ctx context.Context, msg *slackevents.MessageEvent) {
	ev, ok := ConvertMessage(msg)
	if !ok || ev.User == a.botUserID {
		return
	}
	if !a.channels.Allowed(ev.Channel) {
		return
	}
	if err := a.handler.Process(ctx, ev); err != nil {
		a.log.WithError(err).WithField("channel", ev.Channel).Warn("Failed to process message")
	}
}

// greet posts one startup message per process; Socket Mode reconnects do not repeat it.
func (a *Adapter) greet(ctx context.Context) {
	if !a.greeting {
		return
	}
	a.greetOnce.Do(func() {
		primary := a.channels.Primary()
		text := StartupMessages[a.pick(len(StartupMessages))]
		if err := a.sender.PostMessage(ctx, primary, text, nil, false); err != nil {
			a.log.WithError(err).Warn("Failed to post startup greeting")
		}
	})
}

// ConvertMessage maps a Slack message event to a bot.Event. Bot messages,
// subtypes other than message_changed and changes that are not user edits
// (such as link unfurls) are dropped.
func ConvertMessage(msg *slackevents.MessageEvent) (bot.Event, bool) {
	if msg == nil || msg.BotID != "" {
		return bot.Event{}, false
	}

	switch msg.SubType {
	case "":
		if msg.User == "" {
			return bot.Event{}, false
		}
		return bot.Event{
			ID:        msg.TimeStamp,
			Channel:   msg.Channel,
			User:      msg.User,
			Text:      msg.Text,
			Timestamp: ParseTimestamp(msg.TimeStamp),
		}, true

	case subtypeMessageChanged:
		edited := msg.Message
		if edited == nil || edited.BotID != "" || edited.User == "" || edited.Edited == nil {
			return bot.Event{}, false
		}
		editedAt := ParseTimestamp(edited.Edited.Timestamp)
		if editedAt.IsZero() {
			editedAt = ParseTimestamp(msg.TimeStamp)
		}
		return bot.Event{
			ID:        edited.Timestamp,
			Channel:   msg.Channel,
			User:      edited.User,
			Text:      edited.Text,
			Timestamp: ParseTimestamp(edited.Timestamp),
			EditedAt:  editedAt,
		}, true
	}
	return bot.Event{}, false
}

// ParseTimestamp converts a Slack "seconds.micros" timestamp. Malformed
// input yields the zero time.
func ParseTimestamp(ts string) time.Time {
	secs, frac, _ := strings.Cut(ts, ".")
	sec, err := strconv.ParseInt(secs, 10, 64)
	if err != nil {
		return time.Time{}
	}
	var nsec int64
	if frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		frac += strings.Repeat("0", 9-len(frac))
		if nsec, err = strconv.ParseInt(frac, 10, 64); err != nil {
			return time.Time{}
		}
	}
	return time.Unix(sec, nsec).UTC()
}
