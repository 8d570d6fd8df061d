package telegram

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gotd/td/session"
	tgclient "github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/message/peer"
	"github.com/gotd/td/tg"
)

// MTProtoConfig holds the user-account credentials used to read a public
// channel. Bot accounts cannot read channel history.
type MTProtoConfig struct {
	AppID       int
	AppHash     string
	Phone       string
	Password    string
	SessionFile string
	Channel     string // username without @
	// CodeInput supplies the login code on the first run; later runs reuse
	// the session file.
	CodeInput io.Reader
}

// MTProto implements Sessions on top of a gotd client.
type MTProto struct {
	cfg    MTProtoConfig
	logger *slog.Logger
}

func NewMTProto(cfg MTProtoConfig, logger *slog.Logger) *MTProto {
	return &MTProto{
		cfg:    cfg,
		logger: logger.With("source", Platform),
	}
}

func (m *MTProto) Session(ctx context.Context, fn func(ctx context.Context, h History) error) error {
	client := tgclient.NewClient(m.cfg.AppID, m.cfg.AppHash, tgclient.Options{
		SessionStorage: &session.FileStorage{Path: m.cfg.SessionFile},
	})

	return client.Run(ctx, func(ctx context.Context) error {
		flow := auth.NewFlow(
			auth.Constant(m.cfg.Phone, m.cfg.Password, auth.CodeAuthenticatorFunc(m.readCode)),
			auth.SendCodeOptions{},
		)
		if err := client.Auth().IfNecessary(ctx, flow); err != nil {
			return fmt.Errorf("login: %w", err)
		}

		api := client.API()
		channel, err := peer.DefaultResolver(api).ResolveDomain(ctx, m.cfg.Channel)
		if err != nil {
			return fmt.Errorf("resolve channel %q: %w", m.cfg.Channel, err)
		}

		return fn(ctx, &channelHistory{api: api, peer: channel})
	})
}

func (m *MTProto) readCode(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	if m.cfg.CodeInput == nil {
		return "", errors.New("login code required but no code input is configured")
	}

	m.logger.Warn("telegram login code requested, enter it on stdin")
	line, err := bufio.NewReader(m.cfg.CodeInput).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read login code: %w", err)
	}
	return strings.TrimSpace(line), nil
}

type channelHistory struct {
	api  *tg.Client
	peer tg.InputPeerClass
}

func (c *channelHistory) History(ctx context.Context, fromID, limit int) ([]Message, error) {
	res, err := c.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:     c.peer,
		OffsetID: fromID,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}

	var raw []tg.MessageClass
	switch r := res.(type) {
	case *tg.MessagesChannelMessages:
		raw = r.Messages
	case *tg.MessagesMessagesSlice:
		raw = r.Messages
	case *tg.MessagesMessages:
		raw = r.Messages
	default:
		return nil, nil
	}

	out := make([]Message, 0, len(raw))
	for _, m := range raw {
		msg, ok := m.(*tg.Message)
		if !ok {
			// service messages still move the paging anchor
			out = append(out, Message{ID: m.GetID(), Kind: KindOther})
			continue
		}
		out = append(out, fromMTProto(msg))
	}
	return out, nil
}

func fromMTProto(msg *tg.Message) Message {
	m := Message{
		ID:   msg.ID,
		Kind: KindOther,
		Text: msg.Message,
	}

	media, hasMedia := msg.GetMedia()
	switch media.(type) {
	case *tg.MessageMediaPhoto:
		m.Kind = KindPhoto
	case *tg.MessageMediaWebPage:
		m.Kind = KindText
	default:
		if !hasMedia {
			m.Kind = KindText
		}
	}

	if views, ok := msg.GetViews(); ok {
		m.Views = views
	}
	if forwards, ok := msg.GetForwards(); ok {
		m.Forwards = forwards
	}

	if reactions, ok := msg.GetReactions(); ok {
		for _, rc := range reactions.Results {
			if emoji, ok := rc.Reaction.(*tg.ReactionEmoji); ok {
				m.Reactions = append(m.Reactions, emoji.Emoticon)
			}
		}
	}

	return m
}
