package publisher

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"strings"
	"time"

	irc "github.com/fluffle/goirc/client"
	"github.com/google/uuid"

	"github.com/oggyb/crushconnect/internal/config"
)

// ErrNotConnected is returned by Post while the IRC link is down.
var ErrNotConnected = errors.New("irc: not connected")

// IRCClient is the part of *irc.Conn the publisher needs.
type IRCClient interface {
	Privmsg(target, message string)
	Connected() bool
}

// IRC posts announcements to a public channel and notices to an admin channel.
type IRC struct {
	client       IRCClient
	channel      string
	adminChannel string
	log          *slog.Logger
}

// NewIRC wraps an existing client. Tests pass a fake.
func NewIRC(client IRCClient, channel, adminChannel string, log *slog.Logger) *IRC {
	return &IRC{
		client:       client,
		channel:      channel,
		adminChannel: adminChannel,
		log:          log.With("subsystem", "irc"),
	}
}

// Post sends text line by line. IRC has no multi-line messages, so a blank
// line is sent as a single space to keep the layout.
func (p *IRC) Post(_ context.Context, text string) (string, error) {
	if !p.client.Connected() {
		return "", ErrNotConnected
	}
	p.send(p.channel, text)
	return uuid.NewString(), nil
}

func (p *IRC) Notify(_ context.Context, text string) {
	if !p.client.Connected() {
		p.log.Warn("admin notice dropped", "err", ErrNotConnected, "text", text)
		return
	}
	p.send(p.adminChannel, text)
}

func (p *IRC) send(target, text string) {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			line = " "
		}
		p.client.Privmsg(target, line)
	}
}

// Dial connects to the configured IRC server, joins both channels and keeps
// reconnecting until ctx is done.
func Dial(ctx context.Context, cfg *config.Config, log *slog.Logger) *irc.Conn {
	ircConfig := irc.NewConfig(cfg.IRC.Nick)
	ircConfig.SSL = cfg.IRC.SSL
	ircConfig.SSLConfig = &tls.Config{ServerName: strings.Split(cfg.IRC.Server, ":")[0]}
	ircConfig.Server = cfg.IRC.Server

	conn := irc.Client(ircConfig)
	log = log.With("subsystem", "irc", "server", cfg.IRC.Server)

	join := func(conn *irc.Conn, line *irc.Line) {
		conn.Join(cfg.IRC.Channel)
		conn.Join(cfg.IRC.AdminChannel)
	}
	conn.HandleFunc(irc.CONNECTED, join)
	conn.HandleFunc("422", join) // no MOTD
	conn.HandleFunc("376", join) // end of MOTD
	conn.HandleFunc(irc.INVITE, func(conn *irc.Conn, line *irc.Line) {
		log.Info("ignoring invite", "channel", line.Args[1], "from", line.Nick)
	})

	disconnected := make(chan struct{}, 1)
	conn.HandleFunc(irc.DISCONNECTED, func(conn *irc.Conn, line *irc.Line) {
		select {
		case disconnected <- struct{}{}:
		default:
		}
	})

	go func() {
		for {
			if err := conn.Connect(); err != nil {
				log.Error("irc connect failed", "err", err)
			} else {
				log.Info("irc connected")
				select {
				case <-disconnected:
					log.Warn("irc disconnected")
				case <-ctx.Done():
					conn.Quit("shutting down")
					return
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(10 * time.Second):
			}
		}
	}()
	return conn
}

// New picks the IRC publisher when a server is configured and the log
// publisher otherwise.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (ChannelPublisher, AdminNotifier) {
	if cfg.IRC.Server == "" {
		l := NewLog(log)
		return l, l
	}
	p := NewIRC(Dial(ctx, cfg, log), cfg.IRC.Channel, cfg.IRC.AdminChannel, log)
	log.Info("publishing to irc", "server", cfg.IRC.Server, "channel", cfg.IRC.Channel)
	return p, p
}
