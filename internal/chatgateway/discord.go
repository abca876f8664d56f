// DiscordSession is the one concrete Session, built on bwmarrin/discordgo.
// It also owns the MessageCreate wiring that feeds internal/router, and
// the health-check self-message cooperation.
package chatgateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"octoshim/internal/wire"
)

// Router is the subset of internal/router.Router the gateway drives from
// inbound chat events. Declared here (not imported) to keep chatgateway
// free of a dependency on the router package's concrete type during
// construction — router.Router satisfies this interface structurally.
type Router interface {
	SendCommand(channel, user uint64, text string) int
	SendFile(channel, user uint64, filename string, data []byte) int
	SendStats(ctx context.Context, channel uint64, session Session) error
}

// DiscordSession adapts a *discordgo.Session to Session and wires its
// MessageCreate events into Router.
type DiscordSession struct {
	session              *discordgo.Session
	router               Router
	healthCheckChannelID uint64
	logger               *zap.Logger
}

// NewDiscordSession builds a DiscordSession from a bot token. It does not
// open the gateway connection; call Open for that.
func NewDiscordSession(token string, healthCheckChannelID uint64, router Router, logger *zap.Logger) (*DiscordSession, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("chatgateway: new session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	s := &DiscordSession{session: dg, router: router, healthCheckChannelID: healthCheckChannelID, logger: logger}
	dg.AddHandler(s.onMessageCreate)
	return s, nil
}

// Open connects to the Discord gateway.
func (s *DiscordSession) Open(_ context.Context) error {
	return s.session.Open()
}

// Close disconnects from the Discord gateway.
func (s *DiscordSession) Close() error {
	return s.session.Close()
}

// SendMessage posts content with an optional embed to channel.
func (s *DiscordSession) SendMessage(_ context.Context, channel uint64, content string, embed *wire.EmbedContent) error {
	msg := &discordgo.MessageSend{Content: content}
	if embed != nil {
		msg.Embeds = []*discordgo.MessageEmbed{toDiscordEmbed(embed, "")}
	}
	_, err := s.session.ChannelMessageSendComplex(formatSnowflake(channel), msg)
	return err
}

// SendFiles posts content, an optional embed, and one or more file
// attachments to channel. If embed carries a Snapshot, the first
// attachment is assumed to be that snapshot and the embed's image is set
// to attachment://<snapshot filename>.
func (s *DiscordSession) SendFiles(_ context.Context, channel uint64, content string, embed *wire.EmbedContent, files []Attachment) error {
	msg := &discordgo.MessageSend{Content: content}
	for _, f := range files {
		msg.Files = append(msg.Files, &discordgo.File{Name: f.Filename, Reader: bytes.NewReader(f.Data)})
	}
	if embed != nil {
		imageRef := ""
		if embed.Snapshot != nil {
			imageRef = "attachment://" + embed.Snapshot.Filename
		}
		msg.Embeds = []*discordgo.MessageEmbed{toDiscordEmbed(embed, imageRef)}
	}
	_, err := s.session.ChannelMessageSendComplex(formatSnowflake(channel), msg)
	return err
}

// SetPresence updates the bot's gateway presence.
func (s *DiscordSession) SetPresence(_ context.Context, activity Activity, status Status) error {
	activityType := discordgo.ActivityTypeGame
	if activity.Kind == ActivityStreaming {
		activityType = discordgo.ActivityTypeStreaming
	}
	return s.session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{{
			Name: activity.Text,
			Type: activityType,
			URL:  activity.URL,
		}},
		Status: string(status),
	})
}

func (s *DiscordSession) onMessageCreate(session *discordgo.Session, m *discordgo.MessageCreate) {
	channel, err := strconv.ParseUint(m.ChannelID, 10, 64)
	if err != nil {
		return
	}

	if session.State.User != nil && m.Author.ID == session.State.User.ID {
		s.forwardHealthCheckEcho(channel, m)
		return
	}

	if channel == s.healthCheckChannelID && m.Content == "/stats" {
		if err := s.router.SendStats(context.Background(), channel, s); err != nil {
			s.logger.Error("send stats", zap.Error(err))
		}
		return
	}

	user, err := strconv.ParseUint(m.Author.ID, 10, 64)
	if err != nil {
		return
	}

	for _, a := range m.Attachments {
		data, err := downloadAttachment(a.URL)
		if err != nil {
			s.logger.Error("download attachment", zap.String("url", a.URL), zap.Error(err))
			continue
		}
		s.router.SendFile(channel, user, a.Filename, data)
	}

	if m.Content != "" {
		s.router.SendCommand(channel, user, m.Content)
	}
}

// forwardHealthCheckEcho implements the bridge's half of the health-check
// handshake: a self-authored message on the health-check channel carrying
// exactly one embed is echoed back as a Command Request to every instance
// bound to that channel.
func (s *DiscordSession) forwardHealthCheckEcho(channel uint64, m *discordgo.MessageCreate) {
	if channel != s.healthCheckChannelID || len(m.Embeds) != 1 {
		return
	}
	s.router.SendCommand(channel, 0, m.Embeds[0].Title)
}

func toDiscordEmbed(e *wire.EmbedContent, imageRef string) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       int(e.Color),
	}
	if e.Author != "" {
		out.Author = &discordgo.MessageEmbedAuthor{Name: e.Author}
	}
	if imageRef != "" {
		out.Image = &discordgo.MessageEmbedImage{URL: imageRef}
	}
	for _, f := range e.TextField {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{
			Name:   f.Title,
			Value:  f.Text,
			Inline: f.Inline,
		})
	}
	return out
}

func formatSnowflake(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func downloadAttachment(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chatgateway: unexpected status %d downloading %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}
