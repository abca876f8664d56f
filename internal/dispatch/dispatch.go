// Package dispatch interprets one decoded wire.Response in the context of
// the instance that sent it and drives the chat gateway accordingly. It
// satisfies internal/connection.Dispatcher.
package dispatch

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"octoshim/internal/chatgateway"
	"octoshim/internal/embed"
	"octoshim/internal/registry"
	"octoshim/internal/wire"
)

var mentionRe = regexp.MustCompile(`<@[0-9A-Za-z]*>`)

// Dispatcher routes decoded Responses to the chat gateway.
type Dispatcher struct {
	session     chatgateway.Session
	logger      *zap.Logger
	cloudServer bool
}

// New builds a Dispatcher. When cloudServer is true, per-Response presence
// updates are suppressed in favor of the rate-limited "to N instances"
// broadcast (internal/presence).
func New(session chatgateway.Session, logger *zap.Logger, cloudServer bool) *Dispatcher {
	return &Dispatcher{session: session, logger: logger, cloudServer: cloudServer}
}

// Dispatch interprets resp for rec. It never returns an error: API-transient
// failures are logged and the connection stays up; only transport-terminal
// failures (handled by the caller, internal/connection) tear the
// connection down.
func (d *Dispatcher) Dispatch(ctx context.Context, rec *registry.Record, resp *wire.Response) {
	switch resp.Kind {
	case wire.ResponseNone:
		return
	case wire.ResponseFile:
		d.dispatchFile(ctx, rec, resp.File)
	case wire.ResponseEmbed:
		d.dispatchEmbed(ctx, rec, resp.Embed)
	case wire.ResponsePresence:
		d.dispatchPresence(ctx, resp.Presence)
	case wire.ResponseSettings:
		rec.ApplySettings(resp.Settings)
	}
}

func (d *Dispatcher) dispatchFile(ctx context.Context, rec *registry.Record, file *wire.ProtoFile) {
	chunks, err := embed.SplitFile(file.Filename, file.Data)
	if err != nil {
		d.logger.Error("split file", zap.String("filename", file.Filename), zap.Error(err))
		return
	}
	channel := rec.BoundChannel()
	for _, chunk := range chunks {
		err := d.session.SendFiles(ctx, channel, chunk.Filename, nil, []chatgateway.Attachment{
			{Filename: chunk.Filename, Data: chunk.Data},
		})
		if err != nil {
			d.logger.Error("send file chunk", zap.String("filename", chunk.Filename), zap.Error(err))
		}
	}
}

func (d *Dispatcher) dispatchEmbed(ctx context.Context, rec *registry.Record, e *wire.EmbedContent) {
	channel := rec.BoundChannel()
	for _, out := range embed.BuildEmbeds(e) {
		content := mentions(out.Title, out.Description)

		var err error
		if out.Snapshot != nil {
			err = d.session.SendFiles(ctx, channel, content, out, []chatgateway.Attachment{
				{Filename: out.Snapshot.Filename, Data: out.Snapshot.Data},
			})
		} else {
			err = d.session.SendMessage(ctx, channel, content, out)
		}
		if err != nil {
			d.logger.Error("send embed", zap.Uint64("channel", channel), zap.Error(err))
		}
	}
}

func (d *Dispatcher) dispatchPresence(ctx context.Context, p *wire.Presence) {
	if d.cloudServer {
		return
	}
	activity := chatgateway.Activity{Kind: chatgateway.ActivityPlaying, Text: p.Presence}
	if err := d.session.SetPresence(ctx, activity, chatgateway.StatusOnline); err != nil {
		d.logger.Error("set presence", zap.Error(err))
	}
}

// mentions scans title and description for user-mention tokens and
// concatenates them, separated by single spaces with a trailing space
// retained, so the result still pings when used as a message's outer
// content.
func mentions(title, description string) string {
	matches := append(mentionRe.FindAllString(title, -1), mentionRe.FindAllString(description, -1)...)
	if len(matches) == 0 {
		return ""
	}
	return strings.Join(matches, " ") + " "
}
