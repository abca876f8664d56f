// Package chatgateway abstracts the chat platform the bridge relays to,
// so the core relay logic (internal/dispatch, internal/router,
// internal/presence) never imports a Discord-specific type. The only
// concrete implementation is DiscordSession, built on bwmarrin/discordgo.
package chatgateway

import (
	"context"

	"octoshim/internal/wire"
)

// ActivityKind selects the gateway presence verb.
type ActivityKind int

const (
	// ActivityPlaying renders as "Playing <text>" — used for the
	// per-Response presence variant.
	ActivityPlaying ActivityKind = iota
	// ActivityStreaming renders as "Streaming <text>" with a link — used
	// by the rate-limited "to N instances" broadcast.
	ActivityStreaming
)

// Activity describes a gateway presence update.
type Activity struct {
	Kind ActivityKind
	Text string
	URL  string
}

// Status is the gateway online/idle/dnd indicator.
type Status string

const (
	StatusOnline Status = "online"
)

// Attachment is a file to upload alongside a chat message.
type Attachment struct {
	Filename string
	Data     []byte
}

// Session is the chat-platform surface the core relay depends on.
type Session interface {
	SendMessage(ctx context.Context, channel uint64, content string, embed *wire.EmbedContent) error
	SendFiles(ctx context.Context, channel uint64, content string, embed *wire.EmbedContent, files []Attachment) error
	SetPresence(ctx context.Context, activity Activity, status Status) error
	Open(ctx context.Context) error
	Close() error
}
