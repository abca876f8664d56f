// Package router turns inbound chat events into Requests fanned out to
// the local instances bound to the originating channel.
package router

import (
	"context"
	"fmt"

	"octoshim/internal/chatgateway"
	"octoshim/internal/registry"
	"octoshim/internal/stats"
	"octoshim/internal/wire"
)

// Router builds Requests and hands them to the registry for fan-out.
type Router struct {
	registry *registry.Registry
}

// New builds a Router over reg.
func New(reg *registry.Registry) *Router {
	return &Router{registry: reg}
}

// SendCommand broadcasts a Command-variant Request to every instance bound
// to channel. It returns the number of recipients.
func (r *Router) SendCommand(channel, user uint64, text string) int {
	req := &wire.Request{User: user, Kind: wire.RequestCommand, Command: text}
	return r.registry.BroadcastToChannel(channel, req)
}

// SendFile broadcasts a File-variant Request to every instance bound to
// channel.
func (r *Router) SendFile(channel, user uint64, filename string, data []byte) int {
	req := &wire.Request{User: user, Kind: wire.RequestFile, File: &wire.ProtoFile{Filename: filename, Data: data}}
	return r.registry.BroadcastToChannel(channel, req)
}

// SendStats serialises the registry's stats snapshot as CSV and sends it to
// channel as a file attachment named stats.csv.
func (r *Router) SendStats(ctx context.Context, channel uint64, session chatgateway.Session) error {
	snapshot := r.registry.SnapshotStats()
	data, err := stats.EncodeCSV(snapshot)
	if err != nil {
		return fmt.Errorf("router: encode stats: %w", err)
	}
	return session.SendFiles(ctx, channel, "", nil, []chatgateway.Attachment{
		{Filename: "stats.csv", Data: data},
	})
}
