// Package healthcheck implements the probe subcommand: connect to the
// local bridge, drive it through a Settings+Embed handshake, and confirm
// the bridge echoes the probe token back within five frames.
package healthcheck

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"octoshim/internal/wire"
)

const (
	maxFrames   = 5
	readTimeout = 5 * time.Second
)

// Run dials addr, runs the handshake, and returns nil iff the bridge echoes
// the generated token back as a Command Request within maxFrames reads.
func Run(addr string, channelID uint64) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("healthcheck: dial %s: %w", addr, err)
	}
	defer conn.Close()

	if err := wire.WriteResponse(conn, &wire.Response{
		Kind:     wire.ResponseSettings,
		Settings: &wire.Settings{ChannelID: channelID},
	}); err != nil {
		return fmt.Errorf("healthcheck: send settings: %w", err)
	}

	token := uuid.New().String()
	if err := wire.WriteResponse(conn, &wire.Response{
		Kind:  wire.ResponseEmbed,
		Embed: &wire.EmbedContent{Title: token},
	}); err != nil {
		return fmt.Errorf("healthcheck: send embed: %w", err)
	}

	for i := 0; i < maxFrames; i++ {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		req, err := wire.ReadRequest(conn)
		if err != nil {
			return fmt.Errorf("healthcheck: read request %d: %w", i, err)
		}
		if req.Kind == wire.RequestCommand && req.Command == token {
			return nil
		}
	}
	return errors.New("healthcheck: probe token not echoed within five frames")
}
