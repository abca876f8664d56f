// Package connection owns the TCP listener and the per-connection task
// lifecycle: ACCEPTED -> REGISTERED -> RUNNING -> DRAINING -> CLOSED.
package connection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"octoshim/internal/registry"
	"octoshim/internal/wire"
)

// Dispatcher interprets one decoded Response for a given instance.
// Dispatch has no error result: API-transient failures are logged inside
// it and the connection stays up; only transport failures in the reader or
// writer tear the connection down.
type Dispatcher interface {
	Dispatch(ctx context.Context, rec *registry.Record, resp *wire.Response)
}

// Metrics is the subset of observability hooks the connection layer
// drives; satisfied by internal/metrics.Registry.
type Metrics interface {
	ConnectionOpened()
	ConnectionClosed()
	FrameRead(bytes int)
	FrameWritten()
	AcceptError()
}

// Server owns the TCP listener and spawns one connection task per accepted
// peer.
type Server struct {
	addr       string
	registry   *registry.Registry
	dispatcher Dispatcher
	logger     *zap.Logger
	metrics    Metrics

	listener net.Listener
	wg       sync.WaitGroup
}

// NewServer builds a Server bound to addr (not yet listening).
func NewServer(addr string, reg *registry.Registry, dispatcher Dispatcher, logger *zap.Logger, m Metrics) *Server {
	return &Server{addr: addr, registry: reg, dispatcher: dispatcher, logger: logger, metrics: m}
}

// Start binds the listener and begins accepting connections in the
// background. It returns once the listener is bound; Stop waits for every
// spawned connection task to finish.
func (s *Server) Start(ctx context.Context) error {
	if s.listener != nil {
		return errors.New("connection: server already started")
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("connection: listen %s: %w", s.addr, err)
	}
	s.listener = ln
	s.logger.Info("tcp listener started", zap.String("addr", s.addr))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx)
	}()
	return nil
}

// Stop closes the listener and blocks until every connection task has torn
// down.
func (s *Server) Stop() {
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			s.logger.Error("accept error", zap.Error(err))
			if s.metrics != nil {
				s.metrics.AcceptError()
			}
			return
		}

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			s.handleConnection(ctx, c)
		}(conn)
	}
}

// handleConnection runs one connection task end to end: ACCEPTED ->
// REGISTERED -> RUNNING -> DRAINING -> CLOSED.
func (s *Server) handleConnection(parent context.Context, conn net.Conn) {
	peer := conn.RemoteAddr().String()
	s.logger.Debug("connection accepted", zap.String("peer", peer))

	// ACCEPTED -> REGISTERED
	queue := NewQueue()
	rec := registry.NewRecord(peer, queue)
	s.registry.Register(rec)
	if s.metrics != nil {
		s.metrics.ConnectionOpened()
	}

	defer func() {
		// DRAINING -> CLOSED
		s.registry.Unregister(rec)
		if s.metrics != nil {
			s.metrics.ConnectionClosed()
		}
		s.logger.Debug("connection closed", zap.String("peer", peer))
	}()

	connCtx, cancel := context.WithCancel(parent)
	defer cancel()

	// REGISTERED -> RUNNING
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(conn, queue)
		// The writer stopped on its own (a write error, or the queue was
		// closed out from under it). The reader may still be parked in a
		// blocking read waiting on a peer that will never write again, so
		// force the socket closed to pull it out of that read immediately
		// rather than leaving it to time out on its own.
		conn.Close()
	}()

	s.readLoop(connCtx, conn, rec)

	// The reader exited, either on its own (EOF, a decode error) or
	// because the writer above forced the socket closed. Either way,
	// signal the writer and wait for it before tearing the record down.
	cancel()
	queue.Close()
	conn.Close()
	<-writerDone
}

func (s *Server) readLoop(ctx context.Context, conn net.Conn, rec *registry.Record) {
	for {
		resp, frameLen, err := wire.ReadResponseSize(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Debug("reader terminated", zap.String("peer", rec.PeerAddr), zap.Error(err))
			}
			return
		}

		rec.RecordFrame(frameLen)
		if s.metrics != nil {
			s.metrics.FrameRead(frameLen)
		}

		s.dispatcher.Dispatch(ctx, rec, resp)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (s *Server) writeLoop(conn net.Conn, queue *Queue) {
	for {
		req, ok := queue.Next()
		if !ok {
			return
		}
		if err := wire.WriteRequest(conn, req); err != nil {
			s.logger.Debug("writer terminated", zap.Error(err))
			return
		}
		if s.metrics != nil {
			s.metrics.FrameWritten()
		}
	}
}
