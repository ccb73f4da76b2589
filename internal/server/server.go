// Package server runs the TCP listener and owns per-connection session
// startup.
package server

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/HolySSA/holyshit-game-server/internal/session"
)

// Server accepts client connections and runs one session read loop per
// connection.
type Server struct {
	addr     string
	handler  session.Handler
	sessions *session.Registry
	log      *zap.Logger

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

func New(addr string, handler session.Handler, sessions *session.Registry, log *zap.Logger) *Server {
	return &Server{addr: addr, handler: handler, sessions: sessions, log: log}
}

// Start binds the listener and serves accepts in a background goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.log.Info("game server listening", zap.String("addr", s.addr))

	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn("accept failed", zap.Error(err))
			continue
		}
		sess := session.New(conn, s.handler, s.sessions, s.log)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sess.Run()
		}()
	}
}

// Stop closes the listener, tears down every live session and waits for the
// read loops to drain.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.ln != nil {
		_ = s.ln.Close()
	}
	s.mu.Unlock()

	s.sessions.CloseAll()
	s.wg.Wait()
	s.log.Info("game server stopped")
}
