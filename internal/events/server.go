package events

import (
	"bufio"
	"errors"
	"net"

	"go.uber.org/zap"
)

// Server exposes the event feed over plain TCP: one JSON event per
// line. Clients connect and read; anything they send is ignored.
type Server struct {
	Addr string
	Hub  *Hub
	Log  *zap.Logger

	ln net.Listener
}

func NewServer(addr string, hub *Hub, log *zap.Logger) *Server {
	return &Server{Addr: addr, Hub: hub, Log: log}
}

func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.Log.Info("event feed listening", zap.String("addr", s.Addr))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		s.Hub.Add(conn)
		s.Hub.Welcome(conn)
		s.Log.Debug("event feed client connected", zap.String("remote", conn.RemoteAddr().String()))

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(c)
				s.Log.Debug("event feed client disconnected", zap.String("remote", c.RemoteAddr().String()))
			}()

			sc := bufio.NewScanner(c)
			for sc.Scan() {
				// ignore incoming lines
			}
		}(conn)
	}
}

func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}
