// Package notify delivers maintenance reminders over UDP. Clients
// register themselves with a small JSON datagram; due reminders are
// broadcast to every registered client. Reminders are keyed by
// (entity id, entity kind): scheduling the same key again replaces the
// previous reminder, never duplicates it.
package notify

import (
	"encoding/json"
	"errors"
	"net"
	"sync"

	"go.uber.org/zap"
)

const (
	RegisterMessageType       = "register"
	MaintenanceDueMessageType = "maintenance_due"
)

type RegisterMessage struct {
	Type     string `json:"type"`
	ClientID string `json:"client_id"`
}

type MaintenanceDueMessage struct {
	Type          string `json:"type"`
	Kind          string `json:"kind"`
	EntityID      string `json:"entity_id"`
	Name          string `json:"name"`
	DueDate       string `json:"due_date"`
	DaysRemaining int    `json:"days_remaining"`
}

type Client struct {
	ClientID string
	Addr     *net.UDPAddr
}

// Key identifies a scheduled reminder.
type Key struct {
	Kind string
	ID   string
}

type Reminder struct {
	Key           Key
	Name          string
	DueDate       string
	DaysRemaining int
}

type Registry struct {
	mu        sync.RWMutex
	clients   map[string]Client
	reminders map[Key]Reminder
}

func NewRegistry() *Registry {
	return &Registry{
		clients:   make(map[string]Client),
		reminders: make(map[Key]Reminder),
	}
}

func (r *Registry) Register(clientID string, addr *net.UDPAddr) {
	if clientID == "" || addr == nil {
		return
	}
	r.mu.Lock()
	r.clients[clientID] = Client{ClientID: clientID, Addr: addr}
	r.mu.Unlock()
}

func (r *Registry) Remove(clientID string) {
	r.mu.Lock()
	delete(r.clients, clientID)
	r.mu.Unlock()
}

func (r *Registry) Snapshot() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]Client, 0, len(r.clients))
	for _, client := range r.clients {
		clients = append(clients, client)
	}
	return clients
}

// Schedule records a reminder, replacing any previous one for the same
// key.
func (r *Registry) Schedule(rem Reminder) {
	r.mu.Lock()
	r.reminders[rem.Key] = rem
	r.mu.Unlock()
}

func (r *Registry) Cancel(key Key) {
	r.mu.Lock()
	delete(r.reminders, key)
	r.mu.Unlock()
}

// Prune drops every reminder whose key is not in keep. Used after a
// schedule rebuild so deleted entities and disabled notifications fall
// out.
func (r *Registry) Prune(keep map[Key]bool) {
	r.mu.Lock()
	for key := range r.reminders {
		if !keep[key] {
			delete(r.reminders, key)
		}
	}
	r.mu.Unlock()
}

func (r *Registry) Reminders() []Reminder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Reminder, 0, len(r.reminders))
	for _, rem := range r.reminders {
		out = append(out, rem)
	}
	return out
}

// Due returns reminders whose due date is today or already past.
func (r *Registry) Due() []Reminder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Reminder
	for _, rem := range r.reminders {
		if rem.DaysRemaining <= 0 {
			out = append(out, rem)
		}
	}
	return out
}

type Server struct {
	addr     string
	registry *Registry
	log      *zap.Logger
	conn     *net.UDPConn
}

func NewServer(addr string, registry *Registry, log *zap.Logger) *Server {
	return &Server{addr: addr, registry: registry, log: log}
}

func (s *Server) Run() error {
	udpAddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	s.conn = conn
	defer conn.Close()

	s.log.Info("UDP reminder server listening", zap.String("addr", s.addr))

	buffer := make([]byte, 2048)
	for {
		n, addr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		msg, err := parseRegisterMessage(buffer[:n])
		if err != nil {
			s.log.Warn("invalid UDP message", zap.Stringer("from", addr), zap.Error(err))
			continue
		}
		if msg.Type != RegisterMessageType {
			continue
		}
		s.registry.Register(msg.ClientID, addr)
		s.log.Info("registered UDP client", zap.String("client", msg.ClientID), zap.Stringer("addr", addr))
	}
}

func (s *Server) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// BroadcastDue pushes every due reminder to every registered client.
func (s *Server) BroadcastDue() {
	if s.conn == nil {
		s.log.Warn("UDP reminder server not running")
		return
	}

	for _, rem := range s.registry.Due() {
		payload, err := json.Marshal(MaintenanceDueMessage{
			Type:          MaintenanceDueMessageType,
			Kind:          rem.Key.Kind,
			EntityID:      rem.Key.ID,
			Name:          rem.Name,
			DueDate:       rem.DueDate,
			DaysRemaining: rem.DaysRemaining,
		})
		if err != nil {
			s.log.Warn("failed to marshal reminder", zap.Error(err))
			continue
		}

		for _, client := range s.registry.Snapshot() {
			s.sendWithRetry(client, payload)
		}
	}
}

func (s *Server) sendWithRetry(client Client, payload []byte) {
	if err := s.sendOnce(client, payload); err == nil {
		return
	}
	if err := s.sendOnce(client, payload); err != nil {
		s.log.Warn("failed to notify client",
			zap.String("client", client.ClientID), zap.Error(err))
		s.registry.Remove(client.ClientID)
	}
}

func (s *Server) sendOnce(client Client, payload []byte) error {
	if client.Addr == nil {
		return errors.New("missing client address")
	}
	_, err := s.conn.WriteToUDP(payload, client.Addr)
	return err
}

func parseRegisterMessage(data []byte) (RegisterMessage, error) {
	var msg RegisterMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, err
	}
	if msg.ClientID == "" || msg.Type == "" {
		return msg, errors.New("missing required fields")
	}
	return msg, nil
}
