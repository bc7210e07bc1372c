// Package mail delivers outbound email. The SMTP backend talks to a relay; the
// console backend logs messages instead and is the development default.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/idna"

	"github.com/yamdb/yamdb-server/internal/metrics"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends messages. Send returns an error if the message was not handed off.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ErrInvalidAddress is returned for recipients that cannot be encoded for SMTP.
var ErrInvalidAddress = errors.New("invalid email address")

// ToASCII converts the domain part of an address to its IDNA ASCII form.
// The local part is left untouched.
func ToASCII(addr string) (string, error) {
	at := strings.LastIndexByte(addr, '@')
	if at <= 0 || at == len(addr)-1 {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	domain, err := idna.Lookup.ToASCII(addr[at+1:])
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidAddress, addr, err)
	}
	return addr[:at+1] + domain, nil
}

// ConsoleMailer writes messages to the log.
type ConsoleMailer struct {
	logger *slog.Logger
}

// NewConsoleMailer creates a mailer that logs every message.
func NewConsoleMailer(logger *slog.Logger) *ConsoleMailer {
	return &ConsoleMailer{logger: logger}
}

// Send implements Mailer.
func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	start := time.Now()
	if _, err := ToASCII(msg.To); err != nil {
		metrics.RecordMailSend("console", time.Since(start), err)
		return err
	}
	m.logger.Info("email",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	metrics.RecordMailSend("console", time.Since(start), nil)
	return nil
}

// MemoryMailer keeps messages in memory. Tests use it to read confirmation codes.
type MemoryMailer struct {
	mu       sync.Mutex
	messages []Message

	// Err, when set, is returned by Send and nothing is recorded.
	Err error
}

// NewMemoryMailer creates an empty in-memory mailer.
func NewMemoryMailer() *MemoryMailer {
	return &MemoryMailer{}
}

// Send implements Mailer.
func (m *MemoryMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.messages = append(m.messages, msg)
	return nil
}

// Sent returns a copy of every recorded message.
func (m *MemoryMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Last returns the most recent message sent to addr.
func (m *MemoryMailer) Last(addr string) (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.messages) - 1; i >= 0; i-- {
		if strings.EqualFold(m.messages[i].To, addr) {
			return m.messages[i], true
		}
	}
	return Message{}, false
}
