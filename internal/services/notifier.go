package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Delivery channels.
const (
	ChannelEmail    = "email"
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
)

// Notifier delivers one message. It reports success or failure only.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, to, subject, body string) error

func (f NotifierFunc) Send(ctx context.Context, to, subject, body string) error {
	return f(ctx, to, subject, body)
}

// Dispatcher routes messages to the notifier registered for a channel.
type Dispatcher struct {
	mu       sync.RWMutex
	channels map[string]Notifier
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{channels: make(map[string]Notifier)}
}

// Register sets the notifier for channel, replacing any previous one.
func (d *Dispatcher) Register(channel string, n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels[channel] = n
}

// Supports reports whether channel has a notifier.
func (d *Dispatcher) Supports(channel string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.channels[channel]
	return ok
}

// Send delivers through channel. Transport errors are wrapped in ErrDeliveryFailed.
func (d *Dispatcher) Send(ctx context.Context, channel, to, subject, body string) error {
	d.mu.RLock()
	n, ok := d.channels[channel]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: unsupported channel %q", ErrInvalidInput, channel)
	}
	if err := n.Send(ctx, to, subject, body); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}

// LogNotifier writes messages to the log instead of delivering them. Used when
// no transport is configured for a channel.
type LogNotifier struct {
	channel string
	logger  *zap.Logger
}

// NewLogNotifier creates a log-only notifier for channel.
func NewLogNotifier(channel string, logger *zap.Logger) *LogNotifier {
	return &LogNotifier{channel: channel, logger: logger}
}

func (l *LogNotifier) Send(_ context.Context, to, subject, body string) error {
	l.logger.Info("message not delivered, no transport configured",
		zap.String("channel", l.channel),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", strings.TrimSpace(body)),
	)
	return nil
}
