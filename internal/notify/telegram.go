package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/service"
)

const telegramQueueSize = 64

var errTelegramQueueFull = errors.New("telegram: queue full, message dropped")

type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier messages the admin chat about sales, payments and
// cancellations. Hold churn is not forwarded. Messages are delivered by a
// background worker so a slow Bot API never holds up the caller.
type TelegramNotifier struct {
	bot    botSender
	chatID int64
	log    zerolog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan tgbotapi.MessageConfig
	done   chan struct{}
}

func NewTelegramNotifier(token string, chatID int64, log zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return newTelegramNotifier(bot, chatID, telegramQueueSize, log), nil
}

func newTelegramNotifier(bot botSender, chatID int64, size int, log zerolog.Logger) *TelegramNotifier {
	n := &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		log:    log,
		queue:  make(chan tgbotapi.MessageConfig, size),
		done:   make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *TelegramNotifier) run() {
	defer close(n.done)
	for msg := range n.queue {
		if _, err := n.bot.Send(msg); err != nil {
			n.log.Warn().Err(err).Int64("chat", n.chatID).Msg("telegram send failed")
		}
	}
}

// Publish queues the admin message and returns without waiting for delivery.
// When the queue is full the message is dropped.
func (n *TelegramNotifier) Publish(_ context.Context, ev service.Event) error {
	text, ok := adminMessage(ev)
	if !ok {
		return nil
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return errors.New("telegram: notifier closed")
	}
	select {
	case n.queue <- tgbotapi.NewMessage(n.chatID, text):
		return nil
	default:
		return errTelegramQueueFull
	}
}

// Close stops accepting messages and waits for queued ones to be sent.
func (n *TelegramNotifier) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()
	<-n.done
}

func adminMessage(ev service.Event) (string, bool) {
	var b strings.Builder
	switch ev.Type {
	case service.EventSaleCreated:
		fmt.Fprintf(&b, "🎟 Nueva venta %s: %d boleta(s), abonado $%s", short(ev.SaleID), len(ev.TicketIDs), ev.Amount.StringFixed(2))
		if ev.ReservationID != "" {
			fmt.Fprintf(&b, " (desde reserva %s)", short(ev.ReservationID))
		}
	case service.EventPaymentRegistered, service.EventPaymentConfirmed:
		fmt.Fprintf(&b, "💵 Abono de $%s en venta %s", ev.Amount.StringFixed(2), short(ev.SaleID))
	case service.EventPaymentSubmitted:
		fmt.Fprintf(&b, "🔎 Pago pendiente de revisión: $%s en venta %s (abono %s)", ev.Amount.StringFixed(2), short(ev.SaleID), short(ev.AbonoID))
	case service.EventSaleCancelled:
		fmt.Fprintf(&b, "❌ Venta %s anulada, %d boleta(s) liberada(s)", short(ev.SaleID), len(ev.TicketIDs))
	case service.EventReservationCreated:
		fmt.Fprintf(&b, "📌 Reserva %s: %d boleta(s)", short(ev.ReservationID), len(ev.TicketIDs))
	default:
		return "", false
	}
	if ev.Motive != "" {
		fmt.Fprintf(&b, "\nMotivo: %s", ev.Motive)
	}
	return b.String(), true
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
