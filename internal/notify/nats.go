package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/santigrgrisales/rifas-project-2-sub000/internal/service"
)

const subjectPrefix = "rifas"

type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// NATSPublisher emits every event as JSON on rifas.<raffle>.<event type>.
type NATSPublisher struct {
	conn msgPublisher
	nc   *nats.Conn
}

// DialNATS connects with unlimited reconnects.
func DialNATS(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("rifas-engine"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.PingInterval(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: nc, nc: nc}, nil
}

func newNATSPublisher(conn msgPublisher) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// Subject returns the subject an event is published on.
func Subject(ev service.Event) string {
	raffle := ev.RaffleID
	if raffle == "" {
		raffle = "_"
	}
	return fmt.Sprintf("%s.%s.%s", subjectPrefix, raffle, ev.Type)
}

func (p *NATSPublisher) Publish(_ context.Context, ev service.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := nats.NewMsg(Subject(ev))
	msg.Data = data
	msg.Header.Set("Content-Type", "application/json")
	msg.Header.Set("Rifas-Event", string(ev.Type))
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}
	_ = p.nc.Drain()
}
