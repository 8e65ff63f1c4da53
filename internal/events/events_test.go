package events

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestEncodeOmitsEmptyFields(t *testing.T) {
	e := New(CartCheckout)
	e.ChannelID = "100"
	total := decimal.RequireFromString("22.00")
	e.Total = &total
	b, err := Encode(e)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m["type"] != "cart.checkout" || m["channel_id"] != "100" || m["id"] == "" {
		t.Fatalf("unexpected event %s", b)
	}
	if _, ok := m["buyer_id"]; ok {
		t.Fatalf("empty buyer should be omitted: %s", b)
	}
}

func TestRecorderKeepsOrder(t *testing.T) {
	r := &Recorder{}
	_ = r.Publish(context.Background(), New(TicketCreated))
	_ = r.Publish(context.Background(), New(TicketClosed))
	got := r.Events()
	if len(got) != 2 || got[0].Type != TicketCreated || got[1].Type != TicketClosed {
		t.Fatalf("events %#v", got)
	}
	if got[0].ID == got[1].ID {
		t.Fatalf("event ids must be unique")
	}
}

func TestKafkaPublisherNeedsTopic(t *testing.T) {
	if _, err := NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}}); err == nil {
		t.Fatalf("expected error without topic")
	}
}

// Hits a real broker when KAFKA_BROKERS is set.
func TestKafkaLivePublish(t *testing.T) {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("KAFKA_BROKERS not set; skipping live kafka test")
	}
	p, err := NewKafkaPublisher(KafkaConfig{Brokers: strings.Split(brokers, ","), Topic: "storefront-events-test"})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	defer p.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	e := New(TicketCreated)
	e.ChannelID = "100"
	if err := p.Publish(ctx, e); err != nil {
		t.Skipf("skip due to live kafka error: %v", err)
	}
}

type gatedPublisher struct {
	Recorder
	release chan struct{}
}

func (g *gatedPublisher) Publish(ctx context.Context, e Event) error {
	select {
	case <-g.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return g.Recorder.Publish(ctx, e)
}

func TestQueuePublishReturnsBeforeDelivery(t *testing.T) {
	g := &gatedPublisher{release: make(chan struct{})}
	q := NewQueue(g, QueueConfig{})
	for _, typ := range []Type{TicketCreated, TicketPaid, TicketClosed} {
		if err := q.Publish(context.Background(), New(typ)); err != nil {
			t.Fatalf("publish %s: %v", typ, err)
		}
	}
	if n := len(g.Events()); n != 0 {
		t.Fatalf("delivered %d events before release", n)
	}
	close(g.release)
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	got := g.Events()
	if len(got) != 3 || got[0].Type != TicketCreated || got[1].Type != TicketPaid || got[2].Type != TicketClosed {
		t.Fatalf("events %#v", got)
	}
	if err := q.Publish(context.Background(), New(TicketPaid)); err == nil {
		t.Fatalf("publish after close should fail")
	}
}

func TestQueueReportsTimeoutsAndDrops(t *testing.T) {
	g := &gatedPublisher{release: make(chan struct{})}
	failed := make(chan error, 8)
	q := NewQueue(g, QueueConfig{
		Size:    1,
		Timeout: 20 * time.Millisecond,
		OnError: func(_ Event, err error) { failed <- err },
	})
	// the worker may already hold the first event, so fill until a drop
	var dropped bool
	for i := 0; i < 4 && !dropped; i++ {
		dropped = q.Publish(context.Background(), New(CartCheckout)) == ErrQueueFull
	}
	if !dropped {
		t.Fatalf("expected a full queue to drop an event")
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	close(failed)
	var full, expired int
	for err := range failed {
		switch err {
		case ErrQueueFull:
			full++
		case context.DeadlineExceeded:
			expired++
		}
	}
	if full != 1 || expired == 0 {
		t.Fatalf("full=%d expired=%d", full, expired)
	}
}
