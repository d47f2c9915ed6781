package httpapi

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ssneflow/scootflow/internal/observability"
	"github.com/ssneflow/scootflow/internal/telemetry"
)

const feedWriteTimeout = 5 * time.Second

// Feed pushes each accepted position report to connected websocket
// subscribers, so browsers tracking a scooter need not poll.
type Feed struct {
	metrics *observability.Metrics

	mu   sync.Mutex
	subs map[*websocket.Conn]struct{}
}

func NewFeed(metrics *observability.Metrics) *Feed {
	return &Feed{
		metrics: metrics,
		subs:    make(map[*websocket.Conn]struct{}),
	}
}

// Subscribe registers the connection, sends the current position as an
// initial snapshot, and holds a read loop open to notice the peer closing.
// Writes are serialized under the feed mutex; gorilla connections allow only
// one concurrent writer.
func (f *Feed) Subscribe(conn *websocket.Conn, initial telemetry.Report) {
	f.mu.Lock()
	f.subs[conn] = struct{}{}
	count := len(f.subs)
	err := write(conn, initial)
	f.mu.Unlock()
	f.metrics.FeedClients.Set(float64(count))

	if err != nil {
		f.drop(conn)
		return
	}

	go func() {
		defer f.drop(conn)
		for {
			// Subscribers never send payloads; reading only detects close.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends the report to every subscriber, dropping connections that
// can no longer be written to.
func (f *Feed) Broadcast(r telemetry.Report) {
	var dead []*websocket.Conn

	f.mu.Lock()
	for conn := range f.subs {
		if err := write(conn, r); err != nil {
			log.Printf("location feed write failed: %v", err)
			dead = append(dead, conn)
		}
	}
	f.mu.Unlock()

	for _, conn := range dead {
		f.drop(conn)
	}
}

func write(conn *websocket.Conn, r telemetry.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (f *Feed) drop(conn *websocket.Conn) {
	f.mu.Lock()
	_, present := f.subs[conn]
	delete(f.subs, conn)
	count := len(f.subs)
	f.mu.Unlock()

	if present {
		_ = conn.Close()
		f.metrics.FeedClients.Set(float64(count))
	}
}
