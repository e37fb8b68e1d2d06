package nftmarket

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// hub fans one stream of values out to any number of subscribers. Slow
// subscribers drop messages rather than block the broadcaster.
type hub[T any] struct {
	mu   sync.RWMutex
	subs map[chan T]struct{}
}

func newHub[T any]() *hub[T] {
	return &hub[T]{subs: make(map[chan T]struct{})}
}

func (h *hub[T]) Subscribe(buffer int) chan T {
	ch := make(chan T, buffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub[T]) Unsubscribe(ch chan T) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *hub[T]) Broadcast(value T) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- value:
		default:
		}
	}
}

// SubscribeSettlements returns a channel of settlement receipts and a
// cancel function. Every successful Settle and BatchSettle publishes here.
func (e *Exchange) SubscribeSettlements(buffer int) (<-chan SettlementReceipt, func()) {
	ch := e.receipts.Subscribe(buffer)
	var once sync.Once
	return ch, func() { once.Do(func() { e.receipts.Unsubscribe(ch) }) }
}

// StreamServer exposes the settlement event stream over websocket for
// off-chain indexers and auditors.
type StreamServer struct {
	ex       *Exchange
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

type streamMessage struct {
	Type string            `json:"type"`
	Data SettlementReceipt `json:"data"`
}

// NewStreamServer builds a stream server over an exchange.
func NewStreamServer(ex *Exchange, log zerolog.Logger) *StreamServer {
	return &StreamServer{
		ex:       ex,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		log:      log,
	}
}

// Routes returns the HTTP handler serving the stream endpoints.
func (s *StreamServer) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/settlements", s.handleSettlements)
	return mux
}

func (s *StreamServer) handleSettlements(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch, cancel := s.ex.SubscribeSettlements(32)
	defer cancel()

	for rcpt := range ch {
		if err := conn.WriteJSON(streamMessage{Type: "settlement", Data: rcpt}); err != nil {
			s.log.Debug().Err(err).Msg("settlement subscriber dropped")
			return
		}
	}
}
