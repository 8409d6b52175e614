package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
)

const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	maxMessageSize     = 64 * 1024 // 64KB
	maxSendChannelSize = 256
)

// Типы событий
const (
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
)

// Frame конверт любого сообщения живого канала
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Metrics счётчики хаба
type Metrics struct {
	Connections      atomic.Int64
	TotalConnections atomic.Int64
	MessagesReceived atomic.Int64
	MessagesSent     atomic.Int64
	Dropped          atomic.Int64
}

type Stats struct {
	Connections      int64 `json:"connections"`
	TotalConnections int64 `json:"totalConnections"`
	MessagesReceived int64 `json:"messagesReceived"`
	MessagesSent     int64 `json:"messagesSent"`
	Dropped          int64 `json:"dropped"`
}

// Hub реестр живых соединений. Broadcast доходит до всех клиентов,
// клиент с заполненным буфером событие пропускает.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	closed  bool
	metrics Metrics
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Register добавляет клиента в хаб. После Shutdown возвращает false.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	h.clients[c.ID] = c
	h.metrics.Connections.Inc()
	h.metrics.TotalConnections.Inc()
	return true
}

// Unregister удаляет и закрывает клиента, повторный вызов безопасен
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if stored, ok := h.clients[c.ID]; ok && stored == c {
		delete(h.clients, c.ID)
		h.metrics.Connections.Dec()
	}
	h.mu.Unlock()

	c.Close()
}

// Broadcast ставит data в очередь каждому клиенту и возвращает, сколько приняли
func (h *Hub) Broadcast(data []byte) int {
	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range snapshot {
		if c.SendRaw(data) {
			delivered++
		} else {
			h.metrics.Dropped.Inc()
		}
	}

	h.metrics.MessagesSent.Add(int64(delivered))
	return delivered
}

// BroadcastEvent оборачивает data во Frame без перекодирования: клиенты
// получают байты полезной нагрузки ровно в том виде, в каком они пришли
func (h *Hub) BroadcastEvent(event string, data json.RawMessage) (int, error) {
	name, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("marshal event name: %w", err)
	}
	if len(data) == 0 {
		data = json.RawMessage("null")
	}

	frame := make([]byte, 0, len(name)+len(data)+20)
	frame = append(frame, `{"event":`...)
	frame = append(frame, name...)
	frame = append(frame, `,"data":`...)
	frame = append(frame, data...)
	frame = append(frame, '}')

	return h.Broadcast(frame), nil
}

// CountReceived учитывает входящий фрейм
func (h *Hub) CountReceived() {
	h.metrics.MessagesReceived.Inc()
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Stats() Stats {
	return Stats{
		Connections:      h.metrics.Connections.Load(),
		TotalConnections: h.metrics.TotalConnections.Load(),
		MessagesReceived: h.metrics.MessagesReceived.Load(),
		MessagesSent:     h.metrics.MessagesSent.Load(),
		Dropped:          h.metrics.Dropped.Load(),
	}
}

// Shutdown закрывает все соединения и отклоняет новые регистрации
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.metrics.Connections.Store(0)
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}

// Client представляет WebSocket соединение
type Client struct {
	ID     string
	ctx    context.Context
	cancel context.CancelFunc
	conn   *websocket.Conn
	send   chan []byte

	mu       sync.RWMutex
	isClosed bool
}

func NewClient(ctx context.Context, conn *websocket.Conn) *Client {
	return newClient(ctx, conn, maxSendChannelSize)
}

func newClient(ctx context.Context, conn *websocket.Conn, bufSize int) *Client {
	ctx, cancel := context.WithCancel(ctx)

	return &Client{
		ID:     uuid.NewString(),
		ctx:    ctx,
		cancel: cancel,
		conn:   conn,
		send:   make(chan []byte, bufSize),
	}
}

// ReadPump читает фреймы, пока соединение живо. Фреймы, не являющиеся
// JSON конвертом, отбрасываются.
func (c *Client) ReadPump(handle func(*Client, Frame)) error {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseAbnormalClosure) {
				return err
			}
			return nil
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Event == "" {
			continue
		}

		handle(c, frame)
	}
}

// WritePump отправляет фреймы из очереди и ping, пока клиент не закрыт
func (c *Client) WritePump() error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return nil
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			// Одно событие на фрейм: склейка ломает JSON на клиенте
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return err
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// SendRaw ставит data в очередь без блокировки. Возвращает false, если
// клиент закрыт или буфер заполнен.
func (c *Client) SendRaw(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.isClosed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed {
		return
	}

	c.isClosed = true
	c.cancel()
	if c.conn != nil {
		go func(conn *websocket.Conn) {
			// даём WritePump отправить close-фрейм
			time.Sleep(100 * time.Millisecond)
			_ = conn.Close()
		}(c.conn)
	}
}

func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isClosed
}
