package hub

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"eventflow/internal/auth"
	"eventflow/internal/event"
	"eventflow/internal/metrics"
	"eventflow/internal/presence"
	"eventflow/internal/repo"
	"eventflow/internal/service"
)

const (
	shardCount = 64 // tune: 16/64/128 depending on load
)

type inboundMessage struct {
	event  event.WsEvent
	client *Client
}

type roomBucket struct {
	sync.RWMutex
	rooms map[string]map[string]*Client
}

// Hub owns the room-membership index (room id -> connected clients) and runs
// the chat session protocol. Rooms are keyed by conversation id, plus one
// personal notification room per user. Inbound events are sharded onto
// workers by room so every room sees a single consistent delivery order.
type Hub struct {
	shards     [shardCount]*roomBucket
	register   chan *Client
	unregister chan *Client
	inbound    []chan inboundMessage
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	stopOnce   sync.Once

	conversations service.ConversationService
	messages      repo.MessageRepository
	presence      *presence.Tracker
	verifier      auth.TokenVerifier
	logger        *zap.Logger

	historyPageSize int64
	upgrader        websocket.Upgrader
	now             func() time.Time
}

// Options carries hub tunables from configuration.
type Options struct {
	HistoryPageSize int64
	AllowedOrigins  []string
}

func NewHub(
	conversations service.ConversationService,
	messages repo.MessageRepository,
	tracker *presence.Tracker,
	verifier auth.TokenVerifier,
	logger *zap.Logger,
	opts Options,
) *Hub {
	if opts.HistoryPageSize < 1 {
		opts.HistoryPageSize = repo.DefaultHistoryPageSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		register:        make(chan *Client, 1024),
		unregister:      make(chan *Client, 1024),
		inbound:         make([]chan inboundMessage, workerPoolSize),
		ctx:             ctx,
		cancel:          cancel,
		conversations:   conversations,
		messages:        messages,
		presence:        tracker,
		verifier:        verifier,
		logger:          logger,
		historyPageSize: opts.HistoryPageSize,
		now:             time.Now,
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}

	for i := 0; i < shardCount; i++ {
		h.shards[i] = &roomBucket{
			rooms: make(map[string]map[string]*Client),
		}
	}

	// run manager loop
	go h.run()

	// Each worker owns one inbound queue; events for the same room always
	// land on the same worker, which keeps per-room delivery order
	// identical for every recipient.
	for i := 0; i < workerPoolSize; i++ {
		h.inbound[i] = make(chan inboundMessage, 256)
		h.wg.Add(1)
		go func(queue <-chan inboundMessage) {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in := <-queue:
					h.handleEvent(in.event, in.client)
				}
			}
		}(h.inbound[i])
	}

	return h
}

// UserRoom is the personal notification room id for a user.
func UserRoom(userID string) string {
	return "user:" + userID
}

// dispatch routes an inbound event to the worker owning its room. Reports
// false when the queue stayed full past the timeout.
func (h *Hub) dispatch(in inboundMessage) bool {
	var key struct {
		ConversationID string `json:"conversationId"`
		UserID         string `json:"userId"`
	}
	_ = json.Unmarshal(in.event.Payload, &key)

	routing := key.ConversationID
	if routing == "" {
		routing = key.UserID
	}
	if routing == "" {
		routing = in.client.userID
	}

	// Re-check before the send: once the hub is stopped nothing drains the
	// queues, and a buffered send must not win the race against shutdown.
	select {
	case <-h.ctx.Done():
		return false
	default:
	}

	queue := h.inbound[getShard(routing)%uint32(workerPoolSize)]
	select {
	case queue <- in:
		return true
	case <-time.After(inboundSendTimeout):
		return false
	case <-h.ctx.Done():
		return false
	}
}

func getShard(roomID string) uint32 {
	if roomID == "" {
		return 0
	}

	sum := sha1.Sum([]byte(roomID))
	return binary.BigEndian.Uint32(sum[:4]) % shardCount
}

func (h *Hub) joinRoom(roomID string, c *Client) {
	b := h.shards[getShard(roomID)]
	b.Lock()
	room, ok := b.rooms[roomID]
	if !ok {
		room = make(map[string]*Client)
		b.rooms[roomID] = room
	}
	room[c.ID] = c
	b.Unlock()

	c.trackJoin(roomID)
}

func (h *Hub) leaveRoom(roomID string, c *Client) {
	b := h.shards[getShard(roomID)]
	b.Lock()
	if room, ok := b.rooms[roomID]; ok {
		delete(room, c.ID)
		if len(room) == 0 {
			delete(b.rooms, roomID)
		}
	}
	b.Unlock()

	c.trackLeave(roomID)
}

func (h *Hub) leaveAll(c *Client) {
	for _, roomID := range c.roomIDs() {
		h.leaveRoom(roomID, c)
	}
}

// roomClients snapshots the clients currently joined to a room.
func (h *Hub) roomClients(roomID string) []*Client {
	b := h.shards[getShard(roomID)]
	b.RLock()
	defer b.RUnlock()

	room, ok := b.rooms[roomID]
	if !ok || len(room) == 0 {
		return nil
	}
	clients := make([]*Client, 0, len(room))
	for _, c := range room {
		clients = append(clients, c)
	}
	return clients
}

func (h *Hub) deliver(clients []*Client, ev event.WsEvent) {
	for _, c := range clients {
		if c.SafeSend(ev, sendTimeout) {
			continue
		}
		log.Printf("egress full for client %s", c.ID)
		if kickOnFull {
			select {
			case h.unregister <- c:
			case <-time.After(unregisterTimeout):
			}
		}
	}
}

func (h *Hub) addClient(c *Client) {
	// every connection sits in its user's personal room from the start
	h.joinRoom(UserRoom(c.userID), c)
	h.presence.MarkOnline(c.userID)
	metrics.ConnectionsActive.Inc()

	h.logger.Info("client registered",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.userID),
	)
}

func (h *Hub) removeClient(c *Client) {
	// Both the kick-on-full path and the read loop's teardown request
	// unregistration; the gauge and the offline broadcast must fire once.
	c.unregOnce.Do(func() {
		// capture rooms before membership is torn down; the offline presence
		// broadcast goes to the rooms the user was in
		rooms := c.roomIDs()
		h.leaveAll(c)
		c.Close()

		h.presence.MarkOffline(c.userID)
		metrics.ConnectionsActive.Dec()
		h.broadcastPresence(c, rooms, false)

		h.logger.Info("client removed",
			zap.String("client_id", c.ID),
			zap.String("user_id", c.userID),
		)
	})
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.cancel()

		for _, shard := range h.shards {
			shard.RLock()
			for _, room := range shard.rooms {
				for _, client := range room {
					client.Close()
				}
			}
			shard.RUnlock()
		}

		// The queues are never closed; workers exit on the cancelled
		// context and a racing dispatch can only buffer or time out.
		h.wg.Wait()
	})
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.Header.Get("Origin")]
		return ok
	}
}

// ServeWS authenticates the request, upgrades the transport and registers
// the connection. A failed verification rejects the attempt before any
// session state exists; the client must reconnect with valid credentials.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}

	identity, err := h.verifier.Verify(token)
	if err != nil {
		http.Error(w, "invalid or missing token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	c := newClient(uuid.NewString(), identity.UserID, identity.Name, conn, h)

	select {
	case h.register <- c:
		go c.ReadMessages()
		go c.WriteMessages()
		go h.bootstrap(c)
	case <-time.After(registerTimeout):
		h.logger.Warn("failed to register client: timeout",
			zap.String("user_id", identity.UserID),
		)
		c.cancel()
		conn.Close()
	}
}

// bootstrap rejoins the connection to all conversation rooms the user
// belongs to, announces presence, and replays pending invites.
func (h *Hub) bootstrap(c *Client) {
	ctx, cancel := context.WithTimeout(h.ctx, 10*time.Second)
	defer cancel()

	conversations, err := h.conversations.ListForUser(ctx, c.userID)
	if err != nil {
		h.logger.Warn("failed to list conversations on connect",
			zap.String("user_id", c.userID),
			zap.Error(err),
		)
	}
	for _, conversation := range conversations {
		h.joinRoom(conversation.ID, c)
	}
	h.broadcastPresence(c, c.roomIDs(), true)

	invites, err := h.conversations.ListInvitesFor(ctx, c.userID)
	if err != nil {
		h.logger.Warn("failed to list invites on connect",
			zap.String("user_id", c.userID),
			zap.Error(err),
		)
		return
	}
	for _, invite := range invites {
		ev, err := event.Outbound(event.EventConversationInvite, event.ConversationEvent{Conversation: invite})
		if err != nil {
			continue
		}
		c.Send(ev)
	}
}
