package network

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/automoto/openworld-mp/shared/messages"
	"github.com/coder/websocket"
	"github.com/leap-fish/necs/esync"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
)

type ClientState int

const (
	StateDisconnected ClientState = iota
	StateConnecting
	StateConnected
	StateJoined
	StateError
)

func (s ClientState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	case StateError:
		return "error"
	}
	return "unknown"
}

const updateQueueSize = 1024

// Client manages a WebSocket connection to the server.
// All shared fields are protected by mu (router callbacks run on necs goroutines).
type Client struct {
	mu sync.RWMutex

	state        ClientState
	lastError    error
	clientID     esync.NetworkId
	serverName   string
	zone         string
	tickRate     int
	syncInterval float64
	conn         *websocket.Conn
	overflow     int

	snapshotCh chan esync.WorldSnapshot // size-1 buffered; latest wins
	updateCh   chan messages.TransformUpdate
	timeCh     chan messages.TimeSync
	despawnCh  chan messages.DespawnEvent
}

func NewClient() *Client {
	return &Client{
		state:      StateDisconnected,
		snapshotCh: make(chan esync.WorldSnapshot, 1),
		updateCh:   make(chan messages.TransformUpdate, updateQueueSize),
		timeCh:     make(chan messages.TimeSync, 8),
		despawnCh:  make(chan messages.DespawnEvent, 64),
	}
}

// Connect dials the server in a background goroutine and initiates the join handshake.
func (c *Client) Connect(address, version, name string) {
	c.mu.Lock()
	c.state = StateConnecting
	c.lastError = nil
	c.mu.Unlock()

	router.OnConnect(func(_ *router.NetworkClient) {
		log.Println("[client] connected to server")
		c.mu.Lock()
		c.state = StateConnected
		c.mu.Unlock()

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		if conn != nil {
			if err := c.SendMessage(messages.JoinRequest{Version: version, Name: name}); err != nil {
				c.setError(fmt.Errorf("failed to send join request: %w", err))
			}
		}
	})

	router.On(func(_ *router.NetworkClient, msg messages.JoinAccepted) {
		log.Printf("[client] join accepted: id=%d server=%s zone=%s tickRate=%d syncInterval=%.3fs",
			msg.ClientID, msg.ServerName, msg.Zone, msg.TickRate, msg.SyncInterval)
		c.mu.Lock()
		c.clientID = msg.ClientID
		c.serverName = msg.ServerName
		c.zone = msg.Zone
		c.tickRate = msg.TickRate
		c.syncInterval = msg.SyncInterval
		c.state = StateJoined
		c.mu.Unlock()
	})

	router.On(func(_ *router.NetworkClient, msg messages.JoinRejected) {
		log.Printf("[client] join rejected: %s", msg.Reason)
		c.setError(fmt.Errorf("join rejected: %s", msg.Reason))
	})

	router.On(func(_ *router.NetworkClient, snapshot esync.WorldSnapshot) {
		select { // drain stale, push latest
		case <-c.snapshotCh:
		default:
		}
		c.snapshotCh <- snapshot
	})

	router.On(func(_ *router.NetworkClient, msg messages.TransformUpdate) {
		c.pushUpdate(msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.TimeSync) {
		select {
		case c.timeCh <- msg:
		default:
		}
	})

	router.On(func(_ *router.NetworkClient, evt messages.DespawnEvent) {
		select {
		case c.despawnCh <- evt:
		default:
			log.Printf("[client] despawn queue full, dropping %d", evt.NetworkID)
		}
	})

	router.OnDisconnect(func(_ *router.NetworkClient, err error) {
		log.Printf("[client] disconnected: %v", err)
		c.mu.Lock()
		if c.state != StateError {
			c.state = StateDisconnected
		}
		c.conn = nil
		c.mu.Unlock()
	})

	router.OnError(func(_ *router.NetworkClient, err error) {
		log.Printf("[client] error: %v", err)
	})

	go func() {
		transport := transports.NewWsClientTransport("ws://" + address)
		err := transport.Start(func(conn *websocket.Conn) {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
		})
		if err != nil {
			c.setError(fmt.Errorf("connection failed: %w", err))
		}
	}()
}

// pushUpdate queues an update for the next frame. A full queue drops the
// update; losing a pose is tolerated by the synchronizers.
func (c *Client) pushUpdate(msg messages.TransformUpdate) {
	select {
	case c.updateCh <- msg:
	default:
		c.mu.Lock()
		c.overflow++
		c.mu.Unlock()
	}
}

func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.state = StateDisconnected
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.CloseNow()
	}

	router.ResetRouter()
}

func (c *Client) State() ClientState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

func (c *Client) ClientID() esync.NetworkId {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientID
}

func (c *Client) Zone() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.zone
}

func (c *Client) TickRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tickRate
}

// SyncInterval returns the server's send interval, or 0 before joining.
func (c *Client) SyncInterval() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.syncInterval
}

// Overflow counts updates dropped because the queue was full.
func (c *Client) Overflow() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.overflow
}

// LatestSnapshot returns the most recent WorldSnapshot, or nil. Non-blocking.
func (c *Client) LatestSnapshot() *esync.WorldSnapshot {
	select {
	case snap := <-c.snapshotCh:
		return &snap
	default:
		return nil
	}
}

// DrainTransformUpdates returns all pending updates in arrival order, non-blocking.
func (c *Client) DrainTransformUpdates() []messages.TransformUpdate {
	return drainChan(c.updateCh)
}

// DrainTimeSyncs returns all pending time sync answers, non-blocking.
func (c *Client) DrainTimeSyncs() []messages.TimeSync {
	return drainChan(c.timeCh)
}

// DrainDespawns returns all pending despawn events, non-blocking.
func (c *Client) DrainDespawns() []messages.DespawnEvent {
	return drainChan(c.despawnCh)
}

func (c *Client) SendMessage(msg any) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}

	payload, err := router.Serialize(msg)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}

	return conn.Write(context.Background(), websocket.MessageBinary, payload)
}

func (c *Client) setError(err error) {
	c.mu.Lock()
	c.state = StateError
	c.lastError = err
	c.mu.Unlock()
}

func drainChan[T any](ch chan T) []T {
	var out []T
	for {
		select {
		case v := <-ch:
			out = append(out, v)
		default:
			return out
		}
	}
}
