package realtime

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// Event is the compact payload pushed over the bridge. It is advisory only:
// there is no replay or delivery guarantee, a disconnected listener simply
// misses events.
type Event struct {
	Type    string    `json:"type"`
	OrderID string    `json:"orderId,omitempty"`
	Status  string    `json:"status,omitempty"`
	Title   string    `json:"title,omitempty"`
	Body    string    `json:"body,omitempty"`
	At      time.Time `json:"at"`
}

const (
	EventOrderReady    = "order_ready"
	EventOrderStatus   = "order_status"
	EventNewOrder      = "new_order"
	EventNotification  = "notification"
	channelDriversFeed = "orders.ready"
	channelSellerFeed  = "orders.seller."
	channelUserFeed    = "notify."
)

// DriversChannel is the shared feed drivers listen on for new ready orders.
func DriversChannel() string {
	return channelDriversFeed
}

// SellerChannel is the per-seller feed for incoming orders and transitions.
func SellerChannel(sellerID string) string {
	return channelSellerFeed + sellerID
}

// UserChannel is the per-user feed for notification toasts.
func UserChannel(userID string) string {
	return channelUserFeed + userID
}

// Bridge publishes order change events over Redis pub/sub.
type Bridge struct {
	rdb *redis.Client
}

func NewBridge(rdb *redis.Client) *Bridge {
	return &Bridge{rdb: rdb}
}

func (b *Bridge) publish(ctx context.Context, channel string, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Println("[BRIDGE] [ERROR] marshal event failed:", err)
		return
	}
	// Best effort: a failed publish never fails the triggering operation.
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		log.Println("[BRIDGE] [ERROR] publish failed on", channel, ":", err)
	}
}

// OrderReady announces a ready-for-pickup order on the shared driver feed.
func (b *Bridge) OrderReady(ctx context.Context, orderID string) {
	b.publish(ctx, DriversChannel(), Event{Type: EventOrderReady, OrderID: orderID, Status: "ready"})
}

// SellerOrder notifies a seller about a new or transitioned order.
func (b *Bridge) SellerOrder(ctx context.Context, sellerID, orderID, eventType, status string) {
	b.publish(ctx, SellerChannel(sellerID), Event{Type: eventType, OrderID: orderID, Status: status})
}

// Notify pushes a toast-style event to a single user.
func (b *Bridge) Notify(ctx context.Context, userID string, ev Event) {
	ev.Type = EventNotification
	b.publish(ctx, UserChannel(userID), ev)
}

// Subscribe opens a pub/sub subscription on the given channels. The caller
// owns the returned subscription and must Close it on teardown.
func (b *Bridge) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return b.rdb.Subscribe(ctx, channels...)
}
