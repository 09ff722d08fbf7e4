package realtime

import (
	"encoding/json"
	"testing"
	"time"
)

func TestChannelNames(t *testing.T) {
	if got := DriversChannel(); got != "orders.ready" {
		t.Fatalf("DriversChannel() = %q", got)
	}
	if got := SellerChannel("abc123"); got != "orders.seller.abc123" {
		t.Fatalf("SellerChannel() = %q", got)
	}
	if got := UserChannel("u1"); got != "notify.u1" {
		t.Fatalf("UserChannel() = %q", got)
	}
}

func TestDriverPresenceKey(t *testing.T) {
	if got := driverPresenceKey("d42"); got != "presence.driver.d42" {
		t.Fatalf("driverPresenceKey() = %q", got)
	}
}

func TestEventJSONOmitsEmptyFields(t *testing.T) {
	ev := Event{Type: EventOrderReady, OrderID: "o1", Status: "ready", At: time.Unix(0, 0).UTC()}
	payload, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["type"] != EventOrderReady || decoded["orderId"] != "o1" {
		t.Fatalf("unexpected payload: %s", payload)
	}
	if _, ok := decoded["title"]; ok {
		t.Fatalf("empty title should be omitted: %s", payload)
	}
}
