package catalog

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	at := time.Date(2026, 3, 14, 17, 45, 12, 999, loc)

	got := StartOfDay(at)
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExpiredDailyFilterShape(t *testing.T) {
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	filter := expiredDailyFilter(day)

	if filter["isDaily"] != true || filter["isActive"] != true {
		t.Fatal("expected isDaily and isActive true in filter")
	}
	lt, ok := filter["availableDate"].(bson.M)
	if !ok || !lt["$lt"].(time.Time).Equal(day) {
		t.Fatalf("expected availableDate $lt %v, got %v", day, filter["availableDate"])
	}
}
