package catalog

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Sweeper deactivates daily products whose offer date has passed. Listing
// queries already exclude expired dailies; the sweep keeps the stored flag
// honest so seller dashboards and admin views agree.
type Sweeper struct {
	db       *mongo.Database
	interval time.Duration
}

func NewSweeper(db *mongo.Database, interval time.Duration) *Sweeper {
	return &Sweeper{db: db, interval: interval}
}

// expiredDailyFilter selects active daily products dated before the given day.
func expiredDailyFilter(startOfDay time.Time) bson.M {
	return bson.M{
		"isDaily":       true,
		"isActive":      true,
		"isDeleted":     bson.M{"$ne": true},
		"availableDate": bson.M{"$lt": startOfDay},
	}
}

// StartOfDay truncates to local midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Println("[CATALOG] [INFO] daily expiry sweeper started, interval:", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("[CATALOG] [INFO] daily expiry sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := s.db.Collection("products").UpdateMany(
		sweepCtx,
		expiredDailyFilter(StartOfDay(time.Now())),
		bson.M{"$set": bson.M{"isActive": false}},
	)
	if err != nil {
		log.Println("[CATALOG] [ERROR] expiry sweep failed:", err)
		return
	}
	if res.ModifiedCount > 0 {
		log.Printf("[CATALOG] [INFO] deactivated %d expired daily products", res.ModifiedCount)
	}
}
