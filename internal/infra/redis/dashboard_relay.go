package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"english-mcq-service/internal/domain"
	"english-mcq-service/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Deliverer receives updates relayed from other instances.
type Deliverer interface {
	Deliver(update domain.DashboardUpdate)
}

// DashboardRelay routes points updates through Redis pub/sub so every
// instance can push them to its own websocket subscribers.
// Channels are named {prefix}{userID}.
type DashboardRelay struct {
	client *redis.Client
	prefix string
	log    *logger.Logger
}

func NewDashboardRelay(client *redis.Client, prefix string, log *logger.Logger) *DashboardRelay {
	if log == nil {
		log = logger.NewNop()
	}
	return &DashboardRelay{client: client, prefix: prefix, log: log}
}

func (r *DashboardRelay) Publish(ctx context.Context, update domain.DashboardUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}
	return r.client.Publish(ctx, r.channel(update.UserID), payload).Err()
}

// Start subscribes to every user channel and feeds decoded updates into sink
// until ctx is done or stop is called. It returns once the subscription is live.
func (r *DashboardRelay) Start(ctx context.Context, sink Deliverer) (stop func(), err error) {
	pubsub := r.client.PSubscribe(ctx, r.prefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s*: %w", r.prefix, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				r.deliver(msg, sink)
			}
		}
	}()

	var once sync.Once
	stop = func() {
		once.Do(func() {
			cancel()
			pubsub.Close()
			wg.Wait()
		})
	}
	return stop, nil
}

func (r *DashboardRelay) deliver(msg *redis.Message, sink Deliverer) {
	var update domain.DashboardUpdate
	if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
		r.log.Warn("dropping malformed dashboard update", "channel", msg.Channel, "error", err)
		return
	}
	if update.UserID == "" {
		update.UserID = strings.TrimPrefix(msg.Channel, r.prefix)
	}
	if update.Data.PointsHistory == nil {
		update.Data.PointsHistory = []domain.PointsEntry{}
	}
	update.Data.UserID = update.UserID
	sink.Deliver(update)
}

func (r *DashboardRelay) channel(userID string) string {
	return r.prefix + userID
}
