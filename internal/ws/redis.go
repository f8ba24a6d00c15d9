package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	rediskeys "github.com/virtuallego/backend/internal/redis"
	"github.com/virtuallego/backend/internal/table"
)

// RunEventSubscriber relays table_events to the rooms until ctx is done.
func (h *Hub) RunEventSubscriber(ctx context.Context, rdb *redis.Client) error {
	if rdb == nil {
		h.log.Info("redis not configured; table events are delivered locally")
		return nil
	}

	pubsub := rdb.Subscribe(ctx, rediskeys.TableEventsChannel)
	defer pubsub.Close()
	ch := pubsub.Channel()

	h.log.Infow("event subscriber started", "channel", rediskeys.TableEventsChannel)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			h.relay([]byte(msg.Payload))
		}
	}
}

func (h *Hub) relay(payload []byte) {
	var ev table.TableEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		h.log.Warnw("invalid event payload", "error", err)
		return
	}
	if ev.TableToken == "" {
		h.log.Warnw("event without table token", "type", ev.Type)
		return
	}
	h.log.Debugw("event received", "type", ev.Type, "table", ev.TableToken, "room_size", h.RoomSize(ev.TableToken))
	table.Deliver(h, ev)
}
