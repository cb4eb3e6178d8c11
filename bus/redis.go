package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"
)

const defaultChannel = "chat:events"

// RedisBus fans events out over a single redis pub/sub channel. Each
// process publishes through a pooled connection and consumes on one
// dedicated subscriber connection; redis delivers published messages back
// to the publishing process too, which is what gives local and peer
// delivery the single shared path the router relies on.
//
// Pub/sub carries no backlog, so anything published while the subscriber
// connection is being re-established is lost. That window is the accepted
// at-most-once delivery gap.
type RedisBus struct {
	pool    *redis.Pool
	channel string
	quit    chan struct{}
}

// NewRedisBus connects a bus to the redis instance at redisURL
func NewRedisBus(redisURL string) (*RedisBus, error) {
	pool := &redis.Pool{
		MaxIdle:     3,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.DialURL(redisURL)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}

	// fail fast on a bad URL instead of at first publish
	c := pool.Get()
	defer c.Close()
	if _, err := c.Do("PING"); err != nil {
		pool.Close()
		return nil, err
	}

	return &RedisBus{
		pool:    pool,
		channel: defaultChannel,
		quit:    make(chan struct{}),
	}, nil
}

// Publish sends the event to every subscribed process, including this one
func (b *RedisBus) Publish(roomID, event string, payload []byte) error {
	env, err := json.Marshal(envelope{RoomID: roomID, Event: event, Payload: payload})
	if err != nil {
		return err
	}
	c := b.pool.Get()
	defer c.Close()
	_, err = c.Do("PUBLISH", b.channel, env)
	return err
}

// Subscribe starts the receive loop; call once at process startup
func (b *RedisBus) Subscribe(h Handler) error {
	go b.receive(h)
	return nil
}

func (b *RedisBus) receive(h Handler) {
	for {
		select {
		case <-b.quit:
			return
		default:
		}

		c := b.pool.Get()
		psc := redis.PubSubConn{Conn: c}
		if err := psc.Subscribe(b.channel); err != nil {
			c.Close()
			zap.S().Errorw("failed to subscribe to redis channel",
				"channel", b.channel,
				"error", err,
			)
			time.Sleep(time.Second)
			continue
		}

		b.consume(psc, h)
		c.Close()
		// events published before the resubscribe lands are dropped
		time.Sleep(time.Second)
	}
}

func (b *RedisBus) consume(psc redis.PubSubConn, h Handler) {
	for {
		switch v := psc.Receive().(type) {
		case redis.Message:
			var env envelope
			if err := json.Unmarshal(v.Data, &env); err != nil {
				zap.S().Errorw("dropping malformed bus envelope", "error", err)
				continue
			}
			h(env.RoomID, env.Event, env.Payload)
		case redis.Subscription:
			// subscribe/unsubscribe ack, nothing to do
		case error:
			select {
			case <-b.quit:
			default:
				zap.S().Errorw("redis subscriber connection lost", "error", v)
			}
			return
		}
	}
}

// SetStatus records the advisory user:<id>:status presence key
func (b *RedisBus) SetStatus(ctx context.Context, userID, status string) error {
	c, err := b.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	_, err = c.Do("SET", fmt.Sprintf("user:%s:status", userID), status)
	return err
}

// Close stops the receive loop and releases the pool
func (b *RedisBus) Close() error {
	close(b.quit)
	return b.pool.Close()
}
