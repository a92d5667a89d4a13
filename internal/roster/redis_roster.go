package roster

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brianmcglynncode/FlyCabs/internal/models"
)

// Redis keeps the roster in a single hash (field = driver id, value =
// JSON record) so the visible set survives API restarts.
type Redis struct {
	client *redis.Client
	key    string
	ctx    context.Context
}

func NewRedis(addr, password, key string) *Redis {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &Redis{client: c, key: key, ctx: context.Background()}
}

func (r *Redis) UpsertStatus(d models.Driver) error {
	if err := validate(d); err != nil {
		return err
	}
	if !d.Active {
		return r.client.HDel(r.ctx, r.key, d.ID).Err()
	}
	d.Updated = time.Now()
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return r.client.HSet(r.ctx, r.key, d.ID, string(b)).Err()
}

func (r *Redis) ListActive() []models.Driver {
	vals, err := r.client.HGetAll(r.ctx, r.key).Result()
	if err != nil {
		return nil
	}
	out := make([]models.Driver, 0, len(vals))
	for _, v := range vals {
		var d models.Driver
		if err := json.Unmarshal([]byte(v), &d); err != nil {
			continue
		}
		if d.Active {
			out = append(out, d)
		}
	}
	return out
}
