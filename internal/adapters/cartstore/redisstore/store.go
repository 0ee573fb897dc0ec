package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/phenrril/dailybrew/internal/domain"
)

// mismo horizonte que la cookie de sesión del carrito
const snapshotTTL = 7 * 24 * time.Hour

// Store persiste snapshots de carrito en Redis, para despliegues con más de
// una instancia detrás del balanceador.
type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, "cart:"+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	return s.rdb.Set(ctx, "cart:"+key, data, snapshotTTL).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, "cart:"+key).Err()
}
