package gormstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/phenrril/dailybrew/internal/domain"
)

// CartSnapshot es la única tabla que posee esta aplicación: una fila por
// clave de carrito con el JSON serializado completo.
type CartSnapshot struct {
	Key       string `gorm:"primaryKey;size:64"`
	Payload   []byte `gorm:"type:bytea"`
	UpdatedAt time.Time
}

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&CartSnapshot{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	var snap CartSnapshot
	if err := s.db.WithContext(ctx).First(&snap, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return snap.Payload, nil
}

func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	return s.db.WithContext(ctx).Save(&CartSnapshot{Key: key, Payload: data}).Error
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&CartSnapshot{}, "key = ?", key).Error
}
