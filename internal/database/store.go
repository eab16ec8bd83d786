package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the gorm-backed persistence for goals, links, check-ins and
// teammates. A Store returned by InTx runs every call inside that transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// InTx runs fn in one transaction; both its writes commit or neither does.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func notFound(err error, what string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, models.ErrNotFound)
	}
	return err
}

func (s *Store) CreateTeammate(ctx context.Context, t *models.Teammate) error {
	return s.conn(ctx).Create(t).Error
}

func (s *Store) GetTeammate(ctx context.Context, id uuid.UUID) (*models.Teammate, error) {
	var t models.Teammate
	if err := s.conn(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "teammate", id)
	}
	return &t, nil
}

func (s *Store) TeammateByEmail(ctx context.Context, email string) (*models.Teammate, error) {
	var t models.Teammate
	if err := s.conn(ctx).Where("email = ?", email).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("teammate %q: %w", email, models.ErrNotFound)
		}
		return nil, err
	}
	return &t, nil
}
