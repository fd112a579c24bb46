package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kodi-rentals/service-rental/internal/application"
	"github.com/kodi-rentals/service-rental/pkg/domain"
)

// GormTransactor serializes writers per property with SELECT ... FOR UPDATE on the property row.
type GormTransactor struct {
	db *gorm.DB
}

// NewGormTransactor creates a new GormTransactor.
func NewGormTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{db: db}
}

// WithinPropertyLock runs fn in a READ COMMITTED transaction that first locks the property row.
// Soft-deleted listings are still lockable so their booking history can be managed.
func (t *GormTransactor) WithinPropertyLock(
	ctx context.Context,
	propertyID uuid.UUID,
	fn func(ctx context.Context, stores application.Stores) error,
) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked PropertyModel
		err := tx.Unscoped().
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", propertyID).
			First(&locked).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("property", propertyID.String())
			}
			return fmt.Errorf("failed to lock property: %w", err)
		}

		return fn(ctx, application.Stores{
			Bookings:   NewGormBookingRepository(tx),
			Properties: NewGormPropertyRepository(tx),
		})
	}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// DBPinger adapts a gorm connection to health.Pinger.
type DBPinger struct {
	db *gorm.DB
}

// NewDBPinger creates a new DBPinger.
func NewDBPinger(db *gorm.DB) DBPinger {
	return DBPinger{db: db}
}

// Ping checks the underlying connection pool.
func (p DBPinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
