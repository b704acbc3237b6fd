package ivr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ivr-flow/internal/models"

	"gorm.io/gorm"
)

// CallerUpdate is what a finished call contributes to its caller's profile.
type CallerUpdate struct {
	PhoneNumber string
	Duration    int // seconds, never negative
	At          time.Time
	LastMenu    string
}

// Finalizer persists the durable outcome of a call. Both writes are
// attempted independently by the engine.
type Finalizer interface {
	SaveCallRecord(ctx context.Context, rec *models.CallRecord) error
	UpsertCallerProfile(ctx context.Context, u CallerUpdate) error
}

// GormFinalizer writes call_logs and caller_history rows.
type GormFinalizer struct {
	DB *gorm.DB
}

func NewGormFinalizer(db *gorm.DB) *GormFinalizer {
	return &GormFinalizer{DB: db}
}

func (f *GormFinalizer) SaveCallRecord(ctx context.Context, rec *models.CallRecord) error {
	if err := f.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("save call record %s: %w", rec.CallUUID, err)
	}
	return nil
}

// UpsertCallerProfile creates the profile on a number's first call and
// increments the running totals afterwards.
func (f *GormFinalizer) UpsertCallerProfile(ctx context.Context, u CallerUpdate) error {
	if u.Duration < 0 {
		u.Duration = 0
	}
	err := f.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.CallerProfile
		err := tx.Where("phone_number = ?", u.PhoneNumber).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			p = models.CallerProfile{
				PhoneNumber:       u.PhoneNumber,
				FirstCallAt:       u.At,
				LastCallAt:        u.At,
				TotalCalls:        1,
				TotalDuration:     u.Duration,
				LastMenuCompleted: u.LastMenu,
			}
			return tx.Create(&p).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&p).Updates(map[string]interface{}{
			"total_calls":         gorm.Expr("total_calls + ?", 1),
			"total_duration":      gorm.Expr("total_duration + ?", u.Duration),
			"last_call_at":        u.At,
			"last_menu_completed": u.LastMenu,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("upsert caller %s: %w", u.PhoneNumber, err)
	}
	return nil
}
