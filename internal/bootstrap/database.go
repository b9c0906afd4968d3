package bootstrap

import (
	"fmt"

	"gorm.io/gorm"

	"refbot/internal/models"
)

// MigrateAndSeed ensures required tables exist and inserts baseline rows
// for singleton tables. AutoMigrate also adds columns introduced after
// the first deployment (e.g. payment_requests.card_number) to existing
// tables without touching their data.
func MigrateAndSeed(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	if err := ensureStatsRow(db); err != nil {
		return fmt.Errorf("seed stats failed: %w", err)
	}
	return nil
}

func allModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Stats{},
		&models.PaymentRequest{},
		&models.Channel{},
	}
}

func ensureStatsRow(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Stats{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return tx.Create(&models.Stats{}).Error
	})
}
