package repository

import (
	"gorm.io/gorm"

	"refbot/internal/models"
)

// ChannelRepository handles the channels table. The runtime gate reads
// its channel list from config; this repository backs the ops API.
type ChannelRepository struct {
	db *gorm.DB
}

func NewChannelRepository(db *gorm.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// FindAll returns all stored channels.
func (r *ChannelRepository) FindAll() ([]models.Channel, error) {
	var channels []models.Channel
	err := r.db.Find(&channels).Error
	return channels, err
}

// Create inserts a channel row.
func (r *ChannelRepository) Create(ch *models.Channel) error {
	return r.db.Create(ch).Error
}
