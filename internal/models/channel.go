package models

// Channel maps to the `channels` table.
// The runtime reads required channels from config; the table is kept for
// operators who manage the list externally.
type Channel struct {
	ID        uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ChannelID string `gorm:"column:channel_id;size:200" json:"channel_id"`
	Name      string `gorm:"column:channel_name;size:200" json:"channel_name"`
	LinkJoin  string `gorm:"column:linkjoin;size:200" json:"linkjoin"`
}

func (Channel) TableName() string {
	return "channels"
}
