package subscription

import (
	"go.uber.org/zap"

	"refbot/internal/config"
)

// MembershipOracle answers whether a user belongs to a chat.
// Implemented by telegram.BotAPI.
type MembershipOracle interface {
	GetChatMemberStatus(chatID string, userID int64) (string, error)
}

// Gate is the fail-closed predicate requiring membership in every
// configured channel before feature use.
type Gate struct {
	channels []config.ChannelConfig
	oracle   MembershipOracle
	logger   *zap.Logger
}

func NewGate(channels []config.ChannelConfig, oracle MembershipOracle, logger *zap.Logger) *Gate {
	return &Gate{channels: channels, oracle: oracle, logger: logger}
}

// Channels returns the configured required channels.
func (g *Gate) Channels() []config.ChannelConfig {
	return g.channels
}

// IsSubscribed checks the user's membership in every required channel.
// left/kicked/banned count as not subscribed; an oracle failure counts
// as not subscribed too. Stops at the first failing channel.
func (g *Gate) IsSubscribed(userID int64) bool {
	for _, ch := range g.channels {
		status, err := g.oracle.GetChatMemberStatus(ch.ID, userID)
		if err != nil {
			g.logger.Warn("membership check failed",
				zap.String("channel", ch.ID), zap.Int64("user_id", userID), zap.Error(err))
			return false
		}
		switch status {
		case "left", "kicked", "banned":
			return false
		}
	}
	return true
}
