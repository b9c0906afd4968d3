package subscription

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"refbot/internal/config"
)

type fakeOracle struct {
	statuses map[string]string
	err      error
	calls    []string
}

func (f *fakeOracle) GetChatMemberStatus(chatID string, _ int64) (string, error) {
	f.calls = append(f.calls, chatID)
	if f.err != nil {
		return "", f.err
	}
	return f.statuses[chatID], nil
}

func testChannels(ids ...string) []config.ChannelConfig {
	channels := make([]config.ChannelConfig, 0, len(ids))
	for _, id := range ids {
		channels = append(channels, config.ChannelConfig{ID: id, URL: "https://t.me/" + id})
	}
	return channels
}

func TestGate_AllMembersPass(t *testing.T) {
	oracle := &fakeOracle{statuses: map[string]string{
		"@one": "member", "@two": "administrator", "@three": "creator",
	}}
	gate := NewGate(testChannels("@one", "@two", "@three"), oracle, zap.NewNop())

	require.True(t, gate.IsSubscribed(1))
	require.Len(t, oracle.calls, 3)
}

func TestGate_NonMemberStatusesFail(t *testing.T) {
	for _, status := range []string{"left", "kicked", "banned"} {
		t.Run(status, func(t *testing.T) {
			oracle := &fakeOracle{statuses: map[string]string{"@one": status}}
			gate := NewGate(testChannels("@one"), oracle, zap.NewNop())

			require.False(t, gate.IsSubscribed(1))
		})
	}
}

func TestGate_StopsAtFirstFailingChannel(t *testing.T) {
	oracle := &fakeOracle{statuses: map[string]string{
		"@one": "left", "@two": "member",
	}}
	gate := NewGate(testChannels("@one", "@two"), oracle, zap.NewNop())

	require.False(t, gate.IsSubscribed(1))
	require.Equal(t, []string{"@one"}, oracle.calls)
}

func TestGate_OracleErrorFailsClosed(t *testing.T) {
	oracle := &fakeOracle{err: errors.New("api unavailable")}
	gate := NewGate(testChannels("@one"), oracle, zap.NewNop())

	require.False(t, gate.IsSubscribed(1))
}

func TestGate_NoChannelsMeansOpen(t *testing.T) {
	gate := NewGate(nil, &fakeOracle{}, zap.NewNop())

	require.True(t, gate.IsSubscribed(1))
}
