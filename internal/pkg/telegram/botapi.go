package telegram

import (
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"

	"refbot/internal/pkg/httpclient"
)

// BotAPI provides a direct Telegram Bot API client.
// Used for cross-bot notifications and for methods where the parsed
// response matters, such as getChatMember.
type BotAPI struct {
	token  string
	client *resty.Client
}

// NewBotAPI creates a new direct Telegram Bot API client.
func NewBotAPI(token string) *BotAPI {
	return &BotAPI{
		token:  token,
		client: httpclient.New("https://api.telegram.org/bot" + token),
	}
}

// Call makes a raw API call to the Telegram Bot API.
func (b *BotAPI) Call(method string, params map[string]interface{}) (string, error) {
	resp, err := b.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(params).
		Post("/" + method)
	if err != nil {
		return "", fmt.Errorf("telegram API call %s failed: %w", method, err)
	}
	return resp.String(), nil
}

// SendMessage sends a text message.
func (b *BotAPI) SendMessage(chatID int64, text string, replyMarkup interface{}) (string, error) {
	params := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if replyMarkup != nil {
		params["reply_markup"] = replyMarkup
	}
	return b.Call("sendMessage", params)
}

// GetChatMemberStatus returns the membership status of a user in a chat
// ("member", "left", "kicked", ...). A non-ok API response is an error.
func (b *BotAPI) GetChatMemberStatus(chatID string, userID int64) (string, error) {
	raw, err := b.Call("getChatMember", map[string]interface{}{
		"chat_id": chatID,
		"user_id": userID,
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
		Result      struct {
			Status string `json:"status"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return "", fmt.Errorf("getChatMember: bad response: %w", err)
	}
	if !resp.OK {
		return "", fmt.Errorf("getChatMember: %s", resp.Description)
	}
	return resp.Result.Status, nil
}
