package httpclient

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// New returns a resty client with the retry policy shared by all
// outbound API clients. Telegram occasionally answers 502 during
// datacenter failovers; two quick retries cover that.
func New(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)
}
