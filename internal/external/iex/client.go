package iex

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/valuescreen/internal/contracts"
	"github.com/wonny/valuescreen/pkg/config"
	"github.com/wonny/valuescreen/pkg/httputil"
	"github.com/wonny/valuescreen/pkg/logger"
)

// Client fetches quotes and advanced stats from an IEX Cloud compatible API
// ⭐ SSOT: 펀더멘털 provider 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	token      string
}

var _ contracts.FundamentalsProvider = (*Client)(nil)

// NewClient creates a new provider client
func NewClient(httpClient *httputil.Client, cfg config.IEXConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
	}
}

// FetchBatch requests quote + advanced-stats for up to 100 symbols in one call.
// Symbols the provider does not return are simply absent from the result map.
func (c *Client) FetchBatch(ctx context.Context, tickers []string) (map[string]*contracts.RawFundamentals, error) {
	result := make(map[string]*contracts.RawFundamentals, len(tickers))
	if len(tickers) == 0 {
		return result, nil
	}
	if len(tickers) > config.MaxBatchSize {
		return nil, fmt.Errorf("batch of %d symbols exceeds provider limit %d", len(tickers), config.MaxBatchSize)
	}

	params := url.Values{}
	params.Set("types", "advanced-stats,quote")
	params.Set("symbols", strings.Join(tickers, ","))
	if c.token != "" {
		params.Set("token", c.token)
	}
	fullURL := fmt.Sprintf("%s/stock/market/batch?%s", c.baseURL, params.Encode())

	var payload map[string]*batchEntry
	if err := c.httpClient.GetJSON(ctx, fullURL, &payload); err != nil {
		return nil, fmt.Errorf("fetch batch (%d symbols): %w", len(tickers), err)
	}

	// 응답 키는 대문자 심볼, 요청한 티커만 반환
	bySymbol := make(map[string]*batchEntry, len(payload))
	for symbol, entry := range payload {
		bySymbol[strings.ToUpper(symbol)] = entry
	}

	for _, ticker := range tickers {
		entry, ok := bySymbol[strings.ToUpper(ticker)]
		if !ok || entry == nil {
			continue
		}
		result[ticker] = entry.toRaw(ticker)
	}

	c.logger.WithFields(map[string]interface{}{
		"requested": len(tickers),
		"returned":  len(result),
	}).Debug("Fetched fundamentals batch")

	return result, nil
}
