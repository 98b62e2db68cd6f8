package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/huskyplan/catalog-engine/pkg/retry"
)

// Client downloads the registrar's course spreadsheet.
type Client struct {
	sourceURL  string
	httpClient *http.Client
	retryCfg   *retry.Config
	logger     *zap.Logger
}

// NewClient creates a feed client for the given source URL.
func NewClient(sourceURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		sourceURL:  sourceURL,
		httpClient: &http.Client{Timeout: timeout},
		retryCfg:   retry.DefaultConfig(),
		logger:     logger.Named("feed-client"),
	}
}

// Fetch downloads the source workbook and decodes it into raw rows in
// spreadsheet order. Transient transport failures are retried with backoff;
// a non-200 status or a workbook missing expected columns is returned as an
// error for the caller to fail the pass on.
func (c *Client) Fetch(ctx context.Context) ([]RawRow, error) {
	data, err := retry.DoWithResult(ctx, c.retryCfg, func() ([]byte, error) {
		return c.download(ctx)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Downloaded feed workbook", zap.Int("bytes", len(data)))

	return ParseWorkbook(data)
}

func (c *Client) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	return data, nil
}
