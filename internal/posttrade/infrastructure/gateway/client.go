// Package gateway 对接下游结算网关的 HTTP 出站客户端。
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/retry"
	"github.com/wyfcoding/pkg/xerrors"

	"github.com/wyfcoding/posttrade/internal/posttrade/domain"
)

// ErrRejected 网关判定性拒绝（非 408/429 的 4xx）。重试无意义，
// 调用方应发布拒绝事件并停止重投。
var ErrRejected = xerrors.New(xerrors.ErrInvalidArg, 400, "settlement rejected by gateway", "", nil)

// Client 结算网关客户端。以 settleId 作幂等键重发安全，
// 瞬时失败按退避策略重试，判定性拒绝立即返回 ErrRejected。
type Client struct {
	baseURL  string
	http     *http.Client
	retryCfg retry.Config
	logger   *logging.Logger
}

// NewClient 创建网关客户端
func NewClient(baseURL string, timeout time.Duration, retryCfg retry.Config, logger *logging.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		retryCfg: retryCfg,
		logger:   logger,
	}
}

// Submit 投递一条结算指令。返回 nil 表示网关已受理（任意 2xx）。
func (c *Client) Submit(ctx context.Context, instruction *domain.SettlementInstruction) error {
	body, err := json.Marshal(instruction)
	if err != nil {
		return fmt.Errorf("marshal settlement %s: %w", instruction.SettleID, err)
	}

	err = retry.If(ctx, func() error {
		return c.post(ctx, instruction.SettleID, body)
	}, func(err error) bool {
		return !errors.Is(err, ErrRejected)
	}, c.retryCfg)
	if err != nil {
		return fmt.Errorf("submit settlement %s: %w", instruction.SettleID, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, settleID string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/settlements", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", settleID)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("gateway throttled: status=%d body=%s", resp.StatusCode, detail)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		c.logger.WarnContext(ctx, "settlement rejected",
			"settle_id", settleID, "status", resp.StatusCode, "body", string(detail))
		return fmt.Errorf("%w: status=%d body=%s", ErrRejected, resp.StatusCode, detail)
	default:
		return fmt.Errorf("gateway error: status=%d body=%s", resp.StatusCode, detail)
	}
}
