// Package consumer Kafka 入站处理器。
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/kafka"

	"github.com/wyfcoding/posttrade/internal/posttrade/application"
	"github.com/wyfcoding/posttrade/internal/posttrade/domain"
	"github.com/wyfcoding/posttrade/internal/posttrade/infrastructure/messaging"
)

// ExecutionFeedHandler 成交回报消费入口。
// 错误分类决定位点推进：校验失败与引用缺失对单条消息致命，转死信后推进；
// 唯一性谓词破坏与瞬时错误不推进位点，等待重投或人工介入。
type ExecutionFeedHandler struct {
	ingest  *application.IngestService
	deduper *messaging.Deduper
	dlq     *kafka.Producer
	logger  *logging.Logger
}

// NewExecutionFeedHandler 创建成交回报处理器。dlq 须绑定死信主题。
func NewExecutionFeedHandler(
	ingest *application.IngestService,
	deduper *messaging.Deduper,
	dlq *kafka.Producer,
	logger *logging.Logger,
) *ExecutionFeedHandler {
	return &ExecutionFeedHandler{
		ingest:  ingest,
		deduper: deduper,
		dlq:     dlq,
		logger:  logger,
	}
}

// Handle 处理一条成交回报消息
func (h *ExecutionFeedHandler) Handle(ctx context.Context, msg kafkago.Message) error {
	var feed application.ExecutionFeedMessage
	if err := json.Unmarshal(msg.Value, &feed); err != nil {
		h.logger.ErrorContext(ctx, "undecodable execution feed message",
			"offset", msg.Offset, "error", err)
		return h.deadLetter(ctx, msg, fmt.Errorf("decode: %w", err))
	}

	// 去重窗口命中直接跳过。Redis 故障时放行，由确定性 upsert 吸收重复。
	seen, err := h.deduper.Seen(ctx, feed.ExecID)
	if err != nil {
		h.logger.WarnContext(ctx, "dedupe lookup failed, proceeding",
			"exec_id", feed.ExecID, "error", err)
	} else if seen {
		h.logger.InfoContext(ctx, "duplicate execution skipped", "exec_id", feed.ExecID)
		return nil
	}

	if err := h.ingest.ProcessExecution(ctx, feed); err != nil {
		switch {
		case errors.Is(err, application.ErrValidation), errors.Is(err, domain.ErrNotFound):
			// 对单条消息致命：转死信并推进位点。
			h.logger.WarnContext(ctx, "execution dead-lettered",
				"exec_id", feed.ExecID, "error", err)
			return h.deadLetter(ctx, msg, err)
		case errors.Is(err, domain.ErrNotUnique):
			// 不变量破坏：不推进位点，停在当前消息等待人工介入。
			h.logger.ErrorContext(ctx, "uniqueness invariant violated, halting partition",
				"exec_id", feed.ExecID, "error", err)
			return err
		default:
			return err
		}
	}

	if err := h.deduper.MarkSeen(ctx, feed.ExecID); err != nil {
		h.logger.WarnContext(ctx, "dedupe mark failed", "exec_id", feed.ExecID, "error", err)
	}
	return nil
}

// deadLetter 将原始消息连同失败原因写入死信主题。
// 死信写入失败时返回原错误，保持位点不动。
func (h *ExecutionFeedHandler) deadLetter(ctx context.Context, msg kafkago.Message, cause error) error {
	envelope, err := json.Marshal(map[string]any{
		"payload": json.RawMessage(msg.Value),
		"error":   cause.Error(),
		"offset":  msg.Offset,
	})
	if err != nil {
		return cause
	}
	if err := h.dlq.Publish(ctx, msg.Key, envelope); err != nil {
		h.logger.ErrorContext(ctx, "dead letter publish failed", "error", err)
		return cause
	}
	return nil
}
