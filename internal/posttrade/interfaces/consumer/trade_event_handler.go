package consumer

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/wyfcoding/pkg/logging"

	"github.com/wyfcoding/posttrade/internal/posttrade/application"
	"github.com/wyfcoding/posttrade/internal/posttrade/domain"
)

// TradeEventHandler 消费自产业务事件流，驱动 BlockReady 到分配的异步链路。
type TradeEventHandler struct {
	allocator *application.AllocationService
	logger    *logging.Logger
}

// NewTradeEventHandler 创建业务事件处理器
func NewTradeEventHandler(allocator *application.AllocationService, logger *logging.Logger) *TradeEventHandler {
	return &TradeEventHandler{allocator: allocator, logger: logger}
}

// Handle 处理一条业务事件。分配规则自身幂等，重投安全。
func (h *TradeEventHandler) Handle(ctx context.Context, msg kafkago.Message) error {
	var env domain.Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		h.logger.ErrorContext(ctx, "undecodable trade event", "offset", msg.Offset, "error", err)
		return nil
	}

	switch env.EventType {
	case domain.EventBlockReady:
		var payload domain.BlockReadyEvent
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			h.logger.ErrorContext(ctx, "undecodable BlockReady payload", "error", err)
			return nil
		}
		return h.allocator.Allocate(ctx, payload.BlockID)
	default:
		// 其余事件面向下游系统，此处无本地动作。
		return nil
	}
}
