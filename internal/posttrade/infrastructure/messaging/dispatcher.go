package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/kafka"

	"github.com/wyfcoding/posttrade/internal/posttrade/domain"
	"github.com/wyfcoding/posttrade/internal/posttrade/infrastructure/gateway"
)

// Dispatcher 出箱派发器的推送函数载体。
// trade.events 行投递 Kafka；settlement.gateway 行走 HTTP 外呼，
// 并将外呼结果（受理/拒绝）作为业务事件回流 trade.events。
type Dispatcher struct {
	producer *kafka.Producer
	gateway  *gateway.Client
	logger   *logging.Logger
}

// NewDispatcher 创建派发器。producer 须绑定 trade.events 主题。
func NewDispatcher(producer *kafka.Producer, gw *gateway.Client, logger *logging.Logger) *Dispatcher {
	return &Dispatcher{producer: producer, gateway: gw, logger: logger}
}

// Push 供出箱处理器调用。返回非 nil 时该行按退避重投。
func (d *Dispatcher) Push(ctx context.Context, topic string, key string, payload []byte) error {
	switch topic {
	case domain.TopicSettlementOutcall:
		return d.pushSettlement(ctx, payload)
	case domain.TopicTradeEvents:
		return d.producer.Publish(ctx, []byte(key), payload)
	default:
		return fmt.Errorf("unroutable outbox topic %q", topic)
	}
}

// pushSettlement 外呼结算网关。
// 受理发布 SettlementSent；终态拒绝发布 SettlementRejected 并返回 nil，
// 该行就此完结；瞬时失败返回错误交由出箱退避重投。
func (d *Dispatcher) pushSettlement(ctx context.Context, payload []byte) error {
	var instruction domain.SettlementInstruction
	if err := json.Unmarshal(payload, &instruction); err != nil {
		return fmt.Errorf("decode settlement payload: %w", err)
	}

	err := d.gateway.Submit(ctx, &instruction)
	switch {
	case err == nil:
		return d.publishOutcome(ctx, &instruction, domain.EventSettlementSent, domain.SettlementSentEvent{
			SettleID: instruction.SettleID,
			AllocID:  instruction.AllocID,
		})
	case errors.Is(err, gateway.ErrRejected):
		d.logger.WarnContext(ctx, "settlement terminally rejected",
			"settle_id", instruction.SettleID, "error", err)
		return d.publishOutcome(ctx, &instruction, domain.EventSettlementRejected, domain.SettlementRejectedEvent{
			SettleID: instruction.SettleID,
			AllocID:  instruction.AllocID,
			Reason:   err.Error(),
		})
	default:
		return err
	}
}

func (d *Dispatcher) publishOutcome(ctx context.Context, instruction *domain.SettlementInstruction, eventType string, payload any) error {
	env, err := domain.NewEnvelope(eventType, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return d.producer.Publish(ctx, []byte(instruction.SettleID), data)
}
