package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// 主题常量
const (
	TopicExecutionFeed     = "fix.executions"     // 入站成交回报
	TopicExecutionFeedDLQ  = "fix.executions.dlq" // 入站死信
	TopicTradeEvents       = "trade.events"       // 出站业务事件流
	TopicSettlementOutcall = "settlement.gateway" // 出箱内部路由：结算网关投递
)

// 事件类型
const (
	EventExecutionReceived  = "ExecutionReceived"
	EventBlockReady         = "BlockReady"
	EventAllocationCreated  = "AllocationCreated"
	EventSettlementSent     = "SettlementSent"
	EventSettlementRejected = "SettlementRejected"
)

// SchemaVersionV1 当前事件契约版本
const SchemaVersionV1 = "v1"

// Envelope trade.events 信封
type Envelope struct {
	EventType     string          `json:"eventType"`
	SchemaVersion string          `json:"schemaVersion"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope 封装事件载荷
func NewEnvelope(eventType string, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		EventType:     eventType,
		SchemaVersion: SchemaVersionV1,
		Payload:       data,
	}, nil
}

// ExecutionReceivedEvent 成交入账事件
type ExecutionReceivedEvent struct {
	ExecID  string          `json:"execId"`
	OrderID string          `json:"orderId"`
	Qty     decimal.Decimal `json:"qty"`
	Price   decimal.Decimal `json:"price"`
	Venue   string          `json:"venue"`
}

// BlockReadyEvent 大宗单待分配事件
type BlockReadyEvent struct {
	BlockID  string          `json:"blockId"`
	GrossQty decimal.Decimal `json:"grossQty"`
	AvgPrice decimal.Decimal `json:"avgPrice"`
}

// AllocationCreatedEvent 分配创建事件
type AllocationCreatedEvent struct {
	AllocID   string          `json:"allocId"`
	BlockID   string          `json:"blockId"`
	AccountID string          `json:"accountId"`
	AllocQty  decimal.Decimal `json:"allocQty"`
}

// SettlementSentEvent 结算指令已投递事件
type SettlementSentEvent struct {
	SettleID string `json:"settleId"`
	AllocID  string `json:"allocId"`
}

// SettlementRejectedEvent 结算指令被网关终态拒绝，转人工处理。
type SettlementRejectedEvent struct {
	SettleID string `json:"settleId"`
	AllocID  string `json:"allocId"`
	Reason   string `json:"reason"`
}
