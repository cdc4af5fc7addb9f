package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/xerrors"

	"github.com/wyfcoding/posttrade/internal/posttrade/domain"
)

var (
	validationRejects = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "posttrade_validation_rejects_total", Help: "入站成交校验拒绝总数"},
		[]string{"reason"},
	)
	rulesExecuted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "posttrade_rules_executed_total", Help: "规则执行总数"},
		[]string{"rule", "status"},
	)
)

func init() {
	prometheus.MustRegister(validationRejects, rulesExecuted)
}

// ErrValidation 入站成交未通过前置校验，消息转死信，不推进任何状态。
var ErrValidation = xerrors.New(xerrors.ErrInvalidArg, 400, "execution failed validation", "", nil)

// ExecutionFeedMessage 成交回报线格式
type ExecutionFeedMessage struct {
	ExecID       string          `json:"execId"`
	OrderID      string          `json:"orderId"`
	InstrumentID string          `json:"instrumentId"`
	Qty          decimal.Decimal `json:"qty"`
	Price        decimal.Decimal `json:"price"`
	TradeDate    string          `json:"tradeDate"`
	Venue        string          `json:"venue"`
}

// IngestService 执行 IngestExecution 与 BuildBlockTrades 两条规则。
// 两条规则对同一条入站消息链式触发，共用一个事务。
type IngestService struct {
	runtime     *Runtime
	instruments domain.InstrumentRepository
	orders      domain.OrderRepository
	executions  domain.ExecutionRepository
	blocks      domain.BlockRepository
	publisher   domain.EventPublisher
	scales      domain.CurrencyScales
	logger      *logging.Logger
}

// NewIngestService 创建成交入账服务
func NewIngestService(
	runtime *Runtime,
	instruments domain.InstrumentRepository,
	orders domain.OrderRepository,
	executions domain.ExecutionRepository,
	blocks domain.BlockRepository,
	publisher domain.EventPublisher,
	scales domain.CurrencyScales,
	logger *logging.Logger,
) *IngestService {
	return &IngestService{
		runtime:     runtime,
		instruments: instruments,
		orders:      orders,
		executions:  executions,
		blocks:      blocks,
		publisher:   publisher,
		scales:      scales,
		logger:      logger,
	}
}

// ProcessExecution 处理一条成交回报。以 execId 幂等：重放收敛到同一投影。
func (s *IngestService) ProcessExecution(ctx context.Context, msg ExecutionFeedMessage) error {
	if !msg.Qty.IsPositive() {
		validationRejects.WithLabelValues("qty_not_positive").Inc()
		return fmt.Errorf("%w: qty=%s", ErrValidation, msg.Qty)
	}
	if !msg.Price.IsPositive() {
		validationRejects.WithLabelValues("price_not_positive").Inc()
		return fmt.Errorf("%w: price=%s", ErrValidation, msg.Price)
	}
	if _, err := domain.ParseTradeDate(msg.TradeDate); err != nil {
		validationRejects.WithLabelValues("bad_trade_date").Inc()
		return fmt.Errorf("%w: tradeDate=%q", ErrValidation, msg.TradeDate)
	}

	err := s.runtime.Execute(ctx, "IngestExecution", func(txCtx context.Context, _ *domain.ChangeSet) error {
		if err := s.ingest(txCtx, msg); err != nil {
			return err
		}
		return s.buildBlock(txCtx, msg)
	})
	if err != nil {
		rulesExecuted.WithLabelValues("IngestExecution", "failed").Inc()
		return err
	}
	rulesExecuted.WithLabelValues("IngestExecution", "success").Inc()
	return nil
}

// ingest IngestExecution 规则：按 execId upsert 成交并发布入账事件。
func (s *IngestService) ingest(ctx context.Context, msg ExecutionFeedMessage) error {
	exec := &domain.Execution{
		ExecID:       msg.ExecID,
		OrderID:      msg.OrderID,
		InstrumentID: msg.InstrumentID,
		Qty:          msg.Qty,
		Price:        msg.Price,
		TradeDate:    msg.TradeDate,
		Venue:        msg.Venue,
	}
	if err := s.executions.Upsert(ctx, exec); err != nil {
		return fmt.Errorf("upsert execution %s: %w", msg.ExecID, err)
	}

	env, err := domain.NewEnvelope(domain.EventExecutionReceived, domain.ExecutionReceivedEvent{
		ExecID:  msg.ExecID,
		OrderID: msg.OrderID,
		Qty:     msg.Qty,
		Price:   msg.Price,
		Venue:   msg.Venue,
	})
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, domain.TopicTradeEvents, msg.InstrumentID, env)
}

// buildBlock BuildBlockTrades 规则：定位或合成聚合桶，对分组内全部存活成交
// 整单重算总量与均价，置 READY_TO_ALLOCATE 并发布 BlockReady。
func (s *IngestService) buildBlock(ctx context.Context, msg ExecutionFeedMessage) error {
	// 委托或金融工具缺失对本条消息是致命的，交由消费侧死信。
	order, err := s.orders.Get(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("resolve order %s: %w", msg.OrderID, err)
	}
	instrument, err := s.instruments.Get(ctx, msg.InstrumentID)
	if err != nil {
		return fmt.Errorf("resolve instrument %s: %w", msg.InstrumentID, err)
	}

	block, err := s.blocks.FindOpen(ctx, msg.InstrumentID, order.Side, msg.TradeDate)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		block = &domain.BlockTrade{
			BlockID:      domain.NewBlockID(msg.InstrumentID, order.Side, msg.TradeDate),
			InstrumentID: msg.InstrumentID,
			Side:         order.Side,
			TradeDate:    msg.TradeDate,
			Status:       domain.BlockStatusOpen,
		}
	case err != nil:
		return fmt.Errorf("locate open block: %w", err)
	}

	fills, err := s.executions.ListLive(ctx, msg.InstrumentID, msg.TradeDate)
	if err != nil {
		return fmt.Errorf("list live executions: %w", err)
	}
	block.GrossQty, block.AvgPrice = domain.Aggregate(fills, s.scales.Scale(instrument.Currency))
	block.Status = domain.BlockStatusReadyToAllocate

	if err := s.blocks.Upsert(ctx, block); err != nil {
		return fmt.Errorf("upsert block %s: %w", block.BlockID, err)
	}

	env, err := domain.NewEnvelope(domain.EventBlockReady, domain.BlockReadyEvent{
		BlockID:  block.BlockID,
		GrossQty: block.GrossQty,
		AvgPrice: block.AvgPrice,
	})
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, domain.TopicTradeEvents, msg.InstrumentID, env)
}
