package application

import (
	"context"
	"fmt"

	"github.com/wyfcoding/pkg/logging"

	"github.com/wyfcoding/posttrade/internal/posttrade/domain"
)

// SettlementService 执行 GenerateSettlement 规则，由分配创建通知触发。
// 结算指令不落库，指令本体即出箱载荷，settleId 为 allocId 的纯函数。
type SettlementService struct {
	runtime     *Runtime
	blocks      domain.BlockRepository
	instruments domain.InstrumentRepository
	publisher   domain.EventPublisher
	calendar    domain.Calendar
	cycleDays   int
	scales      domain.CurrencyScales
	logger      *logging.Logger
}

// NewSettlementService 创建结算服务。cycleDays 为结算周期的营业日数（T+n）。
func NewSettlementService(
	runtime *Runtime,
	blocks domain.BlockRepository,
	instruments domain.InstrumentRepository,
	publisher domain.EventPublisher,
	calendar domain.Calendar,
	cycleDays int,
	scales domain.CurrencyScales,
	logger *logging.Logger,
) *SettlementService {
	s := &SettlementService{
		runtime:     runtime,
		blocks:      blocks,
		instruments: instruments,
		publisher:   publisher,
		calendar:    calendar,
		cycleDays:   cycleDays,
		scales:      scales,
		logger:      logger,
	}
	runtime.OnAllocationCreated(s.HandleAllocationCreated)
	return s
}

// HandleAllocationCreated 为一笔分配生成结算指令并写入外呼出箱。
// 指令发往结算网关由出箱派发器异步完成，此处只负责原子登记。
func (s *SettlementService) HandleAllocationCreated(ctx context.Context, alloc *domain.Allocation) error {
	err := s.runtime.Execute(ctx, "GenerateSettlement", func(txCtx context.Context, _ *domain.ChangeSet) error {
		block, err := s.blocks.Get(txCtx, alloc.BlockID)
		if err != nil {
			return fmt.Errorf("load block %s: %w", alloc.BlockID, err)
		}
		instrument, err := s.instruments.Get(txCtx, block.InstrumentID)
		if err != nil {
			return fmt.Errorf("resolve instrument %s: %w", block.InstrumentID, err)
		}

		instruction, err := domain.BuildSettlementInstruction(alloc, block, instrument, s.calendar, s.cycleDays, s.scales)
		if err != nil {
			return fmt.Errorf("build settlement for %s: %w", alloc.AllocID, err)
		}

		return s.publisher.Publish(txCtx, domain.TopicSettlementOutcall, instruction.SettleID, instruction)
	})
	if err != nil {
		rulesExecuted.WithLabelValues("GenerateSettlement", "failed").Inc()
		return err
	}
	rulesExecuted.WithLabelValues("GenerateSettlement", "success").Inc()
	return nil
}
