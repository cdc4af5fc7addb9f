package application

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/logging"

	"github.com/wyfcoding/posttrade/internal/posttrade/domain"
)

// OpsService 运维与查询面：参考数据维护、状态查询、人工冲正。
type OpsService struct {
	runtime     *Runtime
	instruments domain.InstrumentRepository
	orders      domain.OrderRepository
	executions  domain.ExecutionRepository
	blocks      domain.BlockRepository
	allocations domain.AllocationRepository
	logger      *logging.Logger
}

// NewOpsService 创建运维服务
func NewOpsService(
	runtime *Runtime,
	instruments domain.InstrumentRepository,
	orders domain.OrderRepository,
	executions domain.ExecutionRepository,
	blocks domain.BlockRepository,
	allocations domain.AllocationRepository,
	logger *logging.Logger,
) *OpsService {
	return &OpsService{
		runtime:     runtime,
		instruments: instruments,
		orders:      orders,
		executions:  executions,
		blocks:      blocks,
		allocations: allocations,
		logger:      logger,
	}
}

// SaveInstrument 登记或更新金融工具
func (s *OpsService) SaveInstrument(ctx context.Context, instrument *domain.Instrument) error {
	return s.runtime.Execute(ctx, "SaveInstrument", func(txCtx context.Context, _ *domain.ChangeSet) error {
		return s.instruments.Save(txCtx, instrument)
	})
}

// SaveOrder 登记或更新委托
func (s *OpsService) SaveOrder(ctx context.Context, order *domain.Order) error {
	return s.runtime.Execute(ctx, "SaveOrder", func(txCtx context.Context, _ *domain.ChangeSet) error {
		return s.orders.Save(txCtx, order)
	})
}

// GetBlock 查询大宗单
func (s *OpsService) GetBlock(ctx context.Context, blockID string) (*domain.BlockTrade, error) {
	return s.blocks.Get(ctx, blockID)
}

// ListAllocations 查询大宗单下的全部分配
func (s *OpsService) ListAllocations(ctx context.Context, blockID string) ([]*domain.Allocation, error) {
	if _, err := s.blocks.Get(ctx, blockID); err != nil {
		return nil, err
	}
	return s.allocations.ListByBlock(ctx, blockID)
}

// GetExecution 查询成交
func (s *OpsService) GetExecution(ctx context.Context, execID string) (*domain.Execution, error) {
	return s.executions.Get(ctx, execID)
}

// BustExecution 冲正一笔成交：数量归零并触发分组内大宗单作废。
// 已冲正的成交为幂等空操作。
func (s *OpsService) BustExecution(ctx context.Context, execID string) error {
	err := s.runtime.Execute(ctx, "BustExecution", func(txCtx context.Context, changes *domain.ChangeSet) error {
		exec, err := s.executions.Get(txCtx, execID)
		if err != nil {
			return fmt.Errorf("load execution %s: %w", execID, err)
		}
		if exec.IsBusted() {
			s.logger.InfoContext(txCtx, "execution already busted, skipping", "exec_id", execID)
			return nil
		}
		if err := s.executions.UpdateQty(txCtx, execID, decimal.Zero); err != nil {
			return fmt.Errorf("zero execution %s: %w", execID, err)
		}
		exec.Qty = decimal.Zero
		changes.ExecutionUpdated(exec)
		return nil
	})
	if err != nil {
		rulesExecuted.WithLabelValues("BustExecution", "failed").Inc()
		return err
	}
	rulesExecuted.WithLabelValues("BustExecution", "success").Inc()
	return nil
}
