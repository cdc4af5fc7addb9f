package application

import (
	"context"
	"fmt"

	"github.com/wyfcoding/pkg/logging"

	"github.com/wyfcoding/posttrade/internal/posttrade/domain"
)

// BustService 执行 HandleBust 规则，由成交更新通知触发。
// 成交被冲正后，其所在分组的全部大宗单置 BUSTED，停止后续分配。
type BustService struct {
	runtime *Runtime
	blocks  domain.BlockRepository
	logger  *logging.Logger
}

// NewBustService 创建冲正传导服务
func NewBustService(runtime *Runtime, blocks domain.BlockRepository, logger *logging.Logger) *BustService {
	s := &BustService{
		runtime: runtime,
		blocks:  blocks,
		logger:  logger,
	}
	runtime.OnExecutionUpdated(s.HandleExecutionUpdated)
	return s
}

// HandleExecutionUpdated 成交数量归零时将分组内大宗单全部作废。
// 已 BUSTED 的行跳过，重放收敛；非冲正更新为空操作。
func (s *BustService) HandleExecutionUpdated(ctx context.Context, exec *domain.Execution) error {
	if !exec.IsBusted() {
		return nil
	}

	err := s.runtime.Execute(ctx, "HandleBust", func(txCtx context.Context, _ *domain.ChangeSet) error {
		blocks, err := s.blocks.ListByGroup(txCtx, exec.InstrumentID, exec.TradeDate)
		if err != nil {
			return fmt.Errorf("list blocks for %s/%s: %w", exec.InstrumentID, exec.TradeDate, err)
		}
		for _, block := range blocks {
			if block.Status == domain.BlockStatusBusted {
				continue
			}
			if err := s.blocks.UpdateStatus(txCtx, block.BlockID, domain.BlockStatusBusted); err != nil {
				return fmt.Errorf("bust block %s: %w", block.BlockID, err)
			}
			s.logger.InfoContext(txCtx, "block busted",
				"block_id", block.BlockID, "exec_id", exec.ExecID, "prior_status", block.Status.String())
		}
		return nil
	})
	if err != nil {
		rulesExecuted.WithLabelValues("HandleBust", "failed").Inc()
		return err
	}
	rulesExecuted.WithLabelValues("HandleBust", "success").Inc()
	return nil
}
