package application

import (
	"context"
	"fmt"

	"github.com/wyfcoding/pkg/logging"

	"github.com/wyfcoding/posttrade/internal/posttrade/domain"
)

// AllocationService 执行 AllocateBlock 规则，由 BlockReady 事件触发。
type AllocationService struct {
	runtime     *Runtime
	orders      domain.OrderRepository
	blocks      domain.BlockRepository
	allocations domain.AllocationRepository
	publisher   domain.EventPublisher
	qtyScale    int32
	logger      *logging.Logger
}

// NewAllocationService 创建分配服务。qtyScale 为分配数量的最小单位精度。
func NewAllocationService(
	runtime *Runtime,
	orders domain.OrderRepository,
	blocks domain.BlockRepository,
	allocations domain.AllocationRepository,
	publisher domain.EventPublisher,
	qtyScale int32,
	logger *logging.Logger,
) *AllocationService {
	return &AllocationService{
		runtime:     runtime,
		orders:      orders,
		blocks:      blocks,
		allocations: allocations,
		publisher:   publisher,
		qtyScale:    qtyScale,
		logger:      logger,
	}
}

// Allocate 将大宗单切分到参与账户。
// 大宗单不在 READY_TO_ALLOCATE 状态（已分配或已冲正）时为幂等空操作；
// allocId 为 (block, account) 的纯函数，重放退化为 upsert。
func (s *AllocationService) Allocate(ctx context.Context, blockID string) error {
	err := s.runtime.Execute(ctx, "AllocateBlock", func(txCtx context.Context, changes *domain.ChangeSet) error {
		block, err := s.blocks.Get(txCtx, blockID)
		if err != nil {
			return fmt.Errorf("load block %s: %w", blockID, err)
		}
		if !block.IsAllocatable() {
			s.logger.InfoContext(txCtx, "block not allocatable, skipping",
				"block_id", blockID, "status", block.Status.String())
			return nil
		}

		// 参与委托 = 该金融工具的全部委托（沿用上游口径，未按方向过滤）。
		orders, err := s.orders.ListByInstrument(txCtx, block.InstrumentID)
		if err != nil {
			return fmt.Errorf("list orders for %s: %w", block.InstrumentID, err)
		}
		accounts := uniqueAccounts(orders)
		if len(accounts) == 0 {
			return fmt.Errorf("no participating orders for block %s: %w", blockID, domain.ErrNotFound)
		}

		shares := domain.SplitProRata(block.GrossQty, accounts, s.qtyScale)
		for _, share := range shares {
			alloc := &domain.Allocation{
				AllocID:    domain.NewAllocationID(block.BlockID, share.AccountID),
				BlockID:    block.BlockID,
				AccountID:  share.AccountID,
				AllocQty:   share.Qty,
				AllocPrice: block.AvgPrice,
			}
			if err := s.allocations.Upsert(txCtx, alloc); err != nil {
				return fmt.Errorf("upsert allocation %s: %w", alloc.AllocID, err)
			}
			changes.AllocationCreated(alloc)

			env, err := domain.NewEnvelope(domain.EventAllocationCreated, domain.AllocationCreatedEvent{
				AllocID:   alloc.AllocID,
				BlockID:   alloc.BlockID,
				AccountID: alloc.AccountID,
				AllocQty:  alloc.AllocQty,
			})
			if err != nil {
				return err
			}
			if err := s.publisher.Publish(txCtx, domain.TopicTradeEvents, block.InstrumentID, env); err != nil {
				return err
			}
		}

		return s.blocks.UpdateStatus(txCtx, block.BlockID, domain.BlockStatusAllocated)
	})
	if err != nil {
		rulesExecuted.WithLabelValues("AllocateBlock", "failed").Inc()
		return err
	}
	rulesExecuted.WithLabelValues("AllocateBlock", "success").Inc()
	return nil
}

// uniqueAccounts 提取去重后的账户列表。同一账户多笔委托只分配一次。
func uniqueAccounts(orders []*domain.Order) []string {
	seen := make(map[string]struct{}, len(orders))
	accounts := make([]string, 0, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.AccountID]; ok {
			continue
		}
		seen[o.AccountID] = struct{}{}
		accounts = append(accounts, o.AccountID)
	}
	return accounts
}
