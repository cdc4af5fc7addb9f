package mysql

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/posttrade/internal/posttrade/domain"
)

// translate 将 gorm 未命中映射为领域错误
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// InstrumentRepo 金融工具仓储
type InstrumentRepo struct {
	db *gorm.DB
}

// NewInstrumentRepo 创建金融工具仓储
func NewInstrumentRepo(db *gorm.DB) domain.InstrumentRepository {
	return &InstrumentRepo{db: db}
}

func (r *InstrumentRepo) Save(ctx context.Context, instrument *domain.Instrument) error {
	return dbFrom(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "instrument_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"isin", "security_type", "currency", "venue", "updated_at",
		}),
	}).Create(instrument).Error
}

func (r *InstrumentRepo) Get(ctx context.Context, instrumentID string) (*domain.Instrument, error) {
	var instrument domain.Instrument
	if err := dbFrom(ctx, r.db).
		Where("instrument_id = ?", instrumentID).
		First(&instrument).Error; err != nil {
		return nil, translate(err)
	}
	return &instrument, nil
}

// OrderRepo 委托仓储
type OrderRepo struct {
	db *gorm.DB
}

// NewOrderRepo 创建委托仓储
func NewOrderRepo(db *gorm.DB) domain.OrderRepository {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) Save(ctx context.Context, order *domain.Order) error {
	return dbFrom(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"account_id", "instrument_id", "side", "qty", "trader", "updated_at",
		}),
	}).Create(order).Error
}

func (r *OrderRepo) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	if err := dbFrom(ctx, r.db).
		Where("order_id = ?", orderID).
		First(&order).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *OrderRepo) ListByInstrument(ctx context.Context, instrumentID string) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := dbFrom(ctx, r.db).
		Where("instrument_id = ?", instrumentID).
		Order("order_id ASC").
		Find(&orders).Error
	return orders, err
}

// ExecutionRepo 成交仓储
type ExecutionRepo struct {
	db *gorm.DB
}

// NewExecutionRepo 创建成交仓储
func NewExecutionRepo(db *gorm.DB) domain.ExecutionRepository {
	return &ExecutionRepo{db: db}
}

func (r *ExecutionRepo) Upsert(ctx context.Context, execution *domain.Execution) error {
	return dbFrom(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "exec_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"order_id", "instrument_id", "qty", "price", "trade_date", "venue", "updated_at",
		}),
	}).Create(execution).Error
}

func (r *ExecutionRepo) Get(ctx context.Context, execID string) (*domain.Execution, error) {
	var execution domain.Execution
	if err := dbFrom(ctx, r.db).
		Where("exec_id = ?", execID).
		First(&execution).Error; err != nil {
		return nil, translate(err)
	}
	return &execution, nil
}

func (r *ExecutionRepo) ListLive(ctx context.Context, instrumentID, tradeDate string) ([]*domain.Execution, error) {
	var executions []*domain.Execution
	err := dbFrom(ctx, r.db).
		Where("instrument_id = ? AND trade_date = ? AND qty > 0", instrumentID, tradeDate).
		Order("exec_id ASC").
		Find(&executions).Error
	return executions, err
}

func (r *ExecutionRepo) UpdateQty(ctx context.Context, execID string, qty decimal.Decimal) error {
	result := dbFrom(ctx, r.db).Model(&domain.Execution{}).
		Where("exec_id = ?", execID).
		Update("qty", qty)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// BlockRepo 大宗单仓储
type BlockRepo struct {
	db *gorm.DB
}

// NewBlockRepo 创建大宗单仓储
func NewBlockRepo(db *gorm.DB) domain.BlockRepository {
	return &BlockRepo{db: db}
}

func (r *BlockRepo) Upsert(ctx context.Context, block *domain.BlockTrade) error {
	return dbFrom(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "block_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"gross_qty", "avg_price", "status", "updated_at",
		}),
	}).Create(block).Error
}

func (r *BlockRepo) Get(ctx context.Context, blockID string) (*domain.BlockTrade, error) {
	var block domain.BlockTrade
	if err := dbFrom(ctx, r.db).
		Where("block_id = ?", blockID).
		First(&block).Error; err != nil {
		return nil, translate(err)
	}
	return &block, nil
}

func (r *BlockRepo) FindOpen(ctx context.Context, instrumentID string, side domain.Side, tradeDate string) (*domain.BlockTrade, error) {
	var blocks []*domain.BlockTrade
	err := dbFrom(ctx, r.db).
		Where("instrument_id = ? AND side = ? AND trade_date = ? AND status IN ?",
			instrumentID, side, tradeDate,
			[]domain.BlockStatus{domain.BlockStatusOpen, domain.BlockStatusReadyToAllocate}).
		Limit(2).
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	switch len(blocks) {
	case 0:
		return nil, domain.ErrNotFound
	case 1:
		return blocks[0], nil
	default:
		return nil, domain.ErrNotUnique
	}
}

func (r *BlockRepo) ListByGroup(ctx context.Context, instrumentID, tradeDate string) ([]*domain.BlockTrade, error) {
	var blocks []*domain.BlockTrade
	err := dbFrom(ctx, r.db).
		Where("instrument_id = ? AND trade_date = ?", instrumentID, tradeDate).
		Order("block_id ASC").
		Find(&blocks).Error
	return blocks, err
}

func (r *BlockRepo) UpdateStatus(ctx context.Context, blockID string, status domain.BlockStatus) error {
	result := dbFrom(ctx, r.db).Model(&domain.BlockTrade{}).
		Where("block_id = ?", blockID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AllocationRepo 分配仓储
type AllocationRepo struct {
	db *gorm.DB
}

// NewAllocationRepo 创建分配仓储
func NewAllocationRepo(db *gorm.DB) domain.AllocationRepository {
	return &AllocationRepo{db: db}
}

func (r *AllocationRepo) Upsert(ctx context.Context, allocation *domain.Allocation) error {
	return dbFrom(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "alloc_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"alloc_qty", "alloc_price", "updated_at",
		}),
	}).Create(allocation).Error
}

func (r *AllocationRepo) Get(ctx context.Context, allocID string) (*domain.Allocation, error) {
	var allocation domain.Allocation
	if err := dbFrom(ctx, r.db).
		Where("alloc_id = ?", allocID).
		First(&allocation).Error; err != nil {
		return nil, translate(err)
	}
	return &allocation, nil
}

func (r *AllocationRepo) ListByBlock(ctx context.Context, blockID string) ([]*domain.Allocation, error) {
	var allocations []*domain.Allocation
	err := dbFrom(ctx, r.db).
		Where("block_id = ?", blockID).
		Order("account_id ASC").
		Find(&allocations).Error
	return allocations, err
}
