package application

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/logging"

	"github.com/wyfcoding/posttrade/internal/posttrade/domain"
)

func testLogger() *logging.Logger {
	return logging.NewFromConfig(logging.Config{Service: "posttrade-test", Module: "application", Level: "error"})
}

// memStore 直通事务：测试中事务语义由调用顺序保证。
type memStore struct{}

func (memStore) WithinTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type memInstruments struct {
	mu   sync.Mutex
	rows map[string]*domain.Instrument
}

func newMemInstruments() *memInstruments {
	return &memInstruments{rows: make(map[string]*domain.Instrument)}
}

func (m *memInstruments) Save(_ context.Context, instrument *domain.Instrument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *instrument
	m.rows[instrument.InstrumentID] = &clone
	return nil
}

func (m *memInstruments) Get(_ context.Context, instrumentID string) (*domain.Instrument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	instrument, ok := m.rows[instrumentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *instrument
	return &clone, nil
}

type memOrders struct {
	mu   sync.Mutex
	rows map[string]*domain.Order
}

func newMemOrders() *memOrders {
	return &memOrders{rows: make(map[string]*domain.Order)}
}

func (m *memOrders) Save(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *order
	m.rows[order.OrderID] = &clone
	return nil
}

func (m *memOrders) Get(_ context.Context, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.rows[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *order
	return &clone, nil
}

func (m *memOrders) ListByInstrument(_ context.Context, instrumentID string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []*domain.Order
	for _, order := range m.rows {
		if order.InstrumentID == instrumentID {
			clone := *order
			orders = append(orders, &clone)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderID < orders[j].OrderID })
	return orders, nil
}

type memExecutions struct {
	mu   sync.Mutex
	rows map[string]*domain.Execution
}

func newMemExecutions() *memExecutions {
	return &memExecutions{rows: make(map[string]*domain.Execution)}
}

func (m *memExecutions) Upsert(_ context.Context, execution *domain.Execution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *execution
	m.rows[execution.ExecID] = &clone
	return nil
}

func (m *memExecutions) Get(_ context.Context, execID string) (*domain.Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	execution, ok := m.rows[execID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *execution
	return &clone, nil
}

func (m *memExecutions) ListLive(_ context.Context, instrumentID, tradeDate string) ([]*domain.Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var executions []*domain.Execution
	for _, execution := range m.rows {
		if execution.InstrumentID == instrumentID && execution.TradeDate == tradeDate && execution.IsLive() {
			clone := *execution
			executions = append(executions, &clone)
		}
	}
	sort.Slice(executions, func(i, j int) bool { return executions[i].ExecID < executions[j].ExecID })
	return executions, nil
}

func (m *memExecutions) UpdateQty(_ context.Context, execID string, qty decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	execution, ok := m.rows[execID]
	if !ok {
		return domain.ErrNotFound
	}
	execution.Qty = qty
	return nil
}

type memBlocks struct {
	mu   sync.Mutex
	rows map[string]*domain.BlockTrade
}

func newMemBlocks() *memBlocks {
	return &memBlocks{rows: make(map[string]*domain.BlockTrade)}
}

func (m *memBlocks) Upsert(_ context.Context, block *domain.BlockTrade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *block
	m.rows[block.BlockID] = &clone
	return nil
}

func (m *memBlocks) Get(_ context.Context, blockID string) (*domain.BlockTrade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	block, ok := m.rows[blockID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *block
	return &clone, nil
}

func (m *memBlocks) FindOpen(_ context.Context, instrumentID string, side domain.Side, tradeDate string) (*domain.BlockTrade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matches []*domain.BlockTrade
	for _, block := range m.rows {
		if block.InstrumentID == instrumentID && block.Side == side && block.TradeDate == tradeDate &&
			(block.Status == domain.BlockStatusOpen || block.Status == domain.BlockStatusReadyToAllocate) {
			clone := *block
			matches = append(matches, &clone)
		}
	}
	switch len(matches) {
	case 0:
		return nil, domain.ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return nil, domain.ErrNotUnique
	}
}

func (m *memBlocks) ListByGroup(_ context.Context, instrumentID, tradeDate string) ([]*domain.BlockTrade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var blocks []*domain.BlockTrade
	for _, block := range m.rows {
		if block.InstrumentID == instrumentID && block.TradeDate == tradeDate {
			clone := *block
			blocks = append(blocks, &clone)
		}
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].BlockID < blocks[j].BlockID })
	return blocks, nil
}

func (m *memBlocks) UpdateStatus(_ context.Context, blockID string, status domain.BlockStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	block, ok := m.rows[blockID]
	if !ok {
		return domain.ErrNotFound
	}
	block.Status = status
	return nil
}

type memAllocations struct {
	mu   sync.Mutex
	rows map[string]*domain.Allocation
}

func newMemAllocations() *memAllocations {
	return &memAllocations{rows: make(map[string]*domain.Allocation)}
}

func (m *memAllocations) Upsert(_ context.Context, allocation *domain.Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *allocation
	m.rows[allocation.AllocID] = &clone
	return nil
}

func (m *memAllocations) Get(_ context.Context, allocID string) (*domain.Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	allocation, ok := m.rows[allocID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *allocation
	return &clone, nil
}

func (m *memAllocations) ListByBlock(_ context.Context, blockID string) ([]*domain.Allocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var allocations []*domain.Allocation
	for _, allocation := range m.rows {
		if allocation.BlockID == blockID {
			clone := *allocation
			allocations = append(allocations, &clone)
		}
	}
	sort.Slice(allocations, func(i, j int) bool { return allocations[i].AccountID < allocations[j].AccountID })
	return allocations, nil
}

type publishedEvent struct {
	Topic string
	Key   string
	Event any
}

type memPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *memPublisher) Publish(_ context.Context, topic string, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

func (p *memPublisher) byTopic(topic string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}

func (p *memPublisher) envelopes(eventType string) []*domain.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*domain.Envelope
	for _, e := range p.events {
		if env, ok := e.Event.(*domain.Envelope); ok && env.EventType == eventType {
			out = append(out, env)
		}
	}
	return out
}
