package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/posttrade/internal/posttrade/domain"
)

type settleFixture struct {
	instruments *memInstruments
	blocks      *memBlocks
	publisher   *memPublisher
	runtime     *Runtime
	svc         *SettlementService
}

func newSettleFixture(t *testing.T) *settleFixture {
	t.Helper()
	f := &settleFixture{
		instruments: newMemInstruments(),
		blocks:      newMemBlocks(),
		publisher:   &memPublisher{},
	}
	f.runtime = NewRuntime(memStore{}, time.Minute, testLogger())
	f.svc = NewSettlementService(f.runtime, f.blocks, f.instruments, f.publisher,
		domain.TradingCalendar{}, 2, domain.DefaultCurrencyScales(), testLogger())

	require.NoError(t, f.instruments.Save(context.Background(), &domain.Instrument{
		InstrumentID: "AAPL", ISIN: "US0378331005", Currency: "USD", SecurityType: domain.SecurityTypeEquity,
	}))
	require.NoError(t, f.blocks.Upsert(context.Background(), &domain.BlockTrade{
		BlockID:      "BLK-test",
		InstrumentID: "AAPL",
		Side:         domain.SideBuy,
		TradeDate:    "20240112",
		GrossQty:     d("100"),
		AvgPrice:     d("10.40"),
		Status:       domain.BlockStatusAllocated,
	}))
	return f
}

func TestHandleAllocationCreatedEmitsInstruction(t *testing.T) {
	f := newSettleFixture(t)
	alloc := &domain.Allocation{
		AllocID:    domain.NewAllocationID("BLK-test", "ACC1"),
		BlockID:    "BLK-test",
		AccountID:  "ACC1",
		AllocQty:   d("34"),
		AllocPrice: d("10.40"),
	}

	require.NoError(t, f.svc.HandleAllocationCreated(context.Background(), alloc))

	outcalls := f.publisher.byTopic(domain.TopicSettlementOutcall)
	require.Len(t, outcalls, 1)

	instruction, ok := outcalls[0].Event.(*domain.SettlementInstruction)
	require.True(t, ok)
	assert.Equal(t, domain.NewSettlementID(alloc.AllocID), instruction.SettleID)
	assert.Equal(t, outcalls[0].Key, instruction.SettleID)
	assert.Equal(t, "US0378331005", instruction.ISIN)
	assert.Equal(t, "USD", instruction.Currency)
	assert.Equal(t, "20240116", instruction.SettleDate)
	assert.Equal(t, domain.SettlementMethodDVP, instruction.Method)
	assert.True(t, instruction.CashAmount.Equal(d("353.60")), "cash = %s", instruction.CashAmount)
}

func TestHandleAllocationCreatedReplayProducesSameInstruction(t *testing.T) {
	f := newSettleFixture(t)
	alloc := &domain.Allocation{
		AllocID:    domain.NewAllocationID("BLK-test", "ACC1"),
		BlockID:    "BLK-test",
		AccountID:  "ACC1",
		AllocQty:   d("34"),
		AllocPrice: d("10.40"),
	}

	require.NoError(t, f.svc.HandleAllocationCreated(context.Background(), alloc))
	require.NoError(t, f.svc.HandleAllocationCreated(context.Background(), alloc))

	outcalls := f.publisher.byTopic(domain.TopicSettlementOutcall)
	require.Len(t, outcalls, 2)

	first, _ := json.Marshal(outcalls[0].Event)
	second, _ := json.Marshal(outcalls[1].Event)
	assert.JSONEq(t, string(first), string(second))
}

func TestHandleAllocationCreatedMissingBlock(t *testing.T) {
	f := newSettleFixture(t)
	alloc := &domain.Allocation{AllocID: "ALC-x", BlockID: "BLK-missing", AccountID: "ACC1"}

	err := f.svc.HandleAllocationCreated(context.Background(), alloc)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
