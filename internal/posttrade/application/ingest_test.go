package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/posttrade/internal/posttrade/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type ingestFixture struct {
	instruments *memInstruments
	orders      *memOrders
	executions  *memExecutions
	blocks      *memBlocks
	publisher   *memPublisher
	svc         *IngestService
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	f := &ingestFixture{
		instruments: newMemInstruments(),
		orders:      newMemOrders(),
		executions:  newMemExecutions(),
		blocks:      newMemBlocks(),
		publisher:   &memPublisher{},
	}
	runtime := NewRuntime(memStore{}, time.Minute, testLogger())
	f.svc = NewIngestService(runtime, f.instruments, f.orders, f.executions, f.blocks,
		f.publisher, domain.DefaultCurrencyScales(), testLogger())

	require.NoError(t, f.instruments.Save(context.Background(), &domain.Instrument{
		InstrumentID: "AAPL", ISIN: "US0378331005", Currency: "USD", SecurityType: domain.SecurityTypeEquity,
	}))
	require.NoError(t, f.orders.Save(context.Background(), &domain.Order{
		OrderID: "ORD1", AccountID: "ACC1", InstrumentID: "AAPL", Side: domain.SideBuy, Qty: d("200"),
	}))
	return f
}

func feedMsg(execID, qty, price string) ExecutionFeedMessage {
	return ExecutionFeedMessage{
		ExecID:       execID,
		OrderID:      "ORD1",
		InstrumentID: "AAPL",
		Qty:          d(qty),
		Price:        d(price),
		TradeDate:    "20240115",
		Venue:        "XNAS",
	}
}

func TestProcessExecutionRejectsInvalidInput(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	err := f.svc.ProcessExecution(ctx, feedMsg("E1", "0", "10"))
	assert.ErrorIs(t, err, ErrValidation)

	err = f.svc.ProcessExecution(ctx, feedMsg("E1", "-5", "10"))
	assert.ErrorIs(t, err, ErrValidation)

	err = f.svc.ProcessExecution(ctx, feedMsg("E1", "10", "0"))
	assert.ErrorIs(t, err, ErrValidation)

	bad := feedMsg("E1", "10", "10")
	bad.TradeDate = "2024-01-15"
	err = f.svc.ProcessExecution(ctx, bad)
	assert.ErrorIs(t, err, ErrValidation)

	// 校验失败不得推进任何状态
	_, err = f.executions.Get(ctx, "E1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.publisher.events)
}

func TestProcessExecutionBuildsBlock(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.ProcessExecution(ctx, feedMsg("E1", "100", "10.10")))
	require.NoError(t, f.svc.ProcessExecution(ctx, feedMsg("E2", "50", "11.00")))

	blockID := domain.NewBlockID("AAPL", domain.SideBuy, "20240115")
	block, err := f.blocks.Get(ctx, blockID)
	require.NoError(t, err)

	assert.Equal(t, domain.BlockStatusReadyToAllocate, block.Status)
	assert.True(t, block.GrossQty.Equal(d("150")), "gross = %s", block.GrossQty)
	assert.True(t, block.AvgPrice.Equal(d("10.40")), "avg = %s", block.AvgPrice)

	assert.Len(t, f.publisher.envelopes(domain.EventExecutionReceived), 2)
	assert.Len(t, f.publisher.envelopes(domain.EventBlockReady), 2)
}

func TestProcessExecutionReplayConverges(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	msg := feedMsg("E1", "100", "10.10")
	require.NoError(t, f.svc.ProcessExecution(ctx, msg))
	require.NoError(t, f.svc.ProcessExecution(ctx, msg))

	blockID := domain.NewBlockID("AAPL", domain.SideBuy, "20240115")
	block, err := f.blocks.Get(ctx, blockID)
	require.NoError(t, err)

	// 重放不叠加数量
	assert.True(t, block.GrossQty.Equal(d("100")), "gross = %s", block.GrossQty)
}

func TestProcessExecutionMissingOrderIsFatal(t *testing.T) {
	f := newIngestFixture(t)
	msg := feedMsg("E1", "100", "10.10")
	msg.OrderID = "ORD-MISSING"

	err := f.svc.ProcessExecution(context.Background(), msg)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestProcessExecutionMissingInstrumentIsFatal(t *testing.T) {
	f := newIngestFixture(t)
	require.NoError(t, f.orders.Save(context.Background(), &domain.Order{
		OrderID: "ORD2", AccountID: "ACC1", InstrumentID: "GHOST", Side: domain.SideBuy, Qty: d("10"),
	}))
	msg := feedMsg("E1", "100", "10.10")
	msg.OrderID = "ORD2"
	msg.InstrumentID = "GHOST"

	err := f.svc.ProcessExecution(context.Background(), msg)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestProcessExecutionRebuildsBustedGroup(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.ProcessExecution(ctx, feedMsg("E1", "100", "10.10")))

	blockID := domain.NewBlockID("AAPL", domain.SideBuy, "20240115")
	require.NoError(t, f.blocks.UpdateStatus(ctx, blockID, domain.BlockStatusBusted))

	// 冲正后的新成交落在确定性同一 blockID 上，桶被重新聚合并复活
	require.NoError(t, f.svc.ProcessExecution(ctx, feedMsg("E3", "30", "12.00")))

	block, err := f.blocks.Get(ctx, blockID)
	require.NoError(t, err)
	assert.Equal(t, domain.BlockStatusReadyToAllocate, block.Status)
	assert.True(t, block.GrossQty.Equal(d("130")), "gross = %s", block.GrossQty)
}
