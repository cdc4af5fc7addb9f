package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/pkg/logging"

	"github.com/wyfcoding/posttrade/internal/posttrade/domain"
)

// AllocationCreatedHandler 分配创建通知处理函数
type AllocationCreatedHandler func(ctx context.Context, alloc *domain.Allocation) error

// ExecutionUpdatedHandler 成交更新通知处理函数
type ExecutionUpdatedHandler func(ctx context.Context, exec *domain.Execution) error

// Runtime 规则运行时。
// 每条规则在一个事务括号内执行：存储读写与出箱写入原子提交，
// 提交成功后按登记顺序派发变更通知，通知处理失败会向上传导，
// 由入站消费侧通过不提交位点来触发重投。
type Runtime struct {
	store       domain.Store
	logger      *logging.Logger
	ruleTimeout time.Duration

	onAllocationCreated []AllocationCreatedHandler
	onExecutionUpdated  []ExecutionUpdatedHandler
}

// NewRuntime 创建规则运行时。ruleTimeout 为单条规则的墙钟上限。
func NewRuntime(store domain.Store, ruleTimeout time.Duration, logger *logging.Logger) *Runtime {
	if ruleTimeout <= 0 {
		ruleTimeout = 60 * time.Second
	}
	return &Runtime{
		store:       store,
		logger:      logger,
		ruleTimeout: ruleTimeout,
	}
}

// OnAllocationCreated 注册分配创建通知处理器
func (r *Runtime) OnAllocationCreated(h AllocationCreatedHandler) {
	r.onAllocationCreated = append(r.onAllocationCreated, h)
}

// OnExecutionUpdated 注册成交更新通知处理器
func (r *Runtime) OnExecutionUpdated(h ExecutionUpdatedHandler) {
	r.onExecutionUpdated = append(r.onExecutionUpdated, h)
}

// Execute 在事务括号内执行一条规则，提交后派发变更通知。
func (r *Runtime) Execute(ctx context.Context, rule string, fn func(txCtx context.Context, changes *domain.ChangeSet) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.ruleTimeout)
	defer cancel()

	changes := domain.NewChangeSet()
	if err := r.store.WithinTx(ctx, func(txCtx context.Context) error {
		return fn(txCtx, changes)
	}); err != nil {
		return fmt.Errorf("rule %s: %w", rule, err)
	}

	return r.dispatch(ctx, rule, changes)
}

// dispatch 派发已提交的变更通知。通知处理各自再开事务。
func (r *Runtime) dispatch(ctx context.Context, rule string, changes *domain.ChangeSet) error {
	for _, alloc := range changes.AllocationsCreated() {
		for _, h := range r.onAllocationCreated {
			if err := h(ctx, alloc); err != nil {
				r.logger.ErrorContext(ctx, "allocation-created handler failed",
					"rule", rule, "alloc_id", alloc.AllocID, "error", err)
				return err
			}
		}
	}
	for _, exec := range changes.ExecutionsUpdated() {
		for _, h := range r.onExecutionUpdated {
			if err := h(ctx, exec); err != nil {
				r.logger.ErrorContext(ctx, "execution-updated handler failed",
					"rule", rule, "exec_id", exec.ExecID, "error", err)
				return err
			}
		}
	}
	return nil
}
