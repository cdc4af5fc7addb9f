package domain

// ChangeSet 收集单次规则事务内的变更通知。
// 通知在事务提交之后、且仅在提交成功时派发，每条已提交变更恰好派发一次。
type ChangeSet struct {
	allocationsCreated []*Allocation
	executionsUpdated  []*Execution
}

// NewChangeSet 创建空变更集
func NewChangeSet() *ChangeSet {
	return &ChangeSet{}
}

// AllocationCreated 登记分配创建通知
func (c *ChangeSet) AllocationCreated(a *Allocation) {
	c.allocationsCreated = append(c.allocationsCreated, a)
}

// ExecutionUpdated 登记成交更新通知
func (c *ChangeSet) ExecutionUpdated(e *Execution) {
	c.executionsUpdated = append(c.executionsUpdated, e)
}

// AllocationsCreated 已登记的分配创建通知
func (c *ChangeSet) AllocationsCreated() []*Allocation {
	return c.allocationsCreated
}

// ExecutionsUpdated 已登记的成交更新通知
func (c *ChangeSet) ExecutionsUpdated() []*Execution {
	return c.executionsUpdated
}
