package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// 标识符均为输入的纯函数：同一自然键重算得到同一 ID，
// 重放时 create 退化为幂等 upsert，无需全局发号服务。

func contentID(prefix string, parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte("|"))
		}
		h.Write([]byte(p))
	}
	return prefix + hex.EncodeToString(h.Sum(nil))[:20]
}

// NewBlockID 大宗单 ID，自然键为 (instrument, side, tradeDate)。
func NewBlockID(instrumentID string, side Side, tradeDate string) string {
	return contentID("BLK", instrumentID, side.String(), tradeDate)
}

// NewAllocationID 分配 ID，自然键为 (block, account)。
func NewAllocationID(blockID, accountID string) string {
	return contentID("ALC", blockID, accountID)
}

// NewSettlementID 结算指令 ID，自然键为分配 ID。
func NewSettlementID(allocID string) string {
	return contentID("STL", allocID)
}
