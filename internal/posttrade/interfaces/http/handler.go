// Package http 运维与查询面的 HTTP 接口。
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/posttrade/internal/posttrade/application"
	"github.com/wyfcoding/posttrade/internal/posttrade/domain"
)

// PostTradeHandler 盘后处理 HTTP 处理器
type PostTradeHandler struct {
	ops *application.OpsService
}

// NewPostTradeHandler 创建 HTTP 处理器实例
func NewPostTradeHandler(ops *application.OpsService) *PostTradeHandler {
	return &PostTradeHandler{ops: ops}
}

// RegisterRoutes 注册路由
func (h *PostTradeHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/posttrade")
	{
		api.POST("/instruments", h.UpsertInstrument)
		api.POST("/orders", h.UpsertOrder)
		api.GET("/blocks/:id", h.GetBlock)
		api.GET("/blocks/:id/allocations", h.ListAllocations)
		api.GET("/executions/:id", h.GetExecution)
		api.POST("/executions/:id/bust", h.BustExecution)
	}
}

type upsertInstrumentRequest struct {
	InstrumentID string `json:"instrumentId" binding:"required"`
	SecurityType int8   `json:"securityType" binding:"required"`
	ISIN         string `json:"isin"`
	Currency     string `json:"currency" binding:"required,len=3"`
	Venue        string `json:"venue"`
}

// UpsertInstrument 登记金融工具
func (h *PostTradeHandler) UpsertInstrument(c *gin.Context) {
	var req upsertInstrumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	instrument := &domain.Instrument{
		InstrumentID: req.InstrumentID,
		SecurityType: domain.SecurityType(req.SecurityType),
		ISIN:         req.ISIN,
		Currency:     req.Currency,
		Venue:        req.Venue,
	}
	if err := h.ops.SaveInstrument(c.Request.Context(), instrument); err != nil {
		logging.Error(c.Request.Context(), "failed to save instrument", "instrument_id", req.InstrumentID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, instrument)
}

type upsertOrderRequest struct {
	OrderID      string          `json:"orderId" binding:"required"`
	AccountID    string          `json:"accountId" binding:"required"`
	InstrumentID string          `json:"instrumentId" binding:"required"`
	Side         int8            `json:"side" binding:"required,oneof=1 2"`
	Qty          decimal.Decimal `json:"qty"`
	Trader       string          `json:"trader"`
}

// UpsertOrder 登记委托
func (h *PostTradeHandler) UpsertOrder(c *gin.Context) {
	var req upsertOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if !req.Qty.IsPositive() {
		response.ErrorWithStatus(c, http.StatusBadRequest, "qty must be positive", "")
		return
	}

	order := &domain.Order{
		OrderID:      req.OrderID,
		AccountID:    req.AccountID,
		InstrumentID: req.InstrumentID,
		Side:         domain.Side(req.Side),
		Qty:          req.Qty,
		Trader:       req.Trader,
	}
	if err := h.ops.SaveOrder(c.Request.Context(), order); err != nil {
		logging.Error(c.Request.Context(), "failed to save order", "order_id", req.OrderID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, order)
}

// GetBlock 查询大宗单
func (h *PostTradeHandler) GetBlock(c *gin.Context) {
	blockID := c.Param("id")
	block, err := h.ops.GetBlock(c.Request.Context(), blockID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, "block not found", "")
			return
		}
		logging.Error(c.Request.Context(), "failed to get block", "block_id", blockID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, block)
}

// ListAllocations 查询大宗单下的分配
func (h *PostTradeHandler) ListAllocations(c *gin.Context) {
	blockID := c.Param("id")
	allocations, err := h.ops.ListAllocations(c.Request.Context(), blockID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, "block not found", "")
			return
		}
		logging.Error(c.Request.Context(), "failed to list allocations", "block_id", blockID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, allocations)
}

// GetExecution 查询成交
func (h *PostTradeHandler) GetExecution(c *gin.Context) {
	execID := c.Param("id")
	execution, err := h.ops.GetExecution(c.Request.Context(), execID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, "execution not found", "")
			return
		}
		logging.Error(c.Request.Context(), "failed to get execution", "exec_id", execID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, execution)
}

// BustExecution 人工冲正一笔成交
func (h *PostTradeHandler) BustExecution(c *gin.Context) {
	execID := c.Param("id")
	if err := h.ops.BustExecution(c.Request.Context(), execID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, "execution not found", "")
			return
		}
		logging.Error(c.Request.Context(), "failed to bust execution", "exec_id", execID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"execId": execID, "busted": true})
}
