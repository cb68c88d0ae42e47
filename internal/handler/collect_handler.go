package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gallery-core/internal/chain"
	"gallery-core/internal/handler/request"
	"gallery-core/internal/handler/response"
	"gallery-core/internal/service"
	"gallery-core/pkg/errno"
	"gallery-core/pkg/logger"
)

type CollectHandler struct {
	orchestrator *service.SettlementOrchestrator
}

func NewCollectHandler(orchestrator *service.SettlementOrchestrator) *CollectHandler {
	return &CollectHandler{orchestrator: orchestrator}
}

// Collect runs the whole collect-and-settle saga for one purchase and blocks
// until it completes or fails.
func (h *CollectHandler) Collect(c *gin.Context) {
	// 1. Bind params
	var req request.CollectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind)
		return
	}

	// 2. Build the domain request
	domainReq := &service.CollectRequest{
		ArtworkID:        req.ArtworkID,
		CollectorAddress: req.CollectorAddress,
		ArtistAddress:    req.ArtistAddress,
		AmountUSDC:       req.AmountUSDC,
		Metadata: service.ArtworkMetadata{
			Name:         req.Metadata.Name,
			Description:  req.Metadata.Description,
			ImageHash:    req.Metadata.ImageHash,
			MetadataHash: req.Metadata.MetadataHash,
			ArtistName:   req.Metadata.ArtistName,
		},
	}
	if err := domainReq.Validate(); err != nil {
		if errors.Is(err, service.ErrBelowMinimum) {
			response.Error(c, errno.ErrAmountBelowMinimum)
		} else {
			response.Error(c, errno.ErrInvalidCollectRequest)
		}
		return
	}

	// 3. Settle
	result, err := h.orchestrator.Settle(c.Request.Context(), domainReq)
	if err != nil {
		h.settleError(c, err)
		return
	}

	response.Success(c, result)
}

// settleError maps saga failures to the API error contract.
func (h *CollectHandler) settleError(c *gin.Context, err error) {
	var allowanceErr *service.InsufficientAllowanceError
	if errors.As(err, &allowanceErr) {
		response.NeedsApproval(c, allowanceErr.Approval)
		return
	}

	var balanceErr *service.InsufficientBalanceError
	if errors.As(err, &balanceErr) {
		response.Error(c, errno.ErrInsufficientBalance)
		return
	}

	var partialErr *service.PartialSettlementError
	if errors.As(err, &partialErr) {
		logger.Error("collect ended in partial settlement",
			zap.String("fingerprint", partialErr.Fingerprint),
			zap.String("step", partialErr.Step),
			zap.Error(partialErr.Err))
		response.Error(c, errno.ErrPartialSettlement)
		return
	}

	switch {
	case errors.Is(err, service.ErrSettlementInProgress):
		response.Error(c, errno.ErrSettlementInProgress)
	case errors.Is(err, service.ErrBelowMinimum):
		response.Error(c, errno.ErrAmountBelowMinimum)
	case errors.Is(err, service.ErrChainSubmission):
		response.Error(c, errno.ErrChainSubmission)
	case errors.Is(err, chain.ErrConfirmationTimeout):
		response.Error(c, errno.ErrConfirmationTimeout)
	default:
		logger.Error("collect failed", zap.Error(err))
		response.Error(c, errno.InternalServerError)
	}
}
