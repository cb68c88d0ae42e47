package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gallery-core/pkg/errno"
)

// Response defines the standard JSON structure
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ApprovalResponse tells the client which approve() call to make before
// retrying. The server never moves funds for such a request.
type ApprovalResponse struct {
	Success       bool        `json:"success"`
	NeedsApproval bool        `json:"needsApproval"`
	Message       string      `json:"message"`
	ApprovalData  interface{} `json:"approvalData"`
}

// Success returns a success response with data
func Success(c *gin.Context, data interface{}) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// Error returns an error response with an HTTP status derived from the code
func Error(c *gin.Context, err error) {
	code, msg := errno.Decode(err)
	c.JSON(httpStatus(code), Response{
		Success: false,
		Message: msg,
	})
}

// NeedsApproval returns the approval instruction for an allowance shortfall
func NeedsApproval(c *gin.Context, approvalData interface{}) {
	c.JSON(http.StatusBadRequest, ApprovalResponse{
		Success:       false,
		NeedsApproval: true,
		Message:       errno.ErrInsufficientAllowance.Message,
		ApprovalData:  approvalData,
	})
}

func httpStatus(code int) int {
	switch code {
	case errno.OK.Code:
		return http.StatusOK
	case errno.ErrBind.Code,
		errno.ErrInvalidCollectRequest.Code,
		errno.ErrAmountBelowMinimum.Code,
		errno.ErrInsufficientBalance.Code,
		errno.ErrInsufficientAllowance.Code:
		return http.StatusBadRequest
	case errno.ErrSettlementInProgress.Code:
		return http.StatusConflict
	case errno.ErrAttemptNotFound.Code:
		return http.StatusNotFound
	case errno.ErrChainSubmission.Code:
		return http.StatusBadGateway
	case errno.ErrConfirmationTimeout.Code:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
