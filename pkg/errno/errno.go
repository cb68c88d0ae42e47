package errno

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	switch typed := err.(type) {
	case *Errno:
		return typed.Code, typed.Message
	case Errno:
		return typed.Code, typed.Message
	default:
		return InternalServerError.Code, err.Error()
	}
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
	ErrDatabase         = Errno{Code: 10003, Message: "Database error"}
)

// Business Errors (20000+)
var (
	ErrInvalidCollectRequest  = Errno{Code: 20101, Message: "Invalid collect request"}
	ErrAmountBelowMinimum     = Errno{Code: 20102, Message: "Amount is below the 1 USDC minimum"}
	ErrInsufficientBalance    = Errno{Code: 20201, Message: "Insufficient USDC balance"}
	ErrInsufficientAllowance  = Errno{Code: 20202, Message: "Insufficient USDC allowance"}
	ErrSettlementInProgress   = Errno{Code: 20301, Message: "A settlement for this request is already in progress"}
	ErrChainSubmission        = Errno{Code: 20302, Message: "Failed to submit transaction to the chain"}
	ErrConfirmationTimeout    = Errno{Code: 20303, Message: "Timed out waiting for transaction confirmation"}
	ErrPartialSettlement      = Errno{Code: 20304, Message: "Settlement partially completed; funds are in motion"}
	ErrAttemptNotFound        = Errno{Code: 20401, Message: "Settlement attempt not found"}
)
