package service

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrChainSubmission marks a failure before broadcast. Nothing changed
// on-chain or in the attempt record, so the request is safe to retry as-is.
var ErrChainSubmission = errors.New("chain submission failed")

// InsufficientBalanceError carries both numbers so the client can show the
// exact shortfall.
type InsufficientBalanceError struct {
	Balance  *big.Int
	Required *big.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %s, need %s base units", e.Balance, e.Required)
}

// ApprovalInstruction is returned instead of attempting a transfer that is
// known to revert. The client can submit it directly.
type ApprovalInstruction struct {
	TokenAddress string   `json:"tokenAddress"`
	Spender      string   `json:"spender"`
	Amount       *big.Int `json:"amount"`
}

// InsufficientAllowanceError means the collector has not (or not fully)
// authorized the platform signer to move the funds.
type InsufficientAllowanceError struct {
	Allowance *big.Int
	Required  *big.Int
	Approval  ApprovalInstruction
}

func (e *InsufficientAllowanceError) Error() string {
	return fmt.Sprintf("insufficient allowance: have %s, need %s base units", e.Allowance, e.Required)
}

// PartialSettlementError is the alarm-worthy case: an earlier money-moving
// step succeeded and a later step failed. Funds are in motion and work is
// still owed; the attempt record holds everything needed to resume.
type PartialSettlementError struct {
	Fingerprint string
	Step        string // the step that failed
	Err         error
}

func (e *PartialSettlementError) Error() string {
	return fmt.Sprintf("partial settlement at %s (fingerprint %s): %v", e.Step, e.Fingerprint, e.Err)
}

func (e *PartialSettlementError) Unwrap() error {
	return e.Err
}
