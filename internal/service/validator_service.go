package service

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ChainReader is the read-only chain surface the validator needs.
type ChainReader interface {
	ERC20BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
	ERC20Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
}

// PaymentValidator checks funds and authorization before anything is
// broadcast. Purely read-only; it exists so the service never attempts a
// transfer it knows will revert.
type PaymentValidator struct {
	reader ChainReader
	token  common.Address
}

func NewPaymentValidator(reader ChainReader, token common.Address) *PaymentValidator {
	return &PaymentValidator{
		reader: reader,
		token:  token,
	}
}

// Validate confirms the collector holds totalBaseUnits and has approved the
// signer to move them. Failures are typed so the handler can answer with a
// shortfall or an approval instruction.
func (v *PaymentValidator) Validate(ctx context.Context, collector, spender common.Address, totalBaseUnits *big.Int) error {
	balance, err := v.reader.ERC20BalanceOf(ctx, v.token, collector)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	if balance.Cmp(totalBaseUnits) < 0 {
		return &InsufficientBalanceError{
			Balance:  balance,
			Required: new(big.Int).Set(totalBaseUnits),
		}
	}

	allowance, err := v.reader.ERC20Allowance(ctx, v.token, collector, spender)
	if err != nil {
		return fmt.Errorf("read allowance: %w", err)
	}
	if allowance.Cmp(totalBaseUnits) < 0 {
		return &InsufficientAllowanceError{
			Allowance: allowance,
			Required:  new(big.Int).Set(totalBaseUnits),
			Approval: ApprovalInstruction{
				TokenAddress: v.token.Hex(),
				Spender:      spender.Hex(),
				Amount:       new(big.Int).Set(totalBaseUnits),
			},
		}
	}

	return nil
}
