package service

import (
	"fmt"
	"math/big"
	"strings"

	"gallery-core/pkg/crypto_util"
)

// Fingerprint derives the idempotency key for a collect request. The amount
// goes in as base units so "10", "10.0" and "10.000000" fingerprint the same.
func Fingerprint(artworkID, collectorAddress string, totalBaseUnits *big.Int) string {
	payload := fmt.Sprintf("%s|%s|%s", artworkID, strings.ToLower(collectorAddress), totalBaseUnits.String())
	return crypto_util.CalculateBlake3([]byte(payload))
}
