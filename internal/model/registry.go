package model

// AllModels returns every model that needs a table.
// New tables only need to be added here, not in main.go.
func AllModels() []interface{} {
	return []interface{}{
		&SettlementAttempt{},
		&SaleRecord{},
		&CollectedNFT{},
		&OutboxMessage{},
	}
}
