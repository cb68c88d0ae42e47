package request

import "github.com/shopspring/decimal"

type ArtworkMetadata struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	ImageHash    string `json:"imageHash" binding:"required"`
	MetadataHash string `json:"metadataHash"`
	ArtistName   string `json:"artistName"`
}

type CollectRequest struct {
	ArtworkID        string          `json:"artworkId" binding:"required"`
	CollectorAddress string          `json:"collectorAddress" binding:"required"`
	ArtistAddress    string          `json:"artistAddress" binding:"required"`
	AmountUSDC       decimal.Decimal `json:"amountUSDC" binding:"required"`
	Metadata         ArtworkMetadata `json:"metadata" binding:"required"`
}
