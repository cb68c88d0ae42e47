package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gallery-core/internal/handler/response"
	"gallery-core/internal/model"
	"gallery-core/pkg/errno"
)

type SettlementHandler struct {
	db *gorm.DB
}

func NewSettlementHandler(db *gorm.DB) *SettlementHandler {
	return &SettlementHandler{db: db}
}

// attemptView is the read-only projection of a settlement attempt. Operators
// use it to find out where a stuck settlement stopped.
type attemptView struct {
	Fingerprint       string `json:"fingerprint"`
	ArtworkID         string `json:"artworkId"`
	CollectorAddress  string `json:"collectorAddress"`
	ArtistAddress     string `json:"artistAddress"`
	AmountPaid        string `json:"amountPaid"`
	Status            string `json:"status"`
	TreasuryTxHash    string `json:"treasuryTxHash,omitempty"`
	ArtistTxHash      string `json:"artistTxHash,omitempty"`
	MintTxHash        string `json:"mintTxHash,omitempty"`
	CollectionAddress string `json:"collectionAddress,omitempty"`
	LastError         string `json:"lastError,omitempty"`
	Network           string `json:"network"`
}

// GetAttempt returns the recorded state of one settlement attempt.
func (h *SettlementHandler) GetAttempt(c *gin.Context) {
	fingerprint := c.Param("fingerprint")
	if fingerprint == "" {
		response.Error(c, errno.ErrBind)
		return
	}

	var attempt model.SettlementAttempt
	if err := h.db.Where("fingerprint = ?", fingerprint).First(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, errno.ErrAttemptNotFound)
		} else {
			response.Error(c, errno.ErrDatabase)
		}
		return
	}

	response.Success(c, attemptView{
		Fingerprint:       attempt.Fingerprint,
		ArtworkID:         attempt.ArtworkID,
		CollectorAddress:  attempt.CollectorAddress,
		ArtistAddress:     attempt.ArtistAddress,
		AmountPaid:        attempt.AmountUSDC.String(),
		Status:            attempt.Status,
		TreasuryTxHash:    attempt.TreasuryTxHash,
		ArtistTxHash:      attempt.ArtistTxHash,
		MintTxHash:        attempt.MintTxHash,
		CollectionAddress: attempt.MintedCollection,
		LastError:         attempt.LastError,
		Network:           attempt.Network,
	})
}
