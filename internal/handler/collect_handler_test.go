package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"gallery-core/internal/chain"
	"gallery-core/internal/model"
	"gallery-core/internal/service"
)

var (
	hToken     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	hFactory   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	hTreasury  = common.HexToAddress("0x3333333333333333333333333333333333333333")
	hCollector = common.HexToAddress("0x4444444444444444444444444444444444444444")
	hArtist    = common.HexToAddress("0x5555555555555555555555555555555555555555")
	hSigner    = common.HexToAddress("0x6666666666666666666666666666666666666666")
	hMinted    = common.HexToAddress("0x7777777777777777777777777777777777777777")
)

// httpFakeChain is the handler-level stand-in for gateway and signer queue.
type httpFakeChain struct {
	mu        sync.Mutex
	balance   *big.Int
	allowance *big.Int
	count     int
	mints     map[common.Hash]bool
}

func (f *httpFakeChain) ERC20BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	return new(big.Int).Set(f.balance), nil
}

func (f *httpFakeChain) ERC20Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	return new(big.Int).Set(f.allowance), nil
}

func (f *httpFakeChain) From() common.Address { return hSigner }

func (f *httpFakeChain) Enqueue(ctx context.Context, req chain.TxRequest) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	hash := common.BigToHash(big.NewInt(int64(f.count)))
	if req.To == hFactory {
		f.mints[hash] = true
	}
	return hash, nil
}

func (f *httpFakeChain) Receipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return f.WaitMined(ctx, txHash)
}

func (f *httpFakeChain) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	receipt := &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: txHash}
	if f.mints[txHash] {
		eventID := crypto.Keccak256Hash([]byte("CollectionCreated(address,address,address,uint256)"))
		receipt.Logs = []*types.Log{{
			Address: hFactory,
			Topics: []common.Hash{
				eventID,
				common.BytesToHash(common.LeftPadBytes(hMinted.Bytes(), 32)),
				common.BytesToHash(common.LeftPadBytes(hArtist.Bytes(), 32)),
			},
			Data: append(
				common.LeftPadBytes(hCollector.Bytes(), 32),
				common.LeftPadBytes(big.NewInt(1).Bytes(), 32)...,
			),
		}}
	}
	return receipt, nil
}

type noopLock struct{}

func (noopLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return true, nil
}
func (noopLock) Release(ctx context.Context, key string) error { return nil }

func newTestRouter(t *testing.T, fc *httpFakeChain) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.AllModels()...))

	orch := service.NewSettlementOrchestrator(
		db,
		service.NewPaymentValidator(fc, hToken),
		fc,
		fc,
		service.NewMintExecutor(fc, fc, hFactory, 250),
		service.NewLedgerRecorder(db),
		noopLock{},
		hToken,
		hTreasury,
		"base-sepolia",
	)

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/collect", NewCollectHandler(orch).Collect)
	api.GET("/settlements/:fingerprint", NewSettlementHandler(db).GetAttempt)
	return r, db
}

func collectBody(amount string) []byte {
	body := map[string]interface{}{
		"artworkId":        "art-9",
		"collectorAddress": hCollector.Hex(),
		"artistAddress":    hArtist.Hex(),
		"amountUSDC":       amount,
		"metadata": map[string]string{
			"name":      "Tide Lines",
			"imageHash": "QmTide",
		},
	}
	raw, _ := json.Marshal(body)
	return raw
}

func doRequest(r *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCollectEndpointSuccess(t *testing.T) {
	fc := &httpFakeChain{
		balance:   big.NewInt(20000000),
		allowance: big.NewInt(20000000),
		mints:     map[common.Hash]bool{},
	}
	r, _ := newTestRouter(t, fc)

	w := doRequest(r, http.MethodPost, "/api/v1/collect", collectBody("10"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			NFTID          uint64 `json:"nftId"`
			SaleID         uint64 `json:"saleId"`
			Collection     string `json:"collectionAddress"`
			TreasuryAmount string `json:"treasuryAmount"`
			ArtistAmount   string `json:"artistAmount"`
			AmountPaid     string `json:"amountPaid"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.NotZero(t, resp.Data.SaleID)
	assert.NotZero(t, resp.Data.NFTID)
	assert.Equal(t, hMinted.Hex(), resp.Data.Collection)
	assert.Equal(t, "10", resp.Data.AmountPaid)
	assert.Equal(t, "0.5", resp.Data.TreasuryAmount)
	assert.Equal(t, "9.5", resp.Data.ArtistAmount)
}

func TestCollectEndpointNeedsApproval(t *testing.T) {
	fc := &httpFakeChain{
		balance:   big.NewInt(20000000),
		allowance: big.NewInt(5000000),
		mints:     map[common.Hash]bool{},
	}
	r, _ := newTestRouter(t, fc)

	w := doRequest(r, http.MethodPost, "/api/v1/collect", collectBody("10"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Success       bool `json:"success"`
		NeedsApproval bool `json:"needsApproval"`
		ApprovalData  struct {
			TokenAddress string `json:"tokenAddress"`
			Spender      string `json:"spender"`
			Amount       string `json:"amount"`
		} `json:"approvalData"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.False(t, resp.Success)
	assert.True(t, resp.NeedsApproval)
	assert.Equal(t, hToken.Hex(), resp.ApprovalData.TokenAddress)
	assert.Equal(t, hSigner.Hex(), resp.ApprovalData.Spender)
	assert.Equal(t, "10000000", resp.ApprovalData.Amount)

	assert.Zero(t, fc.count, "no transaction may be submitted on insufficient allowance")
}

func TestCollectEndpointBelowMinimum(t *testing.T) {
	fc := &httpFakeChain{
		balance:   big.NewInt(20000000),
		allowance: big.NewInt(20000000),
		mints:     map[common.Hash]bool{},
	}
	r, _ := newTestRouter(t, fc)

	w := doRequest(r, http.MethodPost, "/api/v1/collect", collectBody("0.5"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, fc.count)
}

func TestCollectEndpointBadBody(t *testing.T) {
	fc := &httpFakeChain{
		balance:   big.NewInt(20000000),
		allowance: big.NewInt(20000000),
		mints:     map[common.Hash]bool{},
	}
	r, _ := newTestRouter(t, fc)

	w := doRequest(r, http.MethodPost, "/api/v1/collect", []byte(`{"artworkId":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettlementEndpoint(t *testing.T) {
	fc := &httpFakeChain{
		balance:   big.NewInt(20000000),
		allowance: big.NewInt(20000000),
		mints:     map[common.Hash]bool{},
	}
	r, db := newTestRouter(t, fc)

	w := doRequest(r, http.MethodPost, "/api/v1/collect", collectBody("10"))
	require.Equal(t, http.StatusOK, w.Code)

	var attempt model.SettlementAttempt
	require.NoError(t, db.First(&attempt).Error)

	w = doRequest(r, http.MethodGet, "/api/v1/settlements/"+attempt.Fingerprint, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Status    string `json:"status"`
			ArtworkID string `json:"artworkId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, model.StatusComplete, resp.Data.Status)
	assert.Equal(t, "art-9", resp.Data.ArtworkID)

	w = doRequest(r, http.MethodGet, "/api/v1/settlements/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
