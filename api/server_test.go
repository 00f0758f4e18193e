package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flipzy/transactions-backend/db"
	"github.com/flipzy/transactions-backend/services/catalog"
	"github.com/flipzy/transactions-backend/services/monitoring/logging"
	"github.com/flipzy/transactions-backend/services/monitoring/tasks"
	"github.com/flipzy/transactions-backend/services/notification"
	"github.com/flipzy/transactions-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *catalog.StaticCatalog) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logging.NewLogger()
	listings := catalog.NewStaticCatalog()
	server := &Server{
		router:    gin.New(),
		store:     db.NewMemoryStore(),
		config:    &utils.Config{ServerPort: 8080, SettlementDelayMS: 20},
		logger:    logger,
		scheduler: tasks.NewTaskScheduler(logger),
		publisher: notification.NewLogPublisher(logger),
		catalog:   listings,
	}
	t.Cleanup(server.scheduler.Stop)

	RegisterValidations()
	Wallet{}.router(server)
	Transaction{}.router(server)
	Operation{}.router(server)

	return server, listings
}

func doJSON(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}

	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	envelope := struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "successful", envelope.Status)
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

type walletPayload struct {
	ID      string            `json:"id"`
	UserID  string            `json:"user_id"`
	Balance string            `json:"balance"`
	Links   map[string]string `json:"_links"`
}

type transactionPayload struct {
	ID            string            `json:"id"`
	Status        string            `json:"status"`
	OrderType     string            `json:"order_type"`
	TitleSnapshot string            `json:"title_snapshot"`
	PriceSnapshot string            `json:"price_snapshot"`
	Links         map[string]string `json:"_links"`
}

type operationPayload struct {
	ID     string            `json:"id"`
	Status string            `json:"status"`
	Error  string            `json:"error,omitempty"`
	Links  map[string]string `json:"_links"`
}

func createFundedWallet(t *testing.T, server *Server, amount string) walletPayload {
	t.Helper()

	rec := doJSON(t, server, http.MethodPost, "/api/v1/wallets", gin.H{"user_id": uuid.NewString()})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created walletPayload
	decodeData(t, rec, &created)

	if amount != "" {
		rec = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/v1/wallets/%s/deposit", created.ID), gin.H{"amount": amount})
		require.Equal(t, http.StatusOK, rec.Code)
		decodeData(t, rec, &created)
	}
	return created
}

func TestCreateWalletEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	userID := uuid.NewString()
	rec := doJSON(t, server, http.MethodPost, "/api/v1/wallets", gin.H{"user_id": userID})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created walletPayload
	decodeData(t, rec, &created)
	require.Equal(t, userID, created.UserID)
	require.Equal(t, "0.00", created.Balance)
	require.Equal(t, "/api/v1/wallets/"+created.ID, rec.Header().Get("Location"))

	rec = doJSON(t, server, http.MethodPost, "/api/v1/wallets", gin.H{"user_id": userID})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/api/v1/wallets", gin.H{"user_id": "not-a-uuid"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetWalletConditionalRequest(t *testing.T) {
	server, _ := newTestServer(t)
	created := createFundedWallet(t, server, "")

	rec := doJSON(t, server, http.MethodGet, "/api/v1/wallets/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/"+created.ID, nil)
	req.Header.Set("If-None-Match", etag)
	unchanged := httptest.NewRecorder()
	server.router.ServeHTTP(unchanged, req)
	require.Equal(t, http.StatusNotModified, unchanged.Code)
	require.Empty(t, unchanged.Body.Bytes())

	// A deposit changes the balance, so the old validator must stop matching.
	rec = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/v1/wallets/%s/deposit", created.ID), gin.H{"amount": "10.00"})
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/wallets/"+created.ID, nil)
	req.Header.Set("If-None-Match", etag)
	changed := httptest.NewRecorder()
	server.router.ServeHTTP(changed, req)
	require.Equal(t, http.StatusOK, changed.Code)
	require.NotEqual(t, etag, changed.Header().Get("ETag"))
}

func TestDepositEndpointRejectsBadAmounts(t *testing.T) {
	server, _ := newTestServer(t)
	created := createFundedWallet(t, server, "")

	for _, amount := range []string{"-5.00", "0", "1.999", "abc"} {
		rec := doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/v1/wallets/%s/deposit", created.ID), gin.H{"amount": amount})
		require.Equal(t, http.StatusBadRequest, rec.Code, "amount %q", amount)
	}
}

func TestVirtualPurchaseEndToEnd(t *testing.T) {
	server, _ := newTestServer(t)
	buyer := createFundedWallet(t, server, "150.00")
	seller := createFundedWallet(t, server, "")

	rec := doJSON(t, server, http.MethodPost, "/api/v1/transactions", gin.H{
		"buyer_id":       buyer.UserID,
		"seller_id":      seller.UserID,
		"item_id":        uuid.NewString(),
		"order_type":     "VIRTUAL",
		"title_snapshot": "Gold Pass",
		"price_snapshot": "150.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created transactionPayload
	decodeData(t, rec, &created)
	require.Equal(t, "PAID", created.Status)
	require.Equal(t, "/api/v1/transactions/"+created.ID, rec.Header().Get("Location"))

	rec = doJSON(t, server, http.MethodGet, "/api/v1/wallets/"+buyer.ID, nil)
	var after walletPayload
	decodeData(t, rec, &after)
	require.Equal(t, "0.00", after.Balance)
}

func TestCreateTransactionSnapshotsFromCatalog(t *testing.T) {
	server, listings := newTestServer(t)
	buyer := createFundedWallet(t, server, "500.00")
	seller := createFundedWallet(t, server, "")

	itemID := uuid.New()
	listings.Add(catalog.Listing{ItemID: itemID, Title: "Steel Sword", Price: decimal.RequireFromString("350.00")})

	rec := doJSON(t, server, http.MethodPost, "/api/v1/transactions", gin.H{
		"buyer_id":   buyer.UserID,
		"seller_id":  seller.UserID,
		"item_id":    itemID.String(),
		"order_type": "REAL",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created transactionPayload
	decodeData(t, rec, &created)
	require.Equal(t, "PENDING", created.Status)
	require.Equal(t, "Steel Sword", created.TitleSnapshot)
	require.Equal(t, "350.00", created.PriceSnapshot)
}

func TestCreateTransactionRejections(t *testing.T) {
	server, _ := newTestServer(t)
	buyer := createFundedWallet(t, server, "")
	seller := createFundedWallet(t, server, "")

	tests := []struct {
		name string
		body gin.H
		code int
	}{
		{
			name: "same buyer and seller",
			body: gin.H{
				"buyer_id": buyer.UserID, "seller_id": buyer.UserID,
				"item_id": uuid.NewString(), "order_type": "VIRTUAL",
				"title_snapshot": "x", "price_snapshot": "1.00",
			},
			code: http.StatusConflict,
		},
		{
			name: "unknown order type",
			body: gin.H{
				"buyer_id": buyer.UserID, "seller_id": seller.UserID,
				"item_id": uuid.NewString(), "order_type": "MAGIC",
				"title_snapshot": "x", "price_snapshot": "1.00",
			},
			code: http.StatusBadRequest,
		},
		{
			name: "missing wallet",
			body: gin.H{
				"buyer_id": buyer.UserID, "seller_id": uuid.NewString(),
				"item_id": uuid.NewString(), "order_type": "VIRTUAL",
				"title_snapshot": "x", "price_snapshot": "1.00",
			},
			code: http.StatusBadRequest,
		},
		{
			name: "item not in catalog",
			body: gin.H{
				"buyer_id": buyer.UserID, "seller_id": seller.UserID,
				"item_id": uuid.NewString(), "order_type": "VIRTUAL",
			},
			code: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, server, http.MethodPost, "/api/v1/transactions", tc.body)
			require.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestCheckoutEndpointLifecycle(t *testing.T) {
	server, _ := newTestServer(t)
	buyer := createFundedWallet(t, server, "350.00")
	seller := createFundedWallet(t, server, "")

	rec := doJSON(t, server, http.MethodPost, "/api/v1/transactions", gin.H{
		"buyer_id":       buyer.UserID,
		"seller_id":      seller.UserID,
		"item_id":        uuid.NewString(),
		"order_type":     "REAL",
		"title_snapshot": "Steel Sword",
		"price_snapshot": "350.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created transactionPayload
	decodeData(t, rec, &created)
	require.Equal(t, "PENDING", created.Status)

	rec = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/v1/transactions/%s/checkout", created.ID), nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var op operationPayload
	decodeData(t, rec, &op)
	require.Equal(t, "PENDING", op.Status)
	require.Equal(t, "/api/v1/operations/"+op.ID, rec.Header().Get("Location"))

	require.Eventually(t, func() bool {
		poll := doJSON(t, server, http.MethodGet, "/api/v1/operations/"+op.ID, nil)
		if poll.Code != http.StatusOK {
			return false
		}
		var polled operationPayload
		decodeData(t, poll, &polled)
		return polled.Status == "COMPLETED"
	}, 2*time.Second, 10*time.Millisecond)

	rec = doJSON(t, server, http.MethodGet, "/api/v1/transactions/"+created.ID, nil)
	var settled transactionPayload
	decodeData(t, rec, &settled)
	require.Equal(t, "PAID", settled.Status)
}

func TestCheckoutEndpointRejectsVirtual(t *testing.T) {
	server, _ := newTestServer(t)
	buyer := createFundedWallet(t, server, "10.00")
	seller := createFundedWallet(t, server, "")

	rec := doJSON(t, server, http.MethodPost, "/api/v1/transactions", gin.H{
		"buyer_id":       buyer.UserID,
		"seller_id":      seller.UserID,
		"item_id":        uuid.NewString(),
		"order_type":     "VIRTUAL",
		"title_snapshot": "Gem Pack",
		"price_snapshot": "10.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created transactionPayload
	decodeData(t, rec, &created)

	rec = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/v1/transactions/%s/checkout", created.ID), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelEndpointConflictsAfterSettlement(t *testing.T) {
	server, _ := newTestServer(t)
	buyer := createFundedWallet(t, server, "25.00")
	seller := createFundedWallet(t, server, "")

	rec := doJSON(t, server, http.MethodPost, "/api/v1/transactions", gin.H{
		"buyer_id":       buyer.UserID,
		"seller_id":      seller.UserID,
		"item_id":        uuid.NewString(),
		"order_type":     "VIRTUAL",
		"title_snapshot": "Gem Pack",
		"price_snapshot": "25.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created transactionPayload
	decodeData(t, rec, &created)
	require.Equal(t, "PAID", created.Status)

	rec = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/v1/transactions/%s/cancel", created.ID), nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/v1/transactions/%s/refund", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var refunded transactionPayload
	decodeData(t, rec, &refunded)
	require.Equal(t, "REFUNDED", refunded.Status)
}

func TestListTransactionsFilterEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	buyer := createFundedWallet(t, server, "100.00")
	seller := createFundedWallet(t, server, "")

	for i := 0; i < 3; i++ {
		rec := doJSON(t, server, http.MethodPost, "/api/v1/transactions", gin.H{
			"buyer_id":       buyer.UserID,
			"seller_id":      seller.UserID,
			"item_id":        uuid.NewString(),
			"order_type":     "REAL",
			"title_snapshot": "Item",
			"price_snapshot": "10.00",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, server, http.MethodGet, "/api/v1/transactions?buyer_id="+buyer.UserID+"&status=PENDING", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []transactionPayload
	decodeData(t, rec, &listed)
	require.Len(t, listed, 3)

	rec = doJSON(t, server, http.MethodGet, "/api/v1/transactions?status=BROKEN", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/v1/transactions?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &listed)
	require.Len(t, listed, 2)
}

func TestGetOperationNotFound(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/operations/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
