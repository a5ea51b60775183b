package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factoria-games/factoria/internal/custody"
	"github.com/factoria-games/factoria/internal/idempotency"
	"github.com/factoria-games/factoria/internal/ledger"
	"github.com/factoria-games/factoria/internal/service"
	"github.com/factoria-games/factoria/internal/store"
	"github.com/factoria-games/factoria/pkg/config"
	"github.com/factoria-games/factoria/pkg/redis"
)

const ownerAddress = "owner"

func newTestService(t *testing.T) *service.Service {
	t.Helper()

	catalog, err := ledger.NewCatalog([][]ledger.LevelSpec{
		{
			{Price: 1000, ProductsPerMinute: 10, BonusPerMinute: 5},
			{Price: 2000, ProductsPerMinute: 20, BonusPerMinute: 8},
		},
	}, []uint64{2})
	require.NoError(t, err)

	schedules, err := ledger.NewScheduleSet(
		map[ledger.ScheduleID]ledger.Schedule{
			ledger.ScheduleFirstPurchase: {500, 300},
			ledger.ScheduleLoyalty:       {300},
		},
		map[ledger.Event]ledger.ScheduleID{
			ledger.EventFirstPurchase: ledger.ScheduleFirstPurchase,
			ledger.EventLevelUp:       ledger.ScheduleLoyalty,
		},
		5,
	)
	require.NoError(t, err)

	l, err := ledger.New(ledger.Config{
		Owner:            ownerAddress,
		MaxReferralDepth: 5,
		Catalog:          catalog,
		Schedules:        schedules,
	})
	require.NoError(t, err)

	return service.New(l, store.NewMemory(), custody.NewLogVault(nil), clock.NewMock(), nil)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := newTestService(t)

	mr := miniredis.RunT(t)
	client, err := redis.New(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewRouter(Options{
		Service:        svc,
		Idempotency:    idempotency.NewManager(idempotency.NewRedisStore(client, nil), nil),
		IdempotencyTTL: time.Hour,
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/users", gin.H{"address": "alice", "attached": 1000})
	require.Equal(t, http.StatusCreated, rec.Code)

	var user map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.EqualValues(t, 1, user["id"])
	assert.EqualValues(t, 1000, user["balance"])

	// Same address again conflicts.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/users", gin.H{"address": "alice"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown referrer.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/users", gin.H{"address": "bob", "referrer_id": 42})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Missing address fails binding.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/users", gin.H{"attached": 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurchaseFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/users", gin.H{"address": "alice"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Broke: payment required.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/factories", gin.H{"address": "alice", "type": 0})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/deposit", gin.H{"address": "alice", "amount": 1000})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/factories", gin.H{"address": "alice", "type": 0})
	require.Equal(t, http.StatusCreated, rec.Code)

	var factory map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &factory))
	assert.EqualValues(t, 0, factory["id"])
	assert.EqualValues(t, 0, factory["level"])

	// Two minutes pass on the manual clock.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/admin/clock/advance", gin.H{"address": ownerAddress, "seconds": 120})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/collect", gin.H{"address": "alice"})
	require.Equal(t, http.StatusOK, rec.Code)

	var collected map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &collected))
	assert.EqualValues(t, 20, collected["collected"])
}

func TestSellFlow(t *testing.T) {
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/v1/users", gin.H{"address": "alice", "attached": 1000})
	doJSON(t, router, http.MethodPost, "/api/v1/factories", gin.H{"address": "alice", "type": 0})
	doJSON(t, router, http.MethodPost, "/api/v1/admin/clock/advance", gin.H{"address": ownerAddress, "seconds": 180})
	doJSON(t, router, http.MethodPost, "/api/v1/collect", gin.H{"address": "alice"})

	// Treasury deposits are owner-only.
	rec := doJSON(t, router, http.MethodPost, "/api/v1/admin/treasury/deposit", gin.H{"address": "mallory", "amount": 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/admin/treasury/deposit", gin.H{"address": ownerAddress, "amount": 100000})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/sell", gin.H{"address": "alice", "resource_type": 0})
	require.Equal(t, http.StatusOK, rec.Code)

	var payout map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payout))
	assert.EqualValues(t, 30, payout["units"])
	assert.EqualValues(t, 60, payout["amount"])
	assert.NotEmpty(t, payout["reference"])
}

func TestQueryEndpoints(t *testing.T) {
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/v1/users", gin.H{"address": "root"})
	doJSON(t, router, http.MethodPost, "/api/v1/users", gin.H{"address": "child", "referrer_id": 1, "attached": 1000})
	doJSON(t, router, http.MethodPost, "/api/v1/factories", gin.H{"address": "child", "type": 0})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/users/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/users/2/referrers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"referrers":[1]}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/v1/users/2/factories", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/users/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/factories/0/resources", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "products_per_minute")

	rec = doJSON(t, router, http.MethodGet, "/api/v1/schedules/first_purchase", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"schedule":"first_purchase","percents":[500,300]}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/v1/schedules/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"schedule":"loyalty","percents":[300]}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/v1/schedules/mystery", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/catalog/levels", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"types":1,"levels":2}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/v1/catalog/price?type=0&level=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"type":0,"level":1,"price":2000}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/v1/catalog/price?type=9&level=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/catalog/production?type=0&level=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"type":0,"level":0,"products_per_minute":10,"bonus_per_minute":5}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/v1/catalog/resource-price?type=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"type":0,"resource_price":2}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/v1/owner", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"owner":"owner"}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/v1/treasury", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"treasury":1000}`, rec.Body.String())
}

func TestClockAdvanceOwnerOnly(t *testing.T) {
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/v1/users", gin.H{"address": "alice", "attached": 1000})
	doJSON(t, router, http.MethodPost, "/api/v1/factories", gin.H{"address": "alice", "type": 0})

	// Anonymous advance fails binding.
	rec := doJSON(t, router, http.MethodPost, "/api/v1/admin/clock/advance", gin.H{"seconds": 600})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A non-owner cannot move time.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/admin/clock/advance", gin.H{"address": "alice", "seconds": 600})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The rejected advances matured nothing.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/collect", gin.H{"address": "alice"})
	require.Equal(t, http.StatusOK, rec.Code)

	var collected map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &collected))
	assert.EqualValues(t, 0, collected["collected"])

	rec = doJSON(t, router, http.MethodPost, "/api/v1/admin/clock/advance", gin.H{"address": ownerAddress, "seconds": 600})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIdempotencyKeyReplay(t *testing.T) {
	router := newTestRouter(t)

	body := gin.H{"address": "alice", "attached": 500}
	first := doJSON(t, router, http.MethodPost, "/api/v1/users", body, "Idempotency-Key", "reg-1")
	require.Equal(t, http.StatusCreated, first.Code)

	// The duplicate replays the recorded response instead of conflicting.
	second := doJSON(t, router, http.MethodPost, "/api/v1/users", body, "Idempotency-Key", "reg-1")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	// A different key actually executes and hits the duplicate address.
	third := doJSON(t, router, http.MethodPost, "/api/v1/users", body, "Idempotency-Key", "reg-2")
	assert.Equal(t, http.StatusConflict, third.Code)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
