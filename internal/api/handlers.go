package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/factoria-games/factoria/internal/domain"
	"github.com/factoria-games/factoria/internal/ledger"
	"github.com/factoria-games/factoria/internal/service"
)

type handler struct {
	svc           *service.Service
	log           *slog.Logger
	sentryEnabled bool
}

type registerRequest struct {
	Address    string `json:"address" binding:"required"`
	ReferrerID int64  `json:"referrer_id"`
	Attached   uint64 `json:"attached"`
}

func (h *handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.Register(c.Request.Context(), req.Address, req.ReferrerID, req.Attached)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, userResponse(user))
}

type depositRequest struct {
	Address string `json:"address" binding:"required"`
	Amount  uint64 `json:"amount"`
}

func (h *handler) deposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.Deposit(c.Request.Context(), req.Address, req.Amount)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

type buyFactoryRequest struct {
	Address  string `json:"address" binding:"required"`
	Type     int    `json:"type"`
	Attached uint64 `json:"attached"`
}

func (h *handler) buyFactory(c *gin.Context) {
	var req buyFactoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	factory, err := h.svc.BuyFactory(c.Request.Context(), req.Address, req.Type, req.Attached)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, factoryResponse(factory))
}

type levelUpRequest struct {
	Address  string `json:"address" binding:"required"`
	Attached uint64 `json:"attached"`
}

func (h *handler) levelUp(c *gin.Context) {
	factoryID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid factory id"})
		return
	}

	var req levelUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	factory, err := h.svc.LevelUp(c.Request.Context(), req.Address, factoryID, req.Attached)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, factoryResponse(factory))
}

type collectRequest struct {
	Address string `json:"address" binding:"required"`
}

func (h *handler) collect(c *gin.Context) {
	var req collectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, collected, err := h.svc.Collect(c.Request.Context(), req.Address)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"collected": collected,
		"user":      userResponse(user),
	})
}

type sellRequest struct {
	Address      string `json:"address" binding:"required"`
	ResourceType int    `json:"resource_type"`
}

func (h *handler) sell(c *gin.Context) {
	var req sellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payout, err := h.svc.Sell(c.Request.Context(), req.Address, req.ResourceType)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reference":     payout.Reference,
		"resource_type": payout.ResourceType,
		"units":         payout.Units,
		"amount":        payout.Amount,
		"created_at":    payout.CreatedAt,
	})
}

func (h *handler) getUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.svc.UserInfo(id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

func (h *handler) getUserFactories(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	factories, err := h.svc.FactoriesOf(id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(factories))
	for _, factory := range factories {
		out = append(out, factoryResponse(factory))
	}

	c.JSON(http.StatusOK, gin.H{"factories": out})
}

func (h *handler) getUserReferrers(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	referrers, err := h.svc.ReferrersOf(id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"referrers": referrers})
}

func (h *handler) getFactory(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid factory id"})
		return
	}

	factory, err := h.svc.FactoryInfo(id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, factoryResponse(factory))
}

func (h *handler) getFactoryResources(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid factory id"})
		return
	}

	pending, err := h.svc.PendingResources(id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"factory_id": id, "pending": pending})
}

func (h *handler) getCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": h.svc.CatalogListing()})
}

var scheduleNames = map[string]ledger.ScheduleID{
	"first_purchase": ledger.ScheduleFirstPurchase,
	"loyalty":        ledger.ScheduleLoyalty,
	"ultra_premium":  ledger.ScheduleUltraPremium,
}

// getSchedule resolves a schedule by name or by numeric index.
func (h *handler) getSchedule(c *gin.Context) {
	name := c.Param("name")

	id, ok := scheduleNames[name]
	if !ok {
		index, err := strconv.Atoi(name)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown schedule"})
			return
		}
		id = ledger.ScheduleID(index)
	}

	percents, err := h.svc.Schedule(id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedule": id.String(), "percents": percents})
}

func (h *handler) getOwner(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"owner": h.svc.Owner()})
}

func (h *handler) getTreasury(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"treasury": h.svc.Treasury()})
}

type treasuryDepositRequest struct {
	Address string `json:"address" binding:"required"`
	Amount  uint64 `json:"amount" binding:"required"`
}

func (h *handler) fundTreasury(c *gin.Context) {
	var req treasuryDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.FundTreasury(c.Request.Context(), req.Address, req.Amount); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"treasury": h.svc.Treasury()})
}

type clockAdvanceRequest struct {
	Address string `json:"address" binding:"required"`
	Seconds int64  `json:"seconds" binding:"required"`
}

func (h *handler) advanceClock(c *gin.Context) {
	var req clockAdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now, err := h.svc.AdvanceClock(req.Address, time.Duration(req.Seconds)*time.Second)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"now": now.Unix()})
}

func userResponse(user *domain.User) gin.H {
	return gin.H{
		"id":          user.ID,
		"address":     user.Address,
		"balance":     user.Balance,
		"total_pay":   user.TotalPay,
		"resources":   user.Resources,
		"referrer_id": user.Referrer,
	}
}

func factoryResponse(factory *domain.Factory) gin.H {
	return gin.H{
		"id":           factory.ID,
		"owner_id":     factory.OwnerID,
		"type":         factory.Type,
		"level":        factory.Level,
		"collected_at": factory.CollectedAt,
	}
}

func pathID(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
