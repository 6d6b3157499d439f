package reward

import (
	"savepaws-backend/pkg/errutil"
	"savepaws-backend/pkg/httpapi"
	"savepaws-backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func registerRoutes(engine *gin.Engine, svc *Service) {
	rewards := engine.Group("/rewards", middleware.RequireUser())
	rewards.GET("/balance", svc.handleBalance)
	rewards.GET("/catalogue", svc.handleCatalogue)
	rewards.GET("/history", svc.handleHistory)
	rewards.POST("/redeem", svc.handleRedeem)
	rewards.GET("/:rewardID", svc.handleGetReward)

	admin := engine.Group("/admin/rewards", middleware.RequireAdmin())
	admin.GET("", svc.handleAdminList)
	admin.POST("", svc.handleAdminCreate)
	admin.PUT("/:rewardID", svc.handleAdminUpdate)
	admin.DELETE("/:rewardID", svc.handleAdminDelete)
	admin.POST("/adjust", svc.handleAdminAdjust)
}

func (s *Service) handleBalance(c *gin.Context) {
	balance, err := s.GetBalance(c.Request.Context(), middleware.PrincipalFrom(c).UserID)
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.OK(c, balance)
}

func (s *Service) handleCatalogue(c *gin.Context) {
	items, err := s.GetCatalogue(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.OK(c, items)
}

func (s *Service) handleGetReward(c *gin.Context) {
	item, err := s.GetReward(c.Request.Context(), c.Param("rewardID"))
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.OK(c, item)
}

func (s *Service) handleHistory(c *gin.Context) {
	history, err := s.GetHistory(c.Request.Context(), middleware.PrincipalFrom(c).UserID)
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.OK(c, history)
}

type redeemRequest struct {
	RewardID string `json:"rewardID"`
}

func (s *Service) handleRedeem(c *gin.Context) {
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.ValidationFailed("Invalid request body", errutil.WithErr(err)))
		return
	}
	if req.RewardID == "" {
		c.Error(errutil.ValidationFailed("Reward ID is required"))
		return
	}

	redemption, err := s.Redeem(c.Request.Context(), middleware.PrincipalFrom(c).UserID, req.RewardID)
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.Created(c, "Reward redeemed", redemption)
}

func (s *Service) handleAdminList(c *gin.Context) {
	items, err := s.ListItems(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.OK(c, items)
}

func (s *Service) handleAdminCreate(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.ValidationFailed("Invalid request body", errutil.WithErr(err)))
		return
	}
	req.AdminID = middleware.PrincipalFrom(c).UserID

	item, err := s.CreateItem(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.Created(c, "Reward created", item)
}

func (s *Service) handleAdminUpdate(c *gin.Context) {
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.ValidationFailed("Invalid request body", errutil.WithErr(err)))
		return
	}
	req.AdminID = middleware.PrincipalFrom(c).UserID

	item, err := s.UpdateItem(c.Request.Context(), c.Param("rewardID"), req)
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.OKMessage(c, "Reward updated", item)
}

func (s *Service) handleAdminDelete(c *gin.Context) {
	adminID := middleware.PrincipalFrom(c).UserID
	if err := s.DeleteItem(c.Request.Context(), c.Param("rewardID"), adminID); err != nil {
		c.Error(err)
		return
	}
	httpapi.OKMessage(c, "Reward deleted", nil)
}

func (s *Service) handleAdminAdjust(c *gin.Context) {
	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.ValidationFailed("Invalid request body", errutil.WithErr(err)))
		return
	}
	req.AdminID = middleware.PrincipalFrom(c).UserID

	entry, err := s.Adjust(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.Created(c, "Points adjusted", entry)
}
