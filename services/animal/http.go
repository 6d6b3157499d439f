package animal

import (
	"savepaws-backend/pkg/errutil"
	"savepaws-backend/pkg/httpapi"
	"savepaws-backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func registerRoutes(engine *gin.Engine, svc *Service) {
	admin := engine.Group("/admin", middleware.RequireAdmin())
	admin.GET("/animals/:animalID/progress", svc.handleListProgress)
	admin.POST("/animals/:animalID/progress", svc.handleCreateProgress)
	admin.PUT("/animals/progress/:updateID", svc.handleUpdateProgress)
	admin.DELETE("/animals/progress/:updateID", svc.handleDeleteProgress)

	engine.GET("/animals/:animalID/progress", svc.handleListProgress)
}

func (s *Service) handleListProgress(c *gin.Context) {
	updates, err := s.ListProgressUpdates(c.Request.Context(), c.Param("animalID"))
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.OK(c, updates)
}

func (s *Service) handleCreateProgress(c *gin.Context) {
	var req CreateProgressUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.ValidationFailed("Invalid request body", errutil.WithErr(err)))
		return
	}
	req.AnimalID = c.Param("animalID")
	req.CreatedBy = middleware.PrincipalFrom(c).UserID

	update, err := s.CreateProgressUpdate(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.Created(c, "Progress update posted", update)
}

func (s *Service) handleUpdateProgress(c *gin.Context) {
	var req UpdateProgressUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.ValidationFailed("Invalid request body", errutil.WithErr(err)))
		return
	}
	req.UpdatedBy = middleware.PrincipalFrom(c).UserID

	update, err := s.UpdateProgressUpdate(c.Request.Context(), c.Param("updateID"), req)
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.OKMessage(c, "Progress update saved", update)
}

func (s *Service) handleDeleteProgress(c *gin.Context) {
	adminID := middleware.PrincipalFrom(c).UserID
	if err := s.DeleteProgressUpdate(c.Request.Context(), c.Param("updateID"), adminID); err != nil {
		c.Error(err)
		return
	}
	httpapi.OKMessage(c, "Progress update deleted", nil)
}
