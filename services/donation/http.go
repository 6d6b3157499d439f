package donation

import (
	"savepaws-backend/pkg/errutil"
	"savepaws-backend/pkg/httpapi"
	"savepaws-backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func registerRoutes(engine *gin.Engine, svc *Service) {
	engine.POST("/donations", svc.handleCapture)

	user := engine.Group("/user", middleware.RequireUser())
	user.GET("/donations", svc.handleListMine)
}

func (s *Service) handleCapture(c *gin.Context) {
	var req CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.ValidationFailed("Invalid request body", errutil.WithErr(err)))
		return
	}
	req.UserID = middleware.PrincipalFrom(c).UserID

	result, err := s.Capture(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.Created(c, "Donation received, thank you!", result)
}

func (s *Service) handleListMine(c *gin.Context) {
	txns, err := s.ListByUser(c.Request.Context(), middleware.PrincipalFrom(c).UserID)
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.OK(c, txns)
}
