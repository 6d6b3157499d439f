package allocation

import (
	"savepaws-backend/pkg/errutil"
	"savepaws-backend/pkg/httpapi"
	"savepaws-backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func registerRoutes(engine *gin.Engine, svc *Service) {
	admin := engine.Group("/admin", middleware.RequireAdmin())
	admin.GET("/fund-allocation/animals", svc.handleListAnimals)
	admin.GET("/fund-allocation/detail/:allocationID", svc.handleGetDetail)
	admin.GET("/fund-allocation/:animalID", svc.handleGetAnimal)
	admin.POST("/fund-allocation/:animalID", svc.handleCreate)
	admin.GET("/allocations", svc.handleList)
	admin.PUT("/allocations/:allocationID", svc.handleUpdate)
	admin.DELETE("/allocations/:allocationID", svc.handleDelete)

	user := engine.Group("/user", middleware.RequireUser())
	user.GET("/donations/impact", svc.handleImpact)
	user.GET("/donations/:transactionID/impact", svc.handleImpactDetail)
}

func (s *Service) handleListAnimals(c *gin.Context) {
	animals, err := s.ListAnimals(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.OK(c, animals)
}

func (s *Service) handleGetAnimal(c *gin.Context) {
	ctx := c.Request.Context()
	animalID := c.Param("animalID")

	profile, summary, err := s.GetAnimalSummary(ctx, animalID)
	if err != nil {
		c.Error(err)
		return
	}

	allocations, err := s.ListByAnimal(ctx, animalID)
	if err != nil {
		c.Error(err)
		return
	}

	httpapi.OK(c, gin.H{
		"animal":      profile,
		"summary":     summary,
		"allocations": allocations,
	})
}

func (s *Service) handleCreate(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(errutil.ValidationFailed("Invalid request body", errutil.WithErr(err)))
		return
	}
	req.AnimalID = c.Param("animalID")
	req.AdminID = middleware.PrincipalFrom(c).UserID

	if fh, err := c.FormFile("receipt_image"); err == nil {
		req.ReceiptImage = fh
	}
	if fh, err := c.FormFile("treatment_photo"); err == nil {
		req.TreatmentPhoto = fh
	}

	alloc, err := s.Create(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.Created(c, "Allocation recorded", alloc)
}

func (s *Service) handleList(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(errutil.ValidationFailed("Invalid query parameters", errutil.WithErr(err)))
		return
	}

	resp, err := s.List(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.OK(c, resp)
}

func (s *Service) handleGetDetail(c *gin.Context) {
	alloc, profile, txn, err := s.GetDetail(c.Request.Context(), c.Param("allocationID"))
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.OK(c, gin.H{
		"allocation":  alloc,
		"animal":      profile,
		"transaction": txn,
	})
}

func (s *Service) handleUpdate(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Error(errutil.ValidationFailed("Invalid request body", errutil.WithErr(err)))
		return
	}
	req.AdminID = middleware.PrincipalFrom(c).UserID

	alloc, err := s.Update(c.Request.Context(), c.Param("allocationID"), req)
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.OKMessage(c, "Allocation updated", alloc)
}

func (s *Service) handleDelete(c *gin.Context) {
	adminID := middleware.PrincipalFrom(c).UserID
	if err := s.Delete(c.Request.Context(), c.Param("allocationID"), adminID); err != nil {
		c.Error(err)
		return
	}
	httpapi.OKMessage(c, "Allocation deleted", nil)
}

func (s *Service) handleImpact(c *gin.Context) {
	impacts, err := s.GetImpact(c.Request.Context(), middleware.PrincipalFrom(c).UserID)
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.OK(c, impacts)
}

func (s *Service) handleImpactDetail(c *gin.Context) {
	userID := middleware.PrincipalFrom(c).UserID
	impact, err := s.GetImpactDetail(c.Request.Context(), userID, c.Param("transactionID"))
	if err != nil {
		c.Error(err)
		return
	}
	httpapi.OK(c, impact)
}
