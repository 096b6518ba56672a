package handler

import (
	"net/http"

	"bodega/internal/middleware"
	"bodega/internal/model"
	"bodega/internal/service"
	"bodega/pkg/response"

	"github.com/gin-gonic/gin"
)

type CollaboratorHandler struct {
	collaboratorService service.CollaboratorService
}

func NewCollaboratorHandler(collaboratorService service.CollaboratorService) *CollaboratorHandler {
	return &CollaboratorHandler{collaboratorService: collaboratorService}
}

func (h *CollaboratorHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/collaborators")
	api.Use(middleware.RequireRole(model.RoleAdmin, model.RoleWarehouse, model.RoleReadOnly))
	{
		api.GET("", h.Directory)
		api.GET("/match", h.Match)
	}
}

// Directory returns the approver/receiver partition of the directory
// @Summary      Collaborator directory
// @Description  Returns collaborators split into may-approve and may-only-receive subsets
// @Tags         collaborators
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.DirectoryResponse}
// @Failure      500  {object}  response.Response
// @Router       /api/collaborators [get]
func (h *CollaboratorHandler) Directory(c *gin.Context) {
	directory, err := h.collaboratorService.Directory(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to load directory: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, directory))
}

// Match resolves the authenticated user's email to a directory entry
// @Summary      Match collaborator by email
// @Description  Resolves an email to its collaborator record for approver pre-fill; defaults to the authenticated user's email
// @Tags         collaborators
// @Security     BearerAuth
// @Produce      json
// @Param        email  query     string  false  "Email to match (defaults to token email)"
// @Success      200    {object}  response.Response{data=service.CollaboratorResponse}
// @Failure      404    {object}  response.Response
// @Router       /api/collaborators/match [get]
func (h *CollaboratorHandler) Match(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		email = c.GetString("userEmail")
	}

	collaborator, err := h.collaboratorService.MatchByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to match collaborator: "+err.Error()))
		return
	}
	if collaborator == nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "No collaborator matches that email"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, collaborator))
}
