package handler

import (
	"net/http"
	"strconv"

	"bodega/internal/middleware"
	"bodega/internal/model"
	"bodega/internal/service"
	"bodega/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	api.Use(middleware.RequireRole(model.RoleAdmin, model.RoleWarehouse, model.RoleReadOnly))
	{
		api.GET("/catalog", h.Search)
		api.GET("/request-types", h.RequestTypes)
	}
}

// Search handles the item search backing the selection modal
// @Summary      Search catalog
// @Description  Returns in-stock items matching the substring against name or code, case-insensitive
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "Substring matched against item name or code"
// @Param        limit   query     int     false  "Page size (default 50, max 1000)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/catalog [get]
func (h *CatalogHandler) Search(c *gin.Context) {
	search := c.Query("search")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultCatalogLimit)))

	items, err := h.catalogService.Search(c.Request.Context(), search, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to search catalog: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	}))
}

// RequestTypes lists the request-type catalog used to resolve discriminators
// @Summary      List request types
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/request-types [get]
func (h *CatalogHandler) RequestTypes(c *gin.Context) {
	types, err := h.catalogService.RequestTypes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to list request types: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, types))
}
