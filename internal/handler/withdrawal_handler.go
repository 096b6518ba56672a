package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"bodega/internal/middleware"
	"bodega/internal/model"
	"bodega/internal/service"
	"bodega/pkg/export"
	"bodega/pkg/pagination"
	"bodega/pkg/response"

	"github.com/gin-gonic/gin"
)

type WithdrawalHandler struct {
	withdrawalService service.WithdrawalService
}

func NewWithdrawalHandler(withdrawalService service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalService: withdrawalService}
}

func (h *WithdrawalHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/withdrawals")
	api.Use(middleware.RequireRole(model.RoleAdmin, model.RoleWarehouse, model.RoleReadOnly))
	{
		api.GET("", h.List)
		api.GET("/:id", h.Get)
		api.GET("/export", h.Export)
	}
}

// List returns paginated withdrawal history with line items
// @Summary      List withdrawals
// @Tags         withdrawals
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/withdrawals [get]
func (h *WithdrawalHandler) List(c *gin.Context) {
	params := pagination.Parse(c)

	withdrawals, total, err := h.withdrawalService.List(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve withdrawals: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"withdrawals": withdrawals,
		"total":       total,
		"page":        params.Page,
		"limit":       params.Limit,
	}))
}

// Get returns one withdrawal with its items
// @Summary      Get withdrawal
// @Tags         withdrawals
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Withdrawal ID"
// @Success      200  {object}  response.Response{data=service.WithdrawalResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/withdrawals/{id} [get]
func (h *WithdrawalHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Withdrawal ID must be a number"))
		return
	}

	withdrawal, err := h.withdrawalService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrWithdrawalNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, withdrawal))
}

// Export downloads withdrawal history as xlsx or csv
// @Summary      Export withdrawal history
// @Description  Streams the history between two dates as a spreadsheet, one row per line item
// @Tags         withdrawals
// @Security     BearerAuth
// @Produce      application/octet-stream
// @Param        from    query     string  false  "Start date YYYY-MM-DD (default 30 days back)"
// @Param        to      query     string  false  "End date YYYY-MM-DD (default today)"
// @Param        format  query     string  false  "xlsx or csv (default csv)"
// @Success      200
// @Failure      400  {object}  response.Response
// @Router       /api/withdrawals/export [get]
func (h *WithdrawalHandler) Export(c *gin.Context) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now.AddDate(0, 0, 1)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD"))
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD"))
			return
		}
		to = parsed.AddDate(0, 0, 1) // inclusive end date
	}

	headers, rows, err := h.withdrawalService.ExportRows(c.Request.Context(), c.GetString("userID"), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to export withdrawals: "+err.Error()))
		return
	}

	if c.DefaultQuery("format", "csv") == "xlsx" {
		export.Excel(c.Writer, "salidas.xlsx", "Salidas", headers, rows)
		return
	}
	export.CSV(c.Writer, "salidas.csv", headers, rows)
}
