package handler

import (
	"errors"
	"net/http"
	"strconv"

	"bodega/internal/middleware"
	"bodega/internal/model"
	"bodega/internal/service"
	"bodega/internal/withdrawal"
	"bodega/pkg/response"

	"github.com/gin-gonic/gin"
)

type DraftHandler struct {
	draftService service.DraftService
}

func NewDraftHandler(draftService service.DraftService) *DraftHandler {
	return &DraftHandler{draftService: draftService}
}

func (h *DraftHandler) RegisterRoutes(router *gin.RouterGroup) {
	drafts := router.Group("/api/drafts")
	drafts.Use(middleware.RequireRole(model.RoleAdmin, model.RoleWarehouse))
	{
		drafts.POST("", h.CreateDraft)
		drafts.GET("/:id", h.GetDraft)
		drafts.PUT("/:id/header", h.UpdateHeader)
		drafts.POST("/:id/rows", h.AddRow)
		drafts.PUT("/:id/rows/:index", h.UpdateField)
		drafts.PUT("/:id/rows/:index/item", h.ApplyItem)
		drafts.DELETE("/:id/rows/:index", h.RemoveRow)
		drafts.POST("/:id/submit", h.Submit)
	}
}

type createDraftRequest struct {
	Variant string `json:"variant" binding:"required"`
}

type applyItemRequest struct {
	Code string `json:"code" binding:"required"`
}

// CreateDraft opens a new in-progress withdrawal for one form variant
// @Summary      Create withdrawal draft
// @Description  Opens a draft for the given form variant with the approver pre-filled from the authenticated user
// @Tags         drafts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      createDraftRequest  true  "Form variant (oficina, herramienta, limpieza, equipo, uniforme, externo, general)"
// @Success      201      {object}  response.Response{data=service.DraftResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/drafts [post]
func (h *DraftHandler) CreateDraft(c *gin.Context) {
	var req createDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	draft, err := h.draftService.Create(c.Request.Context(), req.Variant, c.GetString("userEmail"))
	if err != nil {
		if errors.Is(err, service.ErrUnknownVariant) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, draft))
}

// GetDraft returns the current draft state
// @Summary      Get draft
// @Tags         drafts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Draft ID"
// @Success      200  {object}  response.Response{data=service.DraftResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/drafts/{id} [get]
func (h *DraftHandler) GetDraft(c *gin.Context) {
	draft, err := h.draftService.Get(c.Param("id"))
	if err != nil {
		h.renderDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, draft))
}

// UpdateHeader replaces the draft's header fields
// @Summary      Update draft header
// @Tags         drafts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Draft ID"
// @Param        payload  body      service.UpdateHeaderRequest   true  "Header fields"
// @Success      200      {object}  response.Response{data=service.DraftResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/drafts/{id}/header [put]
func (h *DraftHandler) UpdateHeader(c *gin.Context) {
	var req service.UpdateHeaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	draft, err := h.draftService.UpdateHeader(c.Param("id"), req)
	if err != nil {
		h.renderDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, draft))
}

// AddRow appends an empty placeholder row
// @Summary      Add draft row
// @Tags         drafts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Draft ID"
// @Success      200  {object}  response.Response{data=service.DraftResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/drafts/{id}/rows [post]
func (h *DraftHandler) AddRow(c *gin.Context) {
	draft, err := h.draftService.AddRow(c.Param("id"))
	if err != nil {
		h.renderDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, draft))
}

// UpdateField applies a single-field edit to one row; quantity edits clamp
// against the row's stock ceiling
// @Summary      Update draft row field
// @Tags         drafts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Draft ID"
// @Param        index    path      int                         true  "Row index"
// @Param        payload  body      service.UpdateFieldRequest  true  "Field edit"
// @Success      200      {object}  response.Response{data=service.DraftResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/drafts/{id}/rows/{index} [put]
func (h *DraftHandler) UpdateField(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Row index must be a number"))
		return
	}

	var req service.UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	draft, err := h.draftService.UpdateField(c.Param("id"), index, req)
	if err != nil {
		h.renderDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, draft))
}

// ApplyItem replaces one row with a catalog selection
// @Summary      Apply catalog item to draft row
// @Description  Replaces the row wholesale with the selected catalog entry; duplicate selections are rejected with a warning
// @Tags         drafts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string            true  "Draft ID"
// @Param        index    path      int               true  "Row index"
// @Param        payload  body      applyItemRequest  true  "Catalog item code"
// @Success      200      {object}  response.Response{data=service.DraftResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/drafts/{id}/rows/{index}/item [put]
func (h *DraftHandler) ApplyItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Row index must be a number"))
		return
	}

	var req applyItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	draft, err := h.draftService.ApplyItem(c.Request.Context(), c.Param("id"), index, req.Code)
	if err != nil {
		h.renderDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, draft))
}

// RemoveRow deletes one row, leaving a single empty row when the last one goes
// @Summary      Remove draft row
// @Tags         drafts
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true  "Draft ID"
// @Param        index  path      int     true  "Row index"
// @Success      200    {object}  response.Response{data=service.DraftResponse}
// @Failure      404    {object}  response.Response
// @Router       /api/drafts/{id}/rows/{index} [delete]
func (h *DraftHandler) RemoveRow(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Row index must be a number"))
		return
	}

	draft, err := h.draftService.RemoveRow(c.Param("id"), index)
	if err != nil {
		h.renderDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, draft))
}

// Submit validates the draft and runs the commit sequence
// @Summary      Submit draft
// @Description  Validates locally, then commits request, header and line items in one transaction with a server-side stock re-check
// @Tags         drafts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Draft ID"
// @Success      201  {object}  response.Response{data=object}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/drafts/{id}/submit [post]
func (h *DraftHandler) Submit(c *gin.Context) {
	result, draft, err := h.draftService.Submit(c.Request.Context(), c.Param("id"), c.GetString("userID"))
	if err != nil {
		h.renderSubmitError(c, err, draft)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, map[string]interface{}{
		"result": result,
		"draft":  draft,
	}))
}

func (h *DraftHandler) renderDraftError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDraftNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrItemNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, withdrawal.ErrRowOutOfRange),
		errors.Is(err, withdrawal.ErrUnknownField):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	}
}

func (h *DraftHandler) renderSubmitError(c *gin.Context, err error, draft *service.DraftResponse) {
	var stockErr *withdrawal.StockExceededError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrDraftNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrSubmitInFlight):
		status = http.StatusConflict
	case errors.As(err, &stockErr):
		status = http.StatusConflict
	case errors.Is(err, withdrawal.ErrMissingResponsible),
		errors.Is(err, withdrawal.ErrNoValidItems):
		status = http.StatusBadRequest
	}

	body := response.Error(status, err.Error())
	if draft != nil {
		body.Data = draft
	}
	c.JSON(status, body)
}
