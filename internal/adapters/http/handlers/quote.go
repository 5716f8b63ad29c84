package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotes-api/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotes-api/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotes-api/internal/app"
	"github.com/jsamuelsen/quotes-api/internal/ports"
)

const (
	rootMessage    = "Quotes API is running..."
	deletedMessage = "Quote deleted successfully ✅"
)

// QuoteHandler serves the quote endpoints.
type QuoteHandler struct {
	service *app.QuoteService
}

// NewQuoteHandler creates a quote handler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	return &QuoteHandler{service: service}
}

// Root handles GET /.
//
// @Summary Liveness message
// @Tags quotes
// @Produce json
// @Success 200 {object} dto.MessageResponse
// @Router / [get]
func (h *QuoteHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, dto.MessageResponse{Message: rootMessage})
}

// Create handles POST /quotes.
//
// @Summary Create a quote owned by the caller
// @Tags quotes
// @Accept json
// @Produce json
// @Param body body dto.QuoteRequest true "Quote"
// @Success 200 {object} dto.QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /quotes [post]
func (h *QuoteHandler) Create(c *gin.Context) {
	var req dto.QuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	quote, err := h.service.Create(c.Request.Context(), middleware.GetIdentity(c), req.ToInput())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}

// ListMine handles GET /quotes/my.
//
// @Summary List the caller's quotes
// @Tags quotes
// @Produce json
// @Success 200 {array} dto.QuoteResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /quotes/my [get]
func (h *QuoteHandler) ListMine(c *gin.Context) {
	quotes, err := h.service.ListMine(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteListResponse(quotes))
}

// ListAll handles GET /quotes/all. It needs no authentication.
//
// @Summary List every quote
// @Tags quotes
// @Produce json
// @Success 200 {array} dto.QuoteResponse
// @Router /quotes/all [get]
func (h *QuoteHandler) ListAll(c *gin.Context) {
	quotes, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteListResponse(quotes))
}

// Update handles PUT /quotes/:id.
//
// @Summary Replace text and author of the caller's quote
// @Tags quotes
// @Param id path string true "Quote ID"
// @Success 200 {object} dto.QuoteResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /quotes/{id} [put]
func (h *QuoteHandler) Update(c *gin.Context) {
	var req dto.QuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	quote, err := h.service.Update(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"), req.ToInput())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}

// Delete handles DELETE /quotes/:id.
//
// @Summary Delete the caller's quote
// @Tags quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /quotes/{id} [delete]
func (h *QuoteHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.GetIdentity(c), c.Param("id")); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: deletedMessage})
}

// RegisterRoutes mounts the quote routes on rg. Every route except the root
// and /quotes/all runs behind RequireBearer.
func (h *QuoteHandler) RegisterRoutes(rg gin.IRouter, verifier ports.IdentityVerifier) {
	rg.GET("/", h.Root)
	rg.GET("/quotes/all", h.ListAll)

	auth := middleware.RequireBearer(verifier)

	rg.POST("/quotes", auth, h.Create)
	rg.GET("/quotes/my", auth, h.ListMine)
	rg.PUT("/quotes/:id", auth, h.Update)
	rg.DELETE("/quotes/:id", auth, h.Delete)
}
