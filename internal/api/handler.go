// Package api exposes the ideation wizard over HTTP.
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/BerylCAtieno/idea-wizard-agent/internal/export"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/models"
	"github.com/BerylCAtieno/idea-wizard-agent/internal/wizard"
)

// ErrorResponse is the body of every failed request. State is present when
// the failure concerns an existing session.
type ErrorResponse struct {
	Error string        `json:"error"`
	State *wizard.State `json:"state,omitempty"`
}

type Handler struct {
	wizard   *wizard.Wizard
	renderer *export.Renderer
	logger   *logrus.Entry
}

func NewHandler(w *wizard.Wizard, renderer *export.Renderer, logger *logrus.Logger) *Handler {
	return &Handler{
		wizard:   w,
		renderer: renderer,
		logger:   logger.WithField("system", "api"),
	}
}

// Register mounts the session routes on rg.
func (h *Handler) Register(rg gin.IRouter) {
	sessions := rg.Group("/sessions")
	sessions.POST("", h.CreateSession)
	sessions.GET("/:id", h.GetSession)
	sessions.DELETE("/:id", h.DeleteSession)
	sessions.POST("/:id/reset", h.ResetSession)
	sessions.POST("/:id/market", h.SubmitMarket)
	sessions.POST("/:id/needs/:index", h.SelectNeed)
	sessions.POST("/:id/products/:index", h.SelectProduct)
	sessions.POST("/:id/promo", h.SubmitPromo)
	sessions.GET("/:id/export/pdf", h.ExportPDF)
	sessions.GET("/:id/export/xlsx", h.ExportXLSX)
}

// Health reports that the process is serving.
func Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (h *Handler) CreateSession(c *gin.Context) {
	st, err := h.wizard.Create()
	if err != nil {
		h.respondError(c, err, wizard.State{})
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *Handler) GetSession(c *gin.Context) {
	st, err := h.wizard.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err, st)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.wizard.Delete(c.Param("id")); err != nil {
		h.respondError(c, err, wizard.State{})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ResetSession(c *gin.Context) {
	st, err := h.wizard.Reset(c.Param("id"))
	if err != nil {
		h.respondError(c, err, st)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) SubmitMarket(c *gin.Context) {
	var in models.MarketInputs
	if err := c.ShouldBindJSON(&in); err != nil {
		h.respondError(c, fmt.Errorf("%w: %w", wizard.ErrInvalidInput, err), wizard.State{})
		return
	}

	st, err := h.wizard.SubmitMarket(c.Request.Context(), c.Param("id"), in)
	h.respondState(c, st, err)
}

func (h *Handler) SelectNeed(c *gin.Context) {
	index, ok := h.index(c)
	if !ok {
		return
	}
	st, err := h.wizard.SelectNeed(c.Request.Context(), c.Param("id"), index)
	h.respondState(c, st, err)
}

func (h *Handler) SelectProduct(c *gin.Context) {
	index, ok := h.index(c)
	if !ok {
		return
	}
	st, err := h.wizard.SelectProduct(c.Request.Context(), c.Param("id"), index)
	h.respondState(c, st, err)
}

func (h *Handler) SubmitPromo(c *gin.Context) {
	var in models.PromoInputs
	if err := c.ShouldBindJSON(&in); err != nil {
		h.respondError(c, fmt.Errorf("%w: %w", wizard.ErrInvalidInput, err), wizard.State{})
		return
	}

	st, err := h.wizard.SubmitPromo(c.Request.Context(), c.Param("id"), in)
	h.respondState(c, st, err)
}

func (h *Handler) ExportPDF(c *gin.Context) {
	st, err := h.wizard.Report(c.Param("id"))
	if err != nil {
		h.respondError(c, err, st)
		return
	}

	doc, err := h.renderer.PDF(st)
	if err != nil {
		h.respondError(c, err, wizard.State{})
		return
	}

	h.logger.WithFields(logrus.Fields{"session": st.ID, "pages": doc.Pages, "bytes": len(doc.Data)}).Info("pdf exported")
	c.Header("X-Page-Count", strconv.Itoa(doc.Pages))
	attachment(c, export.PDFFilename, export.PDFContentType, doc.Data)
}

func (h *Handler) ExportXLSX(c *gin.Context) {
	st, err := h.wizard.Report(c.Param("id"))
	if err != nil {
		h.respondError(c, err, st)
		return
	}

	data, err := h.renderer.XLSX(st)
	if err != nil {
		h.respondError(c, err, wizard.State{})
		return
	}

	h.logger.WithFields(logrus.Fields{"session": st.ID, "bytes": len(data)}).Info("xlsx exported")
	attachment(c, export.XLSXFilename, export.XLSXContentType, data)
}

func (h *Handler) index(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.respondError(c, fmt.Errorf("%w: index %q", wizard.ErrInvalidSelection, c.Param("index")), wizard.State{})
		return 0, false
	}
	return index, true
}

func (h *Handler) respondState(c *gin.Context, st wizard.State, err error) {
	if err != nil {
		h.respondError(c, err, st)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) respondError(c *gin.Context, err error, st wizard.State) {
	status := wizard.MapHTTPStatus(err)
	_ = c.Error(err)

	resp := ErrorResponse{Error: err.Error()}
	if st.ID != "" {
		resp.State = &st
	}
	c.JSON(status, resp)
}

func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
