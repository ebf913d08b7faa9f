package api

import (
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bizkit/internal/apperr"
	"bizkit/internal/assets"
)

type AssetsHandler struct {
	responder
	assetsService *assets.Service
}

func NewAssetsHandler(assetsService *assets.Service, logger *zap.Logger, dev bool) *AssetsHandler {
	return &AssetsHandler{
		responder:     responder{logger: logger, dev: dev},
		assetsService: assetsService,
	}
}

// ---- notes ----

func (h *AssetsHandler) ListNotes(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	notes, err := h.assetsService.ListNotes(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

func (h *AssetsHandler) CreateNote(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req assets.NoteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	note, err := h.assetsService.CreateNote(c.Request.Context(), userID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

func (h *AssetsHandler) UpdateNote(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req assets.NoteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	note, err := h.assetsService.UpdateNote(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

func (h *AssetsHandler) DeleteNote(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.assetsService.DeleteNote(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- tables ----

func (h *AssetsHandler) ListTables(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	tables, err := h.assetsService.ListTables(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables})
}

func (h *AssetsHandler) CreateTable(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req struct {
		Name    string   `json:"name"`
		Headers []string `json:"headers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	table, err := h.assetsService.CreateTable(c.Request.Context(), userID, req.Name, req.Headers)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, table)
}

func (h *AssetsHandler) AddRow(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req struct {
		Cells []string `json:"cells"`
	}
	// an empty body adds a blank row
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, err)
			return
		}
	}
	table, err := h.assetsService.AddRow(c.Request.Context(), userID, c.Param("id"), req.Cells)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

func (h *AssetsHandler) UpdateCell(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req struct {
		Row   *int   `json:"row"`
		Col   *int   `json:"col"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if req.Row == nil || req.Col == nil {
		h.fail(c, apperr.Validation("row and col are required"))
		return
	}
	table, err := h.assetsService.UpdateCell(c.Request.Context(), userID, c.Param("id"), *req.Row, *req.Col, req.Value)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

func (h *AssetsHandler) DeleteTable(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.assetsService.DeleteTable(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- files ----

func (h *AssetsHandler) ListAssets(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	list, err := h.assetsService.ListAssets(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assets": list})
}

// Upload handles multipart POST /api/assets with the file under "file".
func (h *AssetsHandler) Upload(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		h.badRequest(c, err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.badRequest(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	asset, err := h.assetsService.Upload(c.Request.Context(), userID, fh.Filename, fh.Header.Get("Content-Type"), data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, asset)
}

func (h *AssetsHandler) Download(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	asset, data, err := h.assetsService.Download(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(asset.Name))
	c.Data(http.StatusOK, asset.ContentType, data)
}

func (h *AssetsHandler) DeleteAsset(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.assetsService.DeleteAsset(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
