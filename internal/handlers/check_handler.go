package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) ListChecks(c *gin.Context) {
	list, err := h.checks.ListChecks(c.Request.Context())
	if err != nil {
		h.fail(c, "listChecks", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetCheck(c *gin.Context) {
	check, err := h.checks.GetCheck(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "getCheck", err)
		return
	}
	c.JSON(http.StatusOK, check)
}

func (h *Handler) CompleteCheck(c *gin.Context) {
	check, err := h.checks.CompleteCheck(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "completeCheck", err)
		return
	}
	c.JSON(http.StatusOK, check)
}

// --- GET: the check as an .xlsx download ---
func (h *Handler) ExportCheck(c *gin.Context) {
	id := c.Param("id")
	var buf bytes.Buffer
	if err := h.checks.ExportCheck(c.Request.Context(), id, &buf); err != nil {
		h.fail(c, "exportCheck", err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=check-"+id+".xlsx")
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
