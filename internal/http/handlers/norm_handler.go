// Norm HTTP handlers.
//
//   - GET  /norms            (list)
//   - POST /norms            (add article code)
//   - GET  /norms/similar?q= (case-insensitive suggestions)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateNormRequest is the JSON payload for adding an article code.
type CreateNormRequest struct {
	Article string `json:"article"`
}

// ListNorms returns every article code.
func (h *Handlers) ListNorms(c *gin.Context) {
	list, err := h.norms.List(c.Request.Context())
	if err != nil {
		failErr(c, err, "list_failed")
		return
	}
	ok(c, http.StatusOK, list)
}

// CreateNorm adds an article code; a case-insensitive clash is 409.
func (h *Handlers) CreateNorm(c *gin.Context) {
	var req CreateNormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	n, err := h.norms.Add(c.Request.Context(), req.Article)
	if err != nil {
		failErr(c, err, "create_failed")
		return
	}
	ok(c, http.StatusCreated, n)
}

// SimilarNorms suggests article codes matching the q query parameter.
func (h *Handlers) SimilarNorms(c *gin.Context) {
	list, err := h.norms.Similar(c.Request.Context(), c.Query("q"))
	if err != nil {
		failErr(c, err, "list_failed")
		return
	}
	ok(c, http.StatusOK, list)
}
