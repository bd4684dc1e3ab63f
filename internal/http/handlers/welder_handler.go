// Welder HTTP handlers.
//
//   - GET  /welders        (list)
//   - POST /welders        (register)
//   - GET  /welders/{id}   (card: records grouped by month and article)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateWelderRequest is the JSON payload for registering a welder.
type CreateWelderRequest struct {
	Name string `json:"name"`
}

// ListWelders returns every welder in registration order.
func (h *Handlers) ListWelders(c *gin.Context) {
	list, err := h.welders.List(c.Request.Context())
	if err != nil {
		failErr(c, err, "list_failed")
		return
	}
	ok(c, http.StatusOK, list)
}

// CreateWelder registers a welder. Blank names are 400, duplicates 409.
func (h *Handlers) CreateWelder(c *gin.Context) {
	var req CreateWelderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	w, err := h.welders.Add(c.Request.Context(), req.Name)
	if err != nil {
		failErr(c, err, "create_failed")
		return
	}
	ok(c, http.StatusCreated, w)
}

// WelderCard returns the welder with their month/article breakdown.
func (h *Handlers) WelderCard(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	card, err := h.records.WelderCard(c.Request.Context(), id)
	if err != nil {
		failErr(c, err, "card_failed")
		return
	}
	ok(c, http.StatusOK, card)
}
