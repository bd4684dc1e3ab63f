// Record HTTP handlers.
//
//   - GET  /welders/{id}/records     (newest first)
//   - POST /welders/{id}/records     (add production entry, merges per month)
//   - PUT  /records/{id}/quantity    (set absolute quantity)
//   - GET  /records/{id}/history     (quantity change log)
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/welder-tracker/internal/http/middleware"
)

// Quantity accepts either a JSON number or a string such as "5,5".
// The raw text is handed to the service which owns parsing.
type Quantity string

// UnmarshalJSON implements json.Unmarshaler.
func (q *Quantity) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*q = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*q = Quantity(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*q = Quantity(n.String())
	return nil
}

// AddRecordRequest is the JSON payload for a production entry.
type AddRecordRequest struct {
	Article  string   `json:"article"`
	Quantity Quantity `json:"quantity"`
}

// CorrectRecordRequest is the JSON payload for a quantity correction.
type CorrectRecordRequest struct {
	Quantity Quantity `json:"quantity"`
}

// ListRecords returns a welder's records, most recently touched first.
func (h *Handlers) ListRecords(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	list, err := h.records.ListByWelder(c.Request.Context(), id)
	if err != nil {
		failErr(c, err, "list_failed")
		return
	}
	ok(c, http.StatusOK, list)
}

// AddRecord applies a production entry. A blank article or quantity is
// declined with 204 and nothing is written. With an Idempotency-Key the
// first result is stored and replayed for retries.
func (h *Handlers) AddRecord(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	scope := c.Param("id")
	key, keyed := middleware.GetIdempotencyKey(c)
	if keyed && middleware.IsReplay(c) && h.Replays != nil {
		if status, body, found := h.Replays.Get(scope, key, time.Now().UTC()); found {
			c.Header("Idempotent-Replay", "true")
			if body == nil {
				c.Status(status)
				return
			}
			ok(c, status, body)
			return
		}
	}

	var req AddRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	res, err := h.records.Add(c.Request.Context(), id, req.Article, string(req.Quantity))
	if err != nil {
		failErr(c, err, "add_failed")
		return
	}

	if res == nil {
		if keyed && h.Replays != nil {
			h.Replays.Put(scope, key, http.StatusNoContent, nil, time.Now().UTC())
		}
		noContent(c)
		return
	}
	status := http.StatusCreated
	if res.Merged {
		status = http.StatusOK
	}
	if keyed && h.Replays != nil {
		h.Replays.Put(scope, key, status, res, time.Now().UTC())
	}
	ok(c, status, res)
}

// CorrectRecord sets a record's quantity. Blank input is 204; an
// unchanged value returns the record with changed=false.
func (h *Handlers) CorrectRecord(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req CorrectRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	res, err := h.records.Correct(c.Request.Context(), id, string(req.Quantity))
	if err != nil {
		failErr(c, err, "correct_failed")
		return
	}
	if res == nil {
		noContent(c)
		return
	}
	ok(c, http.StatusOK, res)
}

// RecordHistory returns the change log of one record, oldest first.
func (h *Handlers) RecordHistory(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	list, err := h.records.History(c.Request.Context(), id)
	if err != nil {
		failErr(c, err, "list_failed")
		return
	}
	ok(c, http.StatusOK, list)
}
