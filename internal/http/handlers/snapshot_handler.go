// Snapshot HTTP handlers.
//
//   - GET  /snapshot                                   (download backup JSON)
//   - POST /snapshot/import?mode=additive              (merge, skip duplicates)
//   - POST /snapshot/import?mode=replace&confirm=true  (wipe and restore)
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/welder-tracker/internal/http/middleware"
	"github.com/tbourn/welder-tracker/internal/services"
)

// ExportSnapshot writes the whole store as an attachment.
func (h *Handlers) ExportSnapshot(c *gin.Context) {
	snap, err := h.snapshots.Export(c.Request.Context())
	if err != nil {
		failErr(c, err, ErrCodeExportFailed)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+services.FileName(time.Now())+`"`)
	c.Header("Content-Type", "application/json; charset=utf-8")
	c.Status(http.StatusOK)
	if err := services.WriteJSON(c.Writer, snap); err != nil {
		_ = c.Error(err)
		middleware.LoggerFrom(c).Error().Err(err).Msg("write snapshot")
	}
}

// ImportSnapshot loads a backup document from the request body. Replace
// mode needs confirm=true; without it the store is left untouched and the
// response is 409 import_aborted.
func (h *Handlers) ImportSnapshot(c *gin.Context) {
	ctx := c.Request.Context()
	mode := c.DefaultQuery("mode", services.ModeAdditive)
	if mode != services.ModeAdditive && mode != services.ModeReplace {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "mode must be additive or replace")
		return
	}

	snap, err := services.Decode(ctx, c.Request.Body, h.MaxImportBytes)
	if err != nil {
		failErr(c, err, "import_failed")
		return
	}

	var rep *services.ImportReport
	if mode == services.ModeReplace {
		confirmed, _ := strconv.ParseBool(c.Query("confirm"))
		rep, err = h.snapshots.ImportReplace(ctx, snap, services.ConfirmFunc(
			func(context.Context, services.ImportPreview) (bool, error) { return confirmed, nil },
		))
	} else {
		rep, err = h.snapshots.ImportAdditive(ctx, snap)
	}
	if err != nil {
		failErr(c, err, "import_failed")
		return
	}
	ok(c, http.StatusOK, rep)
}
