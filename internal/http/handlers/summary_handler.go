// Summary HTTP handlers.
//
//   - GET /summary       (month → article → welder totals, weak ETag)
//   - GET /summary.xlsx  (same view as a spreadsheet)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/welder-tracker/internal/http/middleware"
	"github.com/tbourn/welder-tracker/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Summary returns the cross-welder summary. Supports If-None-Match and may
// return 304 when the store has not changed.
func (h *Handlers) Summary(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if h.stats != nil {
		if st, err := h.stats(ctx); err == nil {
			var ts int64
			if st.LastRecordAt != nil {
				ts = st.LastRecordAt.UnixNano()
			}
			etag := fmt.Sprintf(`W/"summary:%s:%d:%d:%d:%d"`, h.Changes.Tag(), st.Welders, st.Records, st.History, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	months, err := h.records.Summary(ctx)
	if err != nil {
		failErr(c, err, "summary_failed")
		return
	}
	ok(c, http.StatusOK, months)
}

// SummaryXLSX streams the summary as an Excel workbook.
func (h *Handlers) SummaryXLSX(c *gin.Context) {
	months, err := h.records.Summary(c.Request.Context())
	if err != nil {
		failErr(c, err, ErrCodeExportFailed)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="welder-summary.xlsx"`)
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := report.WriteSummary(c.Writer, months); err != nil {
		_ = c.Error(err)
		middleware.LoggerFrom(c).Error().Err(err).Msg("write summary workbook")
	}
}
