package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/tbourn/welder-tracker/internal/aggregate"
	"github.com/tbourn/welder-tracker/internal/app"
	"github.com/tbourn/welder-tracker/internal/config"
	"github.com/tbourn/welder-tracker/internal/domain"
	"github.com/tbourn/welder-tracker/internal/http/middleware"
	"github.com/tbourn/welder-tracker/internal/repo"
	"github.com/tbourn/welder-tracker/internal/services"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	cfg := config.Config{
		DBPath:   filepath.Join(t.TempDir(), "handlers.db"),
		Timezone: "UTC",
		Locale:   "en",
	}
	a, err := app.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func newTestRouter(t *testing.T, a *app.App) (*gin.Engine, *Handlers) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := New(a.Welders, a.Norms, a.Records, a.Snapshots, func(ctx context.Context) (repo.Stats, error) {
		return repo.StoreStats(ctx, a.DB)
	})
	h.Watch(a.Bus)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, h.Replays.Lookup))
	r.GET("/welders", h.ListWelders)
	r.POST("/welders", h.CreateWelder)
	r.GET("/welders/:id", h.WelderCard)
	r.GET("/welders/:id/records", h.ListRecords)
	r.POST("/welders/:id/records", h.AddRecord)
	r.PUT("/records/:id/quantity", h.CorrectRecord)
	r.GET("/records/:id/history", h.RecordHistory)
	r.GET("/norms", h.ListNorms)
	r.POST("/norms", h.CreateNorm)
	r.GET("/norms/similar", h.SimilarNorms)
	r.GET("/summary", h.Summary)
	r.GET("/summary.xlsx", h.SummaryXLSX)
	r.GET("/snapshot", h.ExportSnapshot)
	r.POST("/snapshot/import", h.ImportSnapshot)
	return r, h
}

func do(r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestQuantity_UnmarshalJSON(t *testing.T) {
	cases := map[string]Quantity{
		`{"quantity":5}`:      "5",
		`{"quantity":2.5}`:    "2.5",
		`{"quantity":"5,5"}`:  "5,5",
		`{"quantity":"  "}`:   "  ",
		`{"quantity":null}`:   "",
		`{"article":"XT637"}`: "",
	}
	for in, want := range cases {
		var req AddRecordRequest
		if err := json.Unmarshal([]byte(in), &req); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if req.Quantity != want {
			t.Fatalf("%s: got %q want %q", in, req.Quantity, want)
		}
	}
	var req AddRecordRequest
	if err := json.Unmarshal([]byte(`{"quantity":true}`), &req); err == nil {
		t.Fatalf("expected error for boolean quantity")
	}
}

func TestWelders_CreateListCard(t *testing.T) {
	a := newTestApp(t)
	r, _ := newTestRouter(t, a)

	w := do(r, http.MethodPost, "/welders", `{"name":"  Ivanov "}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	created := decode[domain.Welder](t, w)
	if created.Name != "Ivanov" || created.ID == 0 {
		t.Fatalf("created = %+v", created)
	}

	if w := do(r, http.MethodPost, "/welders", `{"name":"Ivanov"}`); w.Code != http.StatusConflict {
		t.Fatalf("duplicate: %d", w.Code)
	} else if e := decode[ErrorResponse](t, w); e.Code != ErrCodeConflict || e.RequestID == "" {
		t.Fatalf("duplicate body = %+v", e)
	}
	if w := do(r, http.MethodPost, "/welders", `{"name":"   "}`); w.Code != http.StatusBadRequest {
		t.Fatalf("blank: %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/welders", `{`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json: %d", w.Code)
	}

	list := decode[[]domain.Welder](t, do(r, http.MethodGet, "/welders", ""))
	if len(list) != 1 {
		t.Fatalf("list = %+v", list)
	}

	if w := do(r, http.MethodGet, "/welders/999", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing card: %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/welders/abc", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/welders/0", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("zero id: %d", w.Code)
	}
}

func TestNorms_CreateSimilar(t *testing.T) {
	a := newTestApp(t)
	r, _ := newTestRouter(t, a)

	for _, art := range []string{"XT637", "AB-XT1", "ZZ9"} {
		if w := do(r, http.MethodPost, "/norms", `{"article":"`+art+`"}`); w.Code != http.StatusCreated {
			t.Fatalf("create %s: %d", art, w.Code)
		}
	}
	if w := do(r, http.MethodPost, "/norms", `{"article":"xt637"}`); w.Code != http.StatusConflict {
		t.Fatalf("case clash: %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/norms", `{"article":""}`); w.Code != http.StatusBadRequest {
		t.Fatalf("blank: %d", w.Code)
	}

	got := decode[[]domain.Norm](t, do(r, http.MethodGet, "/norms/similar?q=xt", ""))
	if len(got) != 2 || got[0].Article != "XT637" || got[1].Article != "AB-XT1" {
		t.Fatalf("similar = %+v", got)
	}
	if got := decode[[]domain.Norm](t, do(r, http.MethodGet, "/norms/similar", "")); len(got) != 0 {
		t.Fatalf("empty query = %+v", got)
	}
	if got := decode[[]domain.Norm](t, do(r, http.MethodGet, "/norms", "")); len(got) != 3 {
		t.Fatalf("list = %+v", got)
	}
}

func TestRecords_AddMergeCorrectHistory(t *testing.T) {
	a := newTestApp(t)
	r, _ := newTestRouter(t, a)
	wd, err := a.Welders.Add(context.Background(), "Ivanov")
	if err != nil {
		t.Fatal(err)
	}
	base := "/welders/" + itoa(wd.ID) + "/records"

	w := do(r, http.MethodPost, base, `{"article":"XT637","quantity":5}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("first add: %d %s", w.Code, w.Body.String())
	}
	first := decode[services.AddResult](t, w)

	w = do(r, http.MethodPost, base, `{"article":"XT637","quantity":"3"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("merge: %d %s", w.Code, w.Body.String())
	}
	merged := decode[services.AddResult](t, w)
	if !merged.Merged || merged.Record.ID != first.Record.ID || merged.Record.Quantity != 8 {
		t.Fatalf("merged = %+v", merged)
	}
	if merged.History == nil || merged.History.OldQuantity != 5 || merged.History.NewQuantity != 8 {
		t.Fatalf("history = %+v", merged.History)
	}

	if w := do(r, http.MethodPost, base, `{"article":"XT637","quantity":"  "}`); w.Code != http.StatusNoContent {
		t.Fatalf("blank quantity: %d", w.Code)
	}
	if w := do(r, http.MethodPost, base, `{"article":"XT637","quantity":"abc"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad quantity: %d", w.Code)
	} else if e := decode[ErrorResponse](t, w); e.Code != ErrCodeInvalidQuantity {
		t.Fatalf("bad quantity code = %q", e.Code)
	}
	if w := do(r, http.MethodPost, "/welders/999/records", `{"article":"XT637","quantity":1}`); w.Code != http.StatusNotFound {
		t.Fatalf("missing welder: %d", w.Code)
	}

	recPath := "/records/" + itoa(first.Record.ID)
	w = do(r, http.MethodPut, recPath+"/quantity", `{"quantity":"10,5"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("correct: %d %s", w.Code, w.Body.String())
	}
	if res := decode[services.CorrectResult](t, w); !res.Changed || res.Record.Quantity != 10.5 {
		t.Fatalf("correct = %+v", res)
	}
	w = do(r, http.MethodPut, recPath+"/quantity", `{"quantity":10.5}`)
	if res := decode[services.CorrectResult](t, w); res.Changed {
		t.Fatalf("unchanged correct = %+v", res)
	}
	if w := do(r, http.MethodPut, recPath+"/quantity", `{"quantity":""}`); w.Code != http.StatusNoContent {
		t.Fatalf("blank correct: %d", w.Code)
	}
	if w := do(r, http.MethodPut, "/records/999/quantity", `{"quantity":1}`); w.Code != http.StatusNotFound {
		t.Fatalf("missing record: %d", w.Code)
	}

	hist := decode[[]domain.HistoryEntry](t, do(r, http.MethodGet, recPath+"/history", ""))
	if len(hist) != 2 || hist[0].NewQuantity != 8 || hist[1].NewQuantity != 10.5 {
		t.Fatalf("history = %+v", hist)
	}
	if w := do(r, http.MethodGet, "/records/999/history", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing history: %d", w.Code)
	}

	recs := decode[[]domain.Record](t, do(r, http.MethodGet, base, ""))
	if len(recs) != 1 || recs[0].Quantity != 10.5 {
		t.Fatalf("records = %+v", recs)
	}

	card := decode[services.WelderCard](t, do(r, http.MethodGet, "/welders/"+itoa(wd.ID), ""))
	if card.Welder.ID != wd.ID || len(card.Months) != 1 || card.Months[0].Articles[0].Quantity != 10.5 {
		t.Fatalf("card = %+v", card)
	}
}

func TestAddRecord_IdempotentReplay(t *testing.T) {
	a := newTestApp(t)
	r, h := newTestRouter(t, a)
	wd, _ := a.Welders.Add(context.Background(), "Petrov")
	path := "/welders/" + itoa(wd.ID) + "/records"
	body := `{"article":"XT637","quantity":2}`

	w1 := do(r, http.MethodPost, path, body, middleware.HeaderIdempotencyKey, "entry-1")
	w2 := do(r, http.MethodPost, path, body, middleware.HeaderIdempotencyKey, "entry-1")
	if w1.Code != http.StatusCreated || w2.Code != http.StatusCreated {
		t.Fatalf("codes = %d, %d", w1.Code, w2.Code)
	}
	if w2.Header().Get("Idempotent-Replay") != "true" {
		t.Fatalf("second call was not a replay")
	}
	recs, _ := a.Records.ListByWelder(context.Background(), wd.ID)
	if len(recs) != 1 || recs[0].Quantity != 2 {
		t.Fatalf("records after replay = %+v", recs)
	}
	if h.Replays.Len() != 1 {
		t.Fatalf("replay entries = %d", h.Replays.Len())
	}

	// A new key applies again and merges.
	if w := do(r, http.MethodPost, path, body, middleware.HeaderIdempotencyKey, "entry-2"); w.Code != http.StatusOK {
		t.Fatalf("new key: %d", w.Code)
	}
	if w := do(r, http.MethodPost, path, body, middleware.HeaderIdempotencyKey, "bad key!"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad key: %d", w.Code)
	}
}

func TestSummary_ETagAndXLSX(t *testing.T) {
	a := newTestApp(t)
	r, _ := newTestRouter(t, a)
	ctx := context.Background()
	w1, _ := a.Welders.Add(ctx, "Ivanov")
	w2, _ := a.Welders.Add(ctx, "Petrov")
	if _, err := a.Records.Add(ctx, w1.ID, "XT637", "5"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Records.Add(ctx, w2.ID, "XT637", "2"); err != nil {
		t.Fatal(err)
	}

	w := do(r, http.MethodGet, "/summary", "")
	if w.Code != http.StatusOK {
		t.Fatalf("summary: %d", w.Code)
	}
	etag := w.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"summary:`) {
		t.Fatalf("etag = %q", etag)
	}
	var months []struct {
		Articles []struct {
			Article       string             `json:"article"`
			TotalQuantity float64            `json:"totalQuantity"`
			WelderDetails map[string]float64 `json:"welderDetails"`
		} `json:"articles"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &months); err != nil {
		t.Fatal(err)
	}
	if len(months) != 1 || months[0].Articles[0].TotalQuantity != 7 || months[0].Articles[0].WelderDetails["Petrov"] != 2 {
		t.Fatalf("summary = %s", w.Body.String())
	}

	if w := do(r, http.MethodGet, "/summary", "", "If-None-Match", etag); w.Code != http.StatusNotModified {
		t.Fatalf("conditional: %d", w.Code)
	}
	if _, err := a.Records.Add(ctx, w1.ID, "XT637", "1"); err != nil {
		t.Fatal(err)
	}
	if w := do(r, http.MethodGet, "/summary", "", "If-None-Match", etag); w.Code != http.StatusOK {
		t.Fatalf("after change: %d", w.Code)
	}

	w = do(r, http.MethodGet, "/summary.xlsx", "")
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("xlsx: %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Summary")
	if err != nil || len(rows) < 4 {
		t.Fatalf("rows = %v, %v", rows, err)
	}
}

func TestSnapshot_ExportImport(t *testing.T) {
	src := newTestApp(t)
	rs, _ := newTestRouter(t, src)
	ctx := context.Background()
	wd, _ := src.Welders.Add(ctx, "Ivanov")
	_, _ = src.Norms.Add(ctx, "XT637")
	if _, err := src.Records.Add(ctx, wd.ID, "XT637", "5"); err != nil {
		t.Fatal(err)
	}

	exp := do(rs, http.MethodGet, "/snapshot", "")
	if exp.Code != http.StatusOK {
		t.Fatalf("export: %d", exp.Code)
	}
	want := services.FileName(time.Now())
	if cd := exp.Header().Get("Content-Disposition"); !strings.Contains(cd, want) {
		t.Fatalf("disposition = %q want %q", cd, want)
	}
	if got := decode[domain.Snapshot](t, exp); got.Version != domain.SnapshotVersion || len(got.Data.Records) != 1 {
		t.Fatalf("snapshot = %+v", got)
	}
	doc := exp.Body.String()

	dst := newTestApp(t)
	rd, _ := newTestRouter(t, dst)

	if w := do(rd, http.MethodPost, "/snapshot/import?mode=bogus", doc); w.Code != http.StatusBadRequest {
		t.Fatalf("bad mode: %d", w.Code)
	}
	if w := do(rd, http.MethodPost, "/snapshot/import", `{"version":"1.0"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed: %d", w.Code)
	} else if e := decode[ErrorResponse](t, w); e.Code != ErrCodeMalformedSnapshot {
		t.Fatalf("malformed code = %q", e.Code)
	}

	w := do(rd, http.MethodPost, "/snapshot/import", doc)
	if w.Code != http.StatusOK {
		t.Fatalf("additive: %d %s", w.Code, w.Body.String())
	}
	if rep := decode[services.ImportReport](t, w); rep.WeldersAdded != 1 || rep.NormsAdded != 1 || rep.Mode != services.ModeAdditive {
		t.Fatalf("additive report = %+v", rep)
	}

	if w := do(rd, http.MethodPost, "/snapshot/import?mode=replace", doc); w.Code != http.StatusConflict {
		t.Fatalf("unconfirmed replace: %d", w.Code)
	} else if e := decode[ErrorResponse](t, w); e.Code != ErrCodeImportAborted {
		t.Fatalf("unconfirmed code = %q", e.Code)
	}

	w = do(rd, http.MethodPost, "/snapshot/import?mode=replace&confirm=true", doc)
	if w.Code != http.StatusOK {
		t.Fatalf("replace: %d %s", w.Code, w.Body.String())
	}
	st, _ := repo.StoreStats(ctx, dst.DB)
	if st.Welders != 1 || st.Records != 1 || st.Norms != 1 {
		t.Fatalf("stats after replace = %+v", st)
	}
}

func TestImportSnapshot_SizeLimit(t *testing.T) {
	a := newTestApp(t)
	r, h := newTestRouter(t, a)
	h.MaxImportBytes = 16
	w := do(r, http.MethodPost, "/snapshot/import", `{"version":"1.0","data":{"welders":[]}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("oversize: %d", w.Code)
	}
}

type failingRecords struct{ RecordService }

func (failingRecords) Summary(context.Context) ([]aggregate.MonthSummary, error) {
	return nil, errors.New("boom")
}

func TestSummary_ServiceErrorIs500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := New(nil, nil, failingRecords{}, nil, nil)
	r := gin.New()
	r.GET("/summary", h.Summary)
	r.GET("/summary.xlsx", h.SummaryXLSX)

	w := do(r, http.MethodGet, "/summary", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("summary: %d", w.Code)
	}
	if e := decode[ErrorResponse](t, w); e.Code != "summary_failed" || e.Message != "internal server error" {
		t.Fatalf("body = %+v", e)
	}
	if w := do(r, http.MethodGet, "/summary.xlsx", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("xlsx: %d", w.Code)
	}
}

func TestSummary_ETagChangesAfterReplaceImport(t *testing.T) {
	a := newTestApp(t)
	r, _ := newTestRouter(t, a)
	ctx := context.Background()
	wd, _ := a.Welders.Add(ctx, "Ivanov")
	if _, err := a.Records.Add(ctx, wd.ID, "XT637", "5"); err != nil {
		t.Fatal(err)
	}

	w := do(r, http.MethodGet, "/summary", "")
	etag := w.Header().Get("ETag")
	before, _ := repo.StoreStats(ctx, a.DB)

	snap, err := a.Snapshots.Export(ctx)
	if err != nil {
		t.Fatal(err)
	}
	snap.Data.Welders[0].Name = "Petrov"
	snap.Data.Records[0].Quantity = 99
	yes := services.ConfirmFunc(func(context.Context, services.ImportPreview) (bool, error) { return true, nil })
	if _, err := a.Snapshots.ImportReplace(ctx, snap, yes); err != nil {
		t.Fatal(err)
	}
	after, _ := repo.StoreStats(ctx, a.DB)
	if before.Welders != after.Welders || before.Records != after.Records || before.History != after.History {
		t.Fatalf("stats differ: %+v vs %+v", before, after)
	}

	w = do(r, http.MethodGet, "/summary", "", "If-None-Match", etag)
	if w.Code != http.StatusOK {
		t.Fatalf("after replace: %d", w.Code)
	}
	if w.Header().Get("ETag") == etag {
		t.Fatalf("etag unchanged: %s", etag)
	}
	if !strings.Contains(w.Body.String(), `"Petrov":99`) {
		t.Fatalf("summary = %s", w.Body.String())
	}
}

func TestGeneration_Tag(t *testing.T) {
	g := NewGeneration()
	first := g.Tag()
	g.Bump()
	if g.Tag() == first {
		t.Fatalf("tag did not change after Bump: %s", first)
	}
	if NewGeneration().Tag() == first {
		t.Fatal("new generation reused an epoch")
	}
	var none *Generation
	if none.Tag() != "-" {
		t.Fatalf("nil tag = %q", none.Tag())
	}
}
