package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/testutil"
	"github.com/joseph-ayodele/budget-extractor/internal/validate"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, db := newTestService(t)
	h := NewHTTPHandler(svc, HTTPConfig{
		Health: func(ctx context.Context) error { return db.HealthCheck(ctx, time.Second) },
	}, nil)
	return h.Routes()
}

func uploadRequest(t *testing.T, filename string, data []byte, query string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/extract"+query, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func saveRecord(t *testing.T, h http.Handler, rec entity.ExtractedRecord) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(rec)
	require.NoError(t, err)
	return do(h, httptest.NewRequest(http.MethodPost, "/save", bytes.NewReader(b)))
}

func TestHTTP_Health(t *testing.T) {
	h := newTestRouter(t)
	rr := do(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestHTTP_HealthUnavailable(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewHTTPHandler(svc, HTTPConfig{
		Health: func(context.Context) error { return errors.New("db down") },
	}, nil).Routes()

	rr := do(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestHTTP_Extract(t *testing.T) {
	h := newTestRouter(t)

	rr := do(h, uploadRequest(t, "proposal.pdf", testutil.MinimalPDF("page"), ""))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res entity.ExtractionResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, "อบรมเชิงปฏิบัติการ AI", res.Record.ProjectName)
	assert.Equal(t, "ดร.วิภา แสงทอง", res.Record.ResponsiblePerson)
	assert.Len(t, res.Record.BudgetItems, 2)
	assert.Empty(t, res.ValidationErrors)
	assert.Contains(t, rr.Body.String(), `"validation_errors":[]`)
	assert.Equal(t, "regex", res.Backend)
}

func TestHTTP_ExtractRejects(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name string
		req  *http.Request
		want int
	}{
		{name: "wrong extension", req: uploadRequest(t, "proposal.txt", []byte("hello"), ""), want: http.StatusBadRequest},
		{name: "unknown backend", req: uploadRequest(t, "proposal.pdf", testutil.MinimalPDF("x"), "?backend=nope"), want: http.StatusBadRequest},
		{name: "missing file field", req: httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader("")), want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(h, tt.req)
			assert.Equal(t, tt.want, rr.Code)
			assert.Contains(t, rr.Body.String(), `"error"`)
		})
	}
}

func TestHTTP_SaveAndBrowse(t *testing.T) {
	h := newTestRouter(t)

	rr := saveRecord(t, h, entity.ExtractedRecord{
		ProjectName:       "ค่ายวิชาการ",
		ResponsiblePerson: "นาย ก",
		BudgetItems: []entity.BudgetItem{
			{ActivityName: "General", Description: "Snacks", Amount: 450},
			{ActivityName: "General", Description: "Shirts", Amount: 1200.5},
		},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var saved saveResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &saved))
	assert.Equal(t, "Data saved successfully", saved.Message)
	assert.Positive(t, saved.ProjectID)

	rr = do(h, httptest.NewRequest(http.MethodGet, "/projects", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []projectDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 1650.5, list[0].Total)

	rr = do(h, httptest.NewRequest(http.MethodGet, "/projects/1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got projectDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "ค่ายวิชาการ", got.ProjectName)
	assert.Len(t, got.BudgetItems, 2)

	rr = do(h, httptest.NewRequest(http.MethodGet, "/export.xlsx", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Projects")

	rr = do(h, httptest.NewRequest(http.MethodDelete, "/projects/1", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(h, httptest.NewRequest(http.MethodGet, "/projects/1", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHTTP_SaveInvalid(t *testing.T) {
	h := newTestRouter(t)

	rr := saveRecord(t, h, entity.ExtractedRecord{ProjectName: "X", BudgetItems: []entity.BudgetItem{}})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var body validationResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, []string{validate.MsgResponsiblePersonMissing, validate.MsgNoBudgetItems}, body.ValidationErrors)

	rr = do(h, httptest.NewRequest(http.MethodGet, "/projects", nil))
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestHTTP_SaveBadBody(t *testing.T) {
	h := newTestRouter(t)
	rr := do(h, httptest.NewRequest(http.MethodPost, "/save", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHTTP_BadProjectID(t *testing.T) {
	h := newTestRouter(t)
	for _, path := range []string{"/projects/abc", "/projects/0", "/projects/-3"} {
		rr := do(h, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
	}
}
