package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"fjacquet/statement-insights/internal/analysis"
	"fjacquet/statement-insights/internal/dateutils"
	"fjacquet/statement-insights/internal/factory"
	"fjacquet/statement-insights/internal/models"
	"fjacquet/statement-insights/internal/parsererror"
	"fjacquet/statement-insights/internal/processor"
	"fjacquet/statement-insights/internal/recommender"
	"fjacquet/statement-insights/internal/textutils"
	"fjacquet/statement-insights/internal/uploadstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "Date,Amount,Description\n2024-01-01,-45.20,Corner Cafe\n2024-01-02,3000,Salary\n"

type stubRecommender struct {
	result *models.Recommendations
	err    error
}

func (s stubRecommender) Recommend(context.Context, []models.Transaction) (*models.Recommendations, error) {
	return s.result, s.err
}

func newTestServer(t *testing.T, maxBytes int64, rec func() (recommender.Recommender, error)) (*Server, *uploadstore.Store) {
	t.Helper()
	uploads, err := uploadstore.New(t.TempDir(), nil)
	require.NoError(t, err)

	registry := factory.NewRegistry(factory.Options{
		HeaderScanRows: 10,
		DateOrder:      dateutils.MonthFirst,
		Sign:           textutils.DefaultSignPolicy(),
	})
	return New(Deps{
		Processor:   processor.New(registry, nil, processor.Config{MaxBytes: maxBytes}, nil),
		Analyzer:    analysis.NewAnalyzer(nil),
		Uploads:     uploads,
		Recommender: rec,
		MaxBytes:    maxBytes,
		Mode:        gin.TestMode,
	}), uploads
}

func multipartBody(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func postFile(t *testing.T, s *Server, path, filename, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, filename, contentType, data)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func postJSON(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, 1<<20, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUpload_CSV(t *testing.T) {
	s, _ := newTestServer(t, 1<<20, nil)
	rec := postFile(t, s, "/api/upload", "statement.csv", "text/csv", []byte(sampleCSV))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body transactionsBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Transactions, 2)
	assert.Equal(t, "Corner Cafe", body.Transactions[0].Counterparty)
	assert.Equal(t, models.CategoryFood, body.Transactions[0].Category)
	assert.Equal(t, models.CategoryIncome, body.Transactions[1].Category)
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		data        []byte
		wantStatus  int
		wantCode    parsererror.Code
	}{
		{"unsupported type", "archive.zip", "application/zip", []byte("PK\x03\x04"), http.StatusUnsupportedMediaType, parsererror.CodeUnsupportedFileType},
		{"empty csv", "empty.csv", "text/csv", []byte("   "), http.StatusUnprocessableEntity, parsererror.CodeInvalidFileContent},
		{"bad pdf signature", "fake.pdf", "application/pdf", []byte("hello"), http.StatusUnprocessableEntity, parsererror.CodeInvalidFileContent},
		{"missing amount column", "a.csv", "text/csv", []byte("Date,Description\n2024-01-01,Coffee\n"), http.StatusUnprocessableEntity, parsererror.CodeMissingRequiredColumn},
		{"too large", "big.csv", "text/csv", bytes.Repeat([]byte("a"), 200), http.StatusRequestEntityTooLarge, parsererror.CodeFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, 128, nil)
			rec := postFile(t, s, "/api/upload", tt.filename, tt.contentType, tt.data)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestUpload_NoFile(t *testing.T) {
	s, _ := newTestServer(t, 1<<20, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(""))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoredUploadFlow(t *testing.T) {
	s, uploads := newTestServer(t, 1<<20, nil)

	rec := postFile(t, s, "/api/file/upload", "statement.csv", "text/csv", []byte(sampleCSV))
	require.Equal(t, http.StatusOK, rec.Code)
	var stored struct {
		FileID string `json:"file_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	require.NotEmpty(t, stored.FileID)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/file/process?file_id="+stored.FileID, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body transactionsBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Transactions, 2)

	entries, err := os.ReadDir(uploads.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "stored files must be removed after processing")

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/file/process?file_id="+stored.FileID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, parsererror.CodeUploadNotFound, decodeError(t, rec).Code)
}

func TestStoredUpload_FailureCleansUp(t *testing.T) {
	s, uploads := newTestServer(t, 1<<20, nil)
	id, err := uploads.Save("broken.csv", "text/csv", []byte("Date,Description\n2024-01-01,Coffee\n"))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/file/process?file_id="+id, nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	entries, err := os.ReadDir(uploads.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessStored_MissingID(t *testing.T) {
	s, _ := newTestServer(t, 1<<20, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/file/process", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalysisBase(t *testing.T) {
	s, _ := newTestServer(t, 1<<20, nil)

	rec := postJSON(t, s, "/api/analysis/base", `{"transactions":[
		{"date":"2024-01-01","amount":-45.20,"currency":"USD","counterparty":"Starbucks","category":"Food"},
		{"date":"2024-01-02","amount":3000,"currency":"USD","counterparty":"ACME","category":"Income"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Summary.TotalTransactions)
	assert.Equal(t, 2, result.ReportInfo.PeriodInDays)

	rec = postJSON(t, s, "/api/analysis/base", `{"transactions":[]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, parsererror.CodePreconditionFailed, decodeError(t, rec).Code)

	rec = postJSON(t, s, "/api/analysis/base", `{"nope":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalysisRecommendations(t *testing.T) {
	const body = `{"transactions":[{"date":"2024-01-01","amount":-10,"counterparty":"X","category":"Other"}]}`
	ok := &models.Recommendations{Recommendations: models.RecommendationTiers{
		Easy: []models.Recommendation{{ID: "1", Title: "Cook at home"}},
	}}

	tests := []struct {
		name       string
		rec        func() (recommender.Recommender, error)
		wantStatus int
		wantCode   parsererror.Code
	}{
		{
			name: "not configured",
			rec: func() (recommender.Recommender, error) {
				return nil, &parsererror.ConfigurationError{Component: "recommender", Msg: "no key"}
			},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   parsererror.CodeConfiguration,
		},
		{
			name: "upstream failure",
			rec: func() (recommender.Recommender, error) {
				return stubRecommender{err: &parsererror.RecommendationError{Msg: "empty response"}}, nil
			},
			wantStatus: http.StatusBadGateway,
			wantCode:   parsererror.CodeRecommendationFailure,
		},
		{
			name: "success",
			rec: func() (recommender.Recommender, error) {
				return stubRecommender{result: ok}, nil
			},
			wantStatus: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, 1<<20, tt.rec)
			rec := postJSON(t, s, "/api/analysis/recommendations", body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
				return
			}
			var got models.Recommendations
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, "Cook at home", got.Recommendations.Easy[0].Title)
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, StatusFor(parsererror.CodeParseTimeout))
	assert.Equal(t, http.StatusBadGateway, StatusFor(parsererror.CodeOCRFailure))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(parsererror.CodeInternal))
}
