package router

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sk3tch4d/Anikto-Opsis-sub000/config"
	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/api/handler"
	"github.com/sk3tch4d/Anikto-Opsis-sub000/internal/service"
)

const rosterDoc = `Inventory Services Weekly Schedule 13/Jan/2025
D101 07:00 15:00 Smith, John
E201 15:00 23:00 Doe, Jane
`

// newTestEngine 不启用数据库与 Redis，名册写入临时目录
func newTestEngine(t *testing.T, maxUpload int64) http.Handler {
	t.Helper()
	dir := t.TempDir()
	rosterPath := filepath.Join(dir, "roster.yaml")
	require.NoError(t, os.WriteFile(rosterPath, []byte("- \"Smith, John\"\n- \"Doe, Jane\"\n"), 0o644))

	cfg := &config.Config{
		Server: config.ServerConfig{Port: 8080, MaxUploadBytes: maxUpload, RateLimit: 30},
		Roster: config.RosterConfig{
			RosterFile:     rosterPath,
			AnchorDate:     "2025-01-13",
			AlwaysDayCodes: []string{"313"},
			FilterByRoster: true,
			DedupMode:      config.DedupModeSlot,
		},
		Report: config.ReportConfig{FilePrefix: "ARGX", Workers: 2},
	}
	svc := service.NewService(cfg, nil, nil, zap.NewNop())
	return Setup(cfg, handler.NewHandler(svc), nil, nil, zap.NewNop())
}

func upload(t *testing.T, engine http.Handler, path, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("files", name)
	require.NoError(t, err)
	fw.Write([]byte(content))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestHealth_DependenciesDisabled(t *testing.T) {
	w := httptest.NewRecorder()
	newTestEngine(t, 1<<20).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "disabled", body.Dependencies["database"])
	assert.Equal(t, "disabled", body.Dependencies["redis"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestReports_SummaryEndToEnd(t *testing.T) {
	w := upload(t, newTestEngine(t, 1<<20), "/api/v1/reports/summary", "roster_2025-01-13.txt", rosterDoc)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Code int `json:"code"`
		Data struct {
			ShiftCount int      `json:"shift_count"`
			People     []string `json:"people"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, 2, resp.Data.ShiftCount)
	assert.Equal(t, []string{"Doe, Jane", "Smith, John"}, resp.Data.People)
}

func TestReports_WorkbookDownload(t *testing.T) {
	w := upload(t, newTestEngine(t, 1<<20), "/api/v1/reports/workbook", "roster_2025-01-13.txt", rosterDoc)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "ARGX_2025-01-13.xlsx")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

func TestReports_NoValidShifts(t *testing.T) {
	w := upload(t, newTestEngine(t, 1<<20), "/api/v1/reports/heatmap", "empty.txt", "nothing to see\n")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestReports_BodyTooLarge(t *testing.T) {
	w := upload(t, newTestEngine(t, 256), "/api/v1/reports/summary", "big.txt", strings.Repeat(rosterDoc, 20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestReports_ImportWithoutDatabase(t *testing.T) {
	engine := newTestEngine(t, 1<<20)

	w := upload(t, engine, "/api/v1/reports/import", "roster_2025-01-13.txt", rosterDoc)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reports/runs", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reports/runs/abc/shifts?person=Doe,%20Jane", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
