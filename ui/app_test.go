package ui

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"renovate/internal/dataset"
	"renovate/internal/pipeline"
	"renovate/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Pipeline.Model.Rounds = 20
	app, err := NewApp(cfg)
	require.NoError(t, err)
	return app
}

func uploadRequest(t *testing.T, filename, content string, showImportance bool) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(uploadField, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	if showImportance {
		require.NoError(t, mw.WriteField(importanceField, "1"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/?page=mvp", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func buildingsCSV() string {
	return testkit.BuildingsCSV(40, 1)
}

func serve(app *App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHomeIsDefault(t *testing.T) {
	app := newTestApp(t)

	for _, target := range []string{"/", "/?page=home", "/?page=other"} {
		rec := serve(app, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, rec.Code, target)

		body := rec.Body.String()
		assert.Contains(t, body, "Energy Efficiency and Renovation Opportunities in Germany")
		assert.Contains(t, body, "Market Opportunity")
		assert.Contains(t, body, `href="/?page=mvp"`)
		assert.Contains(t, body, "Go to MVP")
		assert.NotContains(t, body, "Upload your CSV file")
	}
}

func TestMVPPage(t *testing.T) {
	rec := serve(newTestApp(t), httptest.NewRequest(http.MethodGet, "/?page=mvp", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "MVP: Energy Consumption Predictions and Renovation Suggestions")
	assert.Contains(t, body, "Upload your CSV file")
	assert.Contains(t, body, "Show Top 3 Feature Importance Bar Chart")
	assert.Contains(t, body, `href="/?page=home"`)
	assert.NotContains(t, body, "Data Preview:")
}

func TestUploadRendersResults(t *testing.T) {
	rec := serve(newTestApp(t), uploadRequest(t, "buildings.csv", buildingsCSV(), false))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Data Preview:")
	assert.Contains(t, body, "<td>bldg-0001</td>")
	assert.Contains(t, body, "Summary Statistics:")
	assert.Contains(t, body, "Data has been split and scaled.")
	assert.Contains(t, body, "Model has been trained successfully!")
	assert.Contains(t, body, "Model Mean Squared Error: ")
	assert.Contains(t, body, `src="data:image/png;base64,`)
	assert.Equal(t, 1, strings.Count(body, `src="data:image/png;base64,`))
}

func TestUploadWithImportanceChart(t *testing.T) {
	rec := serve(newTestApp(t), uploadRequest(t, "buildings.csv", buildingsCSV(), true))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Equal(t, 2, strings.Count(body, `src="data:image/png;base64,`))
	assert.Contains(t, body, "checked")
	assert.Contains(t, body, `alt="Top 3 Feature Importance"`)
}

// linearCSV has rooms tracking the target and windows as noise.
func linearCSV() string {
	noise := []int{7, 2, 9, 4, 1, 8, 3, 6, 0, 5}
	var b strings.Builder
	b.WriteString("id,building_renovation_percent,rooms,windows\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "%d,%d,%d,%d\n", i+1, 3*(i+1)+5, i+1, noise[i])
	}
	return b.String()
}

func TestUploadImportanceChartWithShortNames(t *testing.T) {
	rec := serve(newTestApp(t), uploadRequest(t, "rooms.csv", linearCSV(), true))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Model Mean Squared Error: ")
	assert.Equal(t, 2, strings.Count(body, `src="data:image/png;base64,`))
	assert.Contains(t, body, "<li>rooms: ")
	assert.NotContains(t, body, "could not be drawn")
}

func TestImportanceChartFailureKeepsResults(t *testing.T) {
	app := newTestApp(t)
	app.importanceChart = func([]pipeline.FeatureImportance, int) ([]byte, error) {
		return nil, errors.New("canvas too small")
	}

	rec := serve(app, uploadRequest(t, "rooms.csv", linearCSV(), true))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Model Mean Squared Error: ")
	assert.Equal(t, 1, strings.Count(body, `src="data:image/png;base64,`))
	assert.Contains(t, body, "The feature importance chart could not be drawn.")
	assert.Contains(t, body, "<li>rooms: ")
}

func TestTopKLabels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pipeline.Model.Rounds = 10
	cfg.Pipeline.TopK = 2
	app, err := NewApp(cfg)
	require.NoError(t, err)

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/?page=mvp", nil))
	assert.Contains(t, rec.Body.String(), "Show Top 2 Feature Importance Bar Chart")

	rec = serve(app, uploadRequest(t, "buildings.csv", buildingsCSV(), true))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `alt="Top 2 Feature Importance"`)
	assert.Equal(t, 2, strings.Count(rec.Body.String(), "<li>"))
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		status   int
		code     string
		message  string
	}{
		{
			name:     "missing id",
			filename: "buildings.csv",
			content:  "age,building_renovation_percent\n1,2\n3,4\n",
			status:   http.StatusBadRequest,
			code:     "SCHEMA_ERROR",
			message:  "must contain &#39;building_renovation_percent&#39; and &#39;id&#39; columns",
		},
		{
			name:     "text feature",
			filename: "buildings.csv",
			content:  "id,heating,building_renovation_percent\n1,gas,2\n2,oil,4\n",
			status:   http.StatusBadRequest,
			code:     "INVALID_INPUT",
			message:  "must be numeric",
		},
		{
			name:     "infinite feature",
			filename: "buildings.csv",
			content:  "id,age,building_renovation_percent\n1,4,2\n2,inf,4\n3,6,5\n",
			status:   http.StatusBadRequest,
			code:     "INVALID_INPUT",
			message:  "must be finite",
		},
		{
			name:     "malformed csv",
			filename: "buildings.csv",
			content:  "id,building_renovation_percent\n1,2,3\n",
			status:   http.StatusBadRequest,
			code:     "PARSE_ERROR",
			message:  "could not be read",
		},
		{
			name:     "single row",
			filename: "buildings.csv",
			content:  "id,age,building_renovation_percent\n1,2,3\n",
			status:   http.StatusBadRequest,
			code:     "INSUFFICIENT_DATA",
			message:  "not contain enough data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTestApp(t), uploadRequest(t, tt.filename, tt.content, false))
			assert.Equal(t, tt.status, rec.Code)

			body := rec.Body.String()
			assert.Contains(t, body, `data-code="`+tt.code+`"`)
			assert.Contains(t, body, tt.message)
			assert.NotContains(t, body, "Model Mean Squared Error")
		})
	}
}

func TestSchemaErrorKeepsPreview(t *testing.T) {
	content := "age,building_renovation_percent\n41,2\n"
	rec := serve(newTestApp(t), uploadRequest(t, "buildings.csv", content, false))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Data Preview:")
	assert.Contains(t, rec.Body.String(), "<td>41</td>")
}

func TestUploadWithoutFile(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/?page=mvp", strings.NewReader("show_importance=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := serve(newTestApp(t), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please upload a CSV file.")
}

func TestUploadTooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxUploadBytes = 64
	app, err := NewApp(cfg)
	require.NoError(t, err)

	rec := serve(app, uploadRequest(t, "buildings.csv", buildingsCSV(), false))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "exceeds the size limit")
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "renovate_pipeline_runs_total")
}

func TestStaticAssets(t *testing.T) {
	rec := serve(newTestApp(t), httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".container")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"schema", &dataset.SchemaError{Required: []string{"id"}, Missing: []string{"id"}}, "SCHEMA_ERROR"},
		{"column type", fmt.Errorf("matrix: %w", &dataset.ColumnTypeError{Column: "age", Row: 2, Value: "inf", NonFinite: true}), "INVALID_INPUT"},
		{"parse", fmt.Errorf("%w: bare quote", dataset.ErrParse), "PARSE_ERROR"},
		{"insufficient", dataset.ErrInsufficientData, "INSUFFICIENT_DATA"},
		{"anything else", errors.New("fit model: boom"), "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := classify(tt.err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.NotEmpty(t, appErr.Message)
		})
	}

	internal := classify(errors.New("fit model: boom"))
	assert.Equal(t, "Model training failed.", internal.Message)
	assert.EqualError(t, internal.Cause, "fit model: boom")
}
