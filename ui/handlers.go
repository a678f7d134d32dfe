package ui

import (
	stderrors "errors"
	"html/template"
	"net/http"

	"renovate/internal/dataset"
	"renovate/internal/errors"
	"renovate/internal/navigator"
	"renovate/internal/pipeline"
	"renovate/internal/profiling"
	"renovate/internal/render"

	"github.com/rs/zerolog"
)

const (
	homeTitle = "Energy Efficiency and Renovation Opportunities in Germany"
	mvpTitle  = "MVP: Energy Consumption Predictions and Renovation Suggestions"

	uploadField     = "dataset"
	importanceField = "show_importance"
)

// pageData is the view model shared by both screens.
type pageData struct {
	Title    string
	Page     navigator.Page
	NavURL   string
	NavLabel string
	Home     template.HTML
	TopK     int
	Upload   *uploadView
}

type uploadView struct {
	FileName       string
	Columns        []string
	Preview        [][]string
	ShowImportance bool
	Error          string
	ErrorCode      string
	Result         *resultView
}

type resultView struct {
	RunID            string
	MSE              string
	TrainRows        int
	TestRows         int
	ConstantFeatures []string
	ScatterURI       template.URL
	ImportanceTitle  string
	ImportanceURI    template.URL
	ImportanceError  string
	TopFeatures      []pipeline.FeatureImportance
	Profiles         []profiling.ColumnProfile
}

func (a *App) newPage(page navigator.Page) pageData {
	data := pageData{Page: page, NavURL: page.Toggle().URL(), TopK: a.cfg.Pipeline.TopK}
	if page == navigator.PageMVP {
		data.Title = mvpTitle
		data.NavLabel = "Go Back to Home"
	} else {
		data.Title = homeTitle
		data.NavLabel = "Go to MVP"
		data.Home = a.homeCopy
	}
	return data
}

// handleIndex renders the screen selected by the page query parameter
func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := navigator.ParsePage(r.URL.Query())
	a.renderTemplate(w, http.StatusOK, page.String()+".html", a.newPage(page))
}

// handleUpload runs the full pipeline on an uploaded dataset and renders the results
func (a *App) handleUpload(w http.ResponseWriter, r *http.Request) {
	data := a.newPage(navigator.PageMVP)
	view := &uploadView{}
	data.Upload = view

	fail := func(appErr *errors.AppError) {
		view.Error = appErr.Message
		view.ErrorCode = appErr.Code
		a.renderTemplate(w, errors.HTTPStatus(appErr.Code), "mvp.html", data)
	}

	if r.ContentLength > a.cfg.MaxUploadBytes {
		fail(errors.InvalidInput("The uploaded file exceeds the size limit."))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, a.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			fail(errors.InvalidInput("The uploaded file exceeds the size limit."))
			return
		}
		fail(errors.InvalidInput("Please upload a CSV file."))
		return
	}
	view.ShowImportance = r.FormValue(importanceField) != ""

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		fail(errors.InvalidInput("Please upload a CSV file."))
		return
	}
	defer file.Close()
	view.FileName = header.Filename

	log := a.log.With().Str("file", header.Filename).Int64("bytes", header.Size).Logger()
	log.Info().Msg("dataset uploaded")

	ds, err := dataset.Load(header.Filename, file)
	if err != nil {
		fail(classify(err))
		return
	}
	view.Columns = ds.Columns()
	view.Preview = ds.Preview(a.cfg.PreviewRows)

	res, err := pipeline.Run(r.Context(), ds, a.cfg.Pipeline)
	if err != nil {
		fail(classify(err))
		return
	}

	result, err := a.buildResult(res, view.ShowImportance, log)
	if err != nil {
		log.Error().Err(err).Str("run_id", res.RunID).Msg("scatter rendering failed")
		fail(errors.New(errors.CodeRenderError, "The scatter plot could not be drawn."))
		return
	}
	view.Result = result
	a.renderTemplate(w, http.StatusOK, "mvp.html", data)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// buildResult draws the charts for a finished run. Only a failed scatter plot
// fails the page; a failed importance chart leaves the ranking as text.
func (a *App) buildResult(res *pipeline.Result, showImportance bool, log zerolog.Logger) (*resultView, error) {
	scatter, err := render.ScatterPNG(res.TestActual, res.TestPredicted, res.TargetMin, res.TargetMax)
	if err != nil {
		return nil, err
	}
	view := &resultView{
		RunID:            res.RunID,
		MSE:              res.FormattedMSE(),
		TrainRows:        res.TrainRows,
		TestRows:         res.TestRows,
		ConstantFeatures: res.ConstantFeatures,
		ScatterURI:       template.URL(render.DataURI(scatter)),
		ImportanceTitle:  render.ImportanceTitle(a.cfg.Pipeline.TopK),
		TopFeatures:      res.TopFeatures,
		Profiles:         res.Profiles,
	}
	if !showImportance {
		return view, nil
	}

	bars, err := a.importanceChart(res.TopFeatures, a.cfg.Pipeline.TopK)
	if err != nil {
		log.Warn().Err(err).Str("run_id", res.RunID).Msg("importance chart rendering failed")
		view.ImportanceError = "The feature importance chart could not be drawn."
		return view, nil
	}
	view.ImportanceURI = template.URL(render.DataURI(bars))
	return view, nil
}

// classify turns pipeline failures into user-facing application errors.
func classify(err error) *errors.AppError {
	var schemaErr *dataset.SchemaError
	var typeErr *dataset.ColumnTypeError
	switch {
	case stderrors.As(err, &schemaErr):
		return errors.New(errors.CodeSchemaError, schemaErr.Error())
	case stderrors.As(err, &typeErr):
		return errors.New(errors.CodeInvalidInput, typeErr.Error())
	case stderrors.Is(err, dataset.ErrParse):
		return errors.New(errors.CodeParseError, "The file could not be read as a CSV table.")
	case stderrors.Is(err, dataset.ErrInsufficientData):
		return errors.New(errors.CodeInsufficientData, "The file does not contain enough data to train a model.")
	default:
		return errors.InternalError("Model training failed.", err)
	}
}
