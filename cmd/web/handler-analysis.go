package main

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/analysis"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/contexthelpers"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/workout"
	"golang.org/x/sync/errgroup"
)

// analysisGET analyzes the recent sessions. With predictions=true the response includes next-session weights.
func (app *application) analysisGET(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts, err := app.analysisOptions(query)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	withPredictions := false
	if v := query.Get("predictions"); v != "" {
		if withPredictions, err = strconv.ParseBool(v); err != nil {
			app.handleError(w, r, fmt.Errorf("%w: predictions must be a boolean", errBadRequest))
			return
		}
	}

	if withPredictions {
		a, analyzeErr := app.analysisService.AnalyzeWithPredictions(r.Context(), opts)
		if analyzeErr != nil {
			app.handleError(w, r, analyzeErr)
			return
		}
		app.writeJSON(w, r, http.StatusOK, a)
		return
	}
	a, err := app.analysisService.Analyze(r.Context(), opts)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, a)
}

type dashboardResponse struct {
	Splits   []workout.Split           `json:"splits"`
	Analysis analysis.EnhancedAnalysis `json:"analysis"`
}

// dashboardGET loads the splits and the enhanced analysis concurrently.
func (app *application) dashboardGET(w http.ResponseWriter, r *http.Request) {
	var (
		resp dashboardResponse
		opts = app.analysisDefaults
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		splits, err := app.workoutService.ListSplits(ctx)
		if err != nil {
			return fmt.Errorf("load splits: %w", err)
		}
		resp.Splits = splits
		return nil
	})
	g.Go(func() error {
		a, err := app.analysisService.AnalyzeWithPredictions(ctx, opts)
		if err != nil {
			return fmt.Errorf("load analysis: %w", err)
		}
		resp.Analysis = a
		return nil
	})
	if err := g.Wait(); err != nil {
		app.handleError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, resp)
}

type reportTemplateData struct {
	CSPNonce string
	Report   template.HTML
}

// reportGET renders the enhanced analysis as an HTML page.
func (app *application) reportGET(w http.ResponseWriter, r *http.Request) {
	opts, err := app.analysisOptions(r.URL.Query())
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	body, err := app.analysisService.Report(r.Context(), opts)
	if err != nil {
		app.handleError(w, r, err)
		return
	}
	app.render(w, r, http.StatusOK, "report", reportTemplateData{
		CSPNonce: contexthelpers.CSPNonce(r.Context()),
		// The Markdown renderer drops raw HTML so the output contains only generated markup.
		Report: template.HTML(body), //nolint:gosec // see above.
	})
}
