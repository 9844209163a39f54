package handlers

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nijaru/yt-summary/config"
	"github.com/nijaru/yt-summary/errors"
	"github.com/nijaru/yt-summary/middleware"
	"github.com/nijaru/yt-summary/models"
	"github.com/nijaru/yt-summary/pipeline"
	"github.com/nijaru/yt-summary/utils"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// multipart bodies carry boundaries and the other form fields on top of the
// file itself.
const formOverhead = 1 << 20

type Handler struct {
	pipeline    *pipeline.Pipeline
	cfg         *config.Config
	rateLimiter middleware.RateLimiter
	startTime   time.Time
}

func New(p *pipeline.Pipeline, cfg *config.Config) *Handler {
	return &Handler{
		pipeline:    p,
		cfg:         cfg,
		rateLimiter: middleware.NewRateLimiter(cfg.RateLimitInterval, cfg.RateLimit),
		startTime:   time.Now(),
	}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	limitedIndex := h.rateLimiter.Middleware(http.HandlerFunc(h.Index))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// Only form posts run the pipeline.
		if r.Method == http.MethodPost {
			limitedIndex.ServeHTTP(w, r)
			return
		}
		h.Index(w, r)
	})
	mux.Handle("/api/summarize", h.rateLimiter.Middleware(http.HandlerFunc(h.Summarize)))
	mux.HandleFunc("/health", h.Health)

	return middleware.Chain(mux, middleware.LoggingMiddleware)
}

type pageData struct {
	Input      string
	Timestamps bool
	Result     *pipeline.Result
	Error      string
}

// Index serves the page on GET and runs the pipeline for form posts,
// rendering the result into the same page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.renderPage(w, r, http.StatusOK, pageData{})
	case http.MethodPost:
		data := pageData{}
		req, err := h.parseRequest(w, r)
		if err == nil {
			data.Input, data.Timestamps = req.Input, req.Timestamps
			data.Result, err = h.run(r.Context(), req)
		}
		status := http.StatusOK
		if err != nil {
			status = errors.StatusCode(err)
			data.Error = pipeline.RenderError(err)
		}
		h.renderPage(w, r, status, data)
	default:
		utils.RespondWithError(w, errors.E("handlers.Index", errors.KindInvalidInput,
			http.StatusMethodNotAllowed, nil, "Invalid request method"))
	}
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := indexTemplate.Execute(w, data); err != nil {
		middleware.GetLogger(r.Context()).WithError(err).Error("Failed to render page")
	}
}

// Summarize is the JSON API. It accepts a JSON body, a urlencoded form or a
// multipart form with an optional "file" upload.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	if r.Method != http.MethodPost {
		utils.RespondWithError(w, errors.E("handlers.Summarize", errors.KindInvalidInput,
			http.StatusMethodNotAllowed, nil, "Invalid request method"))
		return
	}

	req, err := h.parseRequest(w, r)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	result, err := h.run(r.Context(), req)
	if err != nil {
		logger.WithError(err).Warn("Summarization request failed")
		utils.RespondWithError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, models.NewSummaryResponse(result))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}

func (h *Handler) run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	if h.cfg.SummarizeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.SummarizeTimeout)
		defer cancel()
	}

	return h.pipeline.Run(ctx, req)
}

func (h *Handler) parseRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, error) {
	const op = "handlers.parseRequest"

	maxUpload := h.pipeline.MaxUploadSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload+formOverhead)

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		var body models.SummarizeRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return pipeline.Request{}, errors.InvalidInput(op, err, "Invalid JSON body")
		}
		return pipeline.Request{Input: body.Input, Timestamps: body.Timestamps, Refresh: body.Refresh}, nil

	case strings.HasPrefix(contentType, "multipart/form-data"):
		if err := r.ParseMultipartForm(maxUpload); err != nil {
			var maxErr *http.MaxBytesError
			if pkgerrors.As(err, &maxErr) {
				return pipeline.Request{}, errors.InvalidInput(op, err, "The uploaded file is too large")
			}
			return pipeline.Request{}, errors.InvalidInput(op, err, "Invalid form data")
		}
	default:
		if err := r.ParseForm(); err != nil {
			return pipeline.Request{}, errors.InvalidInput(op, err, "Invalid form data")
		}
	}

	req := pipeline.Request{
		Input:      r.FormValue("input"),
		Timestamps: formBool(r.FormValue("timestamps")),
		Refresh:    formBool(r.FormValue("refresh")),
	}
	if req.Input == "" {
		req.Input = r.FormValue("url")
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == http.ErrMissingFile || err == http.ErrNotMultipart:
	case err != nil:
		return pipeline.Request{}, errors.InvalidInput(op, err, "Invalid file upload")
	default:
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxUpload+1))
		if err != nil {
			return pipeline.Request{}, errors.InvalidInput(op, err, "Failed to read uploaded file")
		}
		req.Upload = data
		req.UploadName = header.Filename
		logrus.WithFields(logrus.Fields{
			"file": header.Filename,
			"size": len(data),
		}).Debug("Received upload")
	}

	return req, nil
}

func formBool(value string) bool {
	if value == "on" {
		return true
	}
	b, _ := strconv.ParseBool(value)
	return b
}
