// Package ingesthttp exposes the conversion pipeline over HTTP.
package ingesthttp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/markdownd/markdownd/internal/httpmw"
	"github.com/markdownd/markdownd/internal/ingest"
	"github.com/markdownd/markdownd/internal/log"
)

// Ingester runs one signed-URL conversion.
type Ingester interface {
	Ingest(ctx context.Context, req ingest.Request) (ingest.Response, error)
}

// API implements the conversion endpoint.
type API struct {
	pipeline Ingester
	logger   log.Logger
}

func NewAPI(pipeline Ingester, logger log.Logger) *API {
	if logger == nil {
		logger = log.Nop()
	}
	return &API{
		pipeline: pipeline,
		logger:   logger,
	}
}

// RegisterRoutes attaches the conversion endpoint to the router.
func (api *API) RegisterRoutes(r chi.Router) {
	r.With(httpmw.Scope("markitdown")).Post("/markitdown", api.HandleConvert)
}

// ConvertRequest is the request body for POST /markitdown.
type ConvertRequest struct {
	SignedURL string `json:"signed_url"`
	Filename  string `json:"filename,omitempty"`
	// EnablePlugins defaults to true when the field is absent.
	EnablePlugins *bool `json:"enable_plugins,omitempty"`
}

// ConvertResponse is the response body for POST /markitdown. Error is set
// only when OK is false.
type ConvertResponse struct {
	OK       bool   `json:"ok"`
	Markdown string `json:"markdown,omitempty"`
	Title    string `json:"title,omitempty"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
}

// HandleConvert decodes one conversion request, runs the pipeline, and maps
// the outcome onto the wire. Internal error detail never leaves the server;
// clients get the classified public message only.
func (api *API) HandleConvert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ConvertRequest
	if err := decodeBody(r.Body, &req); err != nil {
		api.logger.Debug(ctx, "rejected malformed request body", "error", err)
		api.writeJSON(ctx, w, http.StatusBadRequest, ConvertResponse{
			Error: "invalid request body",
		})
		return
	}

	enablePlugins := true
	if req.EnablePlugins != nil {
		enablePlugins = *req.EnablePlugins
	}

	resp, err := api.pipeline.Ingest(ctx, ingest.Request{
		SignedURL:     req.SignedURL,
		Filename:      req.Filename,
		EnablePlugins: enablePlugins,
	})
	if err != nil {
		kind := ingest.KindOf(err)
		status := kind.HTTPStatus()
		if status >= 500 {
			api.logger.Error(ctx, err, "conversion request failed",
				"kind", kind.String(),
			)
		} else {
			api.logger.Info(ctx, "conversion request rejected",
				"kind", kind.String(),
				"reason", ingest.PublicMessage(err),
			)
		}
		api.writeJSON(ctx, w, status, ConvertResponse{
			Error: ingest.PublicMessage(err),
		})
		return
	}

	api.writeJSON(ctx, w, http.StatusOK, ConvertResponse{
		OK:       true,
		Markdown: resp.Markdown,
		Title:    resp.Title,
		Filename: resp.Filename,
	})
}

// decodeBody parses a single JSON object and rejects trailing content.
func decodeBody(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("unexpected trailing content")
	}
	return nil
}

func (api *API) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		api.logger.Warn(ctx, "failed to encode JSON response", "error", err)
	}
}
