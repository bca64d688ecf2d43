package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/graphshift/pkg/errors"
	"github.com/matzehuels/graphshift/pkg/format"
	"github.com/matzehuels/graphshift/pkg/pipeline"
	"github.com/matzehuels/graphshift/pkg/render"
	"github.com/matzehuels/graphshift/pkg/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeOptions reads pipeline options from the request body.
func decodeOptions(r *http.Request) (pipeline.Options, error) {
	var opts pipeline.Options
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, pipeline.MaxSourceBytes+4096)).Decode(&opts); err != nil {
		return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed request body")
	}
	return opts, nil
}

// handleConvert runs one conversion and returns the full bundle. Per-target
// failures travel inside the bundle; the request itself succeeds unless the
// options are invalid.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	opts, err := decodeOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	bundle, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	data, err := pipeline.MarshalBundle(bundle)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleRender converts and rasterizes in one request. The image format
// comes from the ?format query parameter (svg by default).
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := decodeOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	imgFormat := render.SVG
	if q := r.URL.Query().Get("format"); q != "" {
		imgFormat, err = render.ParseImageFormat(q)
		if err != nil {
			s.writeError(w, err)
			return
		}
	}

	img, _, err := s.runner.Render(r.Context(), opts, imgFormat)
	if err != nil {
		s.writeError(w, err)
		return
	}

	switch imgFormat {
	case render.SVG:
		w.Header().Set("Content-Type", "image/svg+xml")
	case render.PNG:
		w.Header().Set("Content-Type", "image/png")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

// requireStore answers 503 when no store is configured.
func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "no graph store configured"))
		return false
	}
	return true
}

// handleSaveGraph converts the submitted source and saves the result under
// the path name. Sources that fail every target are rejected so the store
// only holds usable graphs.
func (s *Server) handleSaveGraph(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	name := chi.URLParam(r, "name")

	opts, err := decodeOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	bundle, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if bundle.Failed() {
		_, parseErr := bundle.Text(bundle.Source)
		s.writeError(w, parseErr)
		return
	}

	targets := make(map[string]string, len(bundle.Targets))
	for f := range bundle.Targets {
		if text, err := bundle.Text(f); err == nil {
			targets[string(f)] = text
		}
	}

	rec := store.NewRecord(name, string(opts.SourceFormat), opts.SourceText, targets)
	if err := s.store.Save(r.Context(), rec); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	// ?format=dot returns just that target's text.
	if q := r.URL.Query().Get("format"); q != "" {
		f, err := format.ParseFormat(q)
		if err != nil {
			s.writeError(w, err)
			return
		}
		text, ok := rec.Targets[string(f)]
		if !ok {
			s.writeError(w, errors.New(errors.ErrCodeNotFound,
				"saved conversion %q has no %s target", rec.Name, f))
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(text))
		return
	}

	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListGraphs(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	recs, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}
	s.writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleDeleteGraph(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
