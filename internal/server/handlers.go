package server

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/greenloan/validator-cli/internal/model"
	"github.com/greenloan/validator-cli/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalyze accepts a multipart PDF upload and runs the full analysis
// synchronously, returning the report.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form or file too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "only PDF files are accepted")
		return
	}

	tmp, err := os.CreateTemp(s.uploadDir, "upload-*.pdf")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cannot store upload")
		return
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		writeError(w, http.StatusInternalServerError, "cannot store upload")
		return
	}
	tmp.Close()

	report, err := s.runner.Run(r.Context(), tmp.Name())
	if err != nil {
		zap.L().Error("server: analysis failed",
			zap.String("filename", header.Filename),
			zap.Error(err),
		)
		writeError(w, http.StatusUnprocessableEntity, "analysis failed")
		return
	}
	report.Document.Filename = header.Filename

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "report store not configured")
		return
	}

	filter := store.ReportFilter{
		TrafficLight: model.TrafficLight(r.URL.Query().Get("traffic_light")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	summaries, err := s.store.ListReports(r.Context(), filter)
	if err != nil {
		zap.L().Error("server: list reports failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "cannot list reports")
		return
	}
	if summaries == nil {
		summaries = []store.ReportSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "report store not configured")
		return
	}

	docID := chi.URLParam(r, "docID")
	report, err := s.store.GetReport(r.Context(), docID)
	if err != nil {
		zap.L().Error("server: get report failed", zap.String("doc_id", docID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "cannot load report")
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "report store not configured")
		return
	}

	docID := chi.URLParam(r, "docID")
	if err := s.store.DeleteReport(r.Context(), docID); err != nil {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "doc_id": docID})
}

// handlePageText returns the anonymization-free stored text of one page, for
// reviewers following up on pages_to_verify references.
func (s *Server) handlePageText(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	pageNo, err := strconv.Atoi(chi.URLParam(r, "pageNo"))
	if err != nil || pageNo < 1 {
		writeError(w, http.StatusBadRequest, "invalid page number")
		return
	}

	pages, err := s.pageText(docID)
	if err != nil {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if pageNo > len(pages) {
		writeError(w, http.StatusNotFound, "page not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":  docID,
		"page_no": pageNo,
		"text":    pages[pageNo-1],
	})
}
