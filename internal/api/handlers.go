package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/AndriiKulakovskyi/thesaurus/internal/catalog"
	"github.com/AndriiKulakovskyi/thesaurus/internal/extract"
)

// studySummary is a study without its table descriptors.
type studySummary struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Contact     string                `json:"contact,omitempty"`
	Tags        []string              `json:"tags,omitempty"`
	Metadata    catalog.StudyMetadata `json:"metadata,omitempty"`
	TableCount  int                   `json:"table_count"`
}

// extractResponse is the JSON body of a successful extraction.
type extractResponse struct {
	ExtractionID string        `json:"extraction_id"`
	StudyName    string        `json:"study_name"`
	Columns      []string      `json:"columns"`
	RowCount     int           `json:"row_count"`
	Rows         []extract.Row `json:"rows"`
	Warnings     []string      `json:"warnings,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// healthResponse reports service liveness, the catalog size, and database
// reachability.
type healthResponse struct {
	Status   string `json:"status"`
	Studies  int    `json:"studies"`
	Database string `json:"database,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Studies: s.catalog.Catalog().Len()}

	status := http.StatusOK
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			s.logger.Error("health check database ping failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleListStudies(w http.ResponseWriter, r *http.Request) {
	studies := s.catalog.Catalog().Studies()

	out := make([]studySummary, 0, len(studies))
	for _, study := range studies {
		out = append(out, studySummary{
			Name:        study.Name,
			Description: study.Description,
			Contact:     study.Contact,
			Tags:        study.Tags,
			Metadata:    study.Metadata,
			TableCount:  len(study.Tables),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	study, ok := s.catalog.Catalog().Study(chi.URLParam(r, "study"))
	if !ok {
		writeError(w, http.StatusNotFound, "study not found")
		return
	}

	tables := study.Tables
	if tables == nil {
		tables = []catalog.Table{}
	}
	writeJSON(w, http.StatusOK, tables)
}

func (s *Server) handleListColumns(w http.ResponseWriter, r *http.Request) {
	study, ok := s.catalog.Catalog().Study(chi.URLParam(r, "study"))
	if !ok {
		writeError(w, http.StatusNotFound, "study not found")
		return
	}
	table, ok := study.Table(chi.URLParam(r, "table"))
	if !ok {
		writeError(w, http.StatusNotFound, "table not found")
		return
	}

	variables := table.Variables
	if variables == nil {
		variables = []catalog.Variable{}
	}
	writeJSON(w, http.StatusOK, variables)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extract.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	study, ok := s.catalog.Catalog().Study(req.StudyName)
	if !ok {
		writeError(w, http.StatusNotFound, "study not found")
		return
	}

	q, err := req.Normalize()
	if err != nil {
		if errors.Is(err, extract.ErrNoTables) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	selections, warnings := s.filterSelections(study, q.Selections)
	q.Selections = selections
	if len(q.Selections) == 0 {
		writeError(w, http.StatusBadRequest, "no requested table is listed in the study catalog")
		return
	}

	result, err := s.engine.Extract(r.Context(), q)
	if err != nil {
		s.logger.Error("extraction failed", "study", q.StudyName, "error", err)
		writeError(w, http.StatusInternalServerError, "extraction failed")
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		writeCSV(w, result)
		return
	}

	writeJSON(w, http.StatusOK, extractResponse{
		ExtractionID: uuid.NewString(),
		StudyName:    result.StudyName,
		Columns:      result.Columns,
		RowCount:     result.Count(),
		Rows:         result.Rows,
		Warnings:     warnings,
	})
}

// filterSelections drops selections naming tables the study catalog does not
// list. A study with no descriptors at all passes everything through; the
// engine still skips tables missing from the physical schema.
func (s *Server) filterSelections(study *catalog.Study, selections []extract.Selection) ([]extract.Selection, []string) {
	if len(study.Tables) == 0 {
		return selections, nil
	}

	var (
		kept     []extract.Selection
		warnings []string
	)
	for _, sel := range selections {
		if _, ok := study.Table(sel.TableName); !ok {
			s.logger.Warn("requested table not in study catalog, selection dropped",
				"study", study.Name, "table", sel.TableName)
			warnings = append(warnings, "table not in study catalog: "+sel.TableName)
			continue
		}
		kept = append(kept, sel)
	}
	return kept, warnings
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
