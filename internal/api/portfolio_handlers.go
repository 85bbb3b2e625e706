package api

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"wealthtrack/internal/portfolio"
)

const maxUploadBytes = 32 << 20

// AnalyzeStatement accepts a consolidated statement upload, runs the full
// analysis pipeline and stores the resulting snapshot.
func (s *Server) AnalyzeStatement(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { s.perf.TrackOperation("AnalyzeStatement", time.Since(start)) }()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Missing statement file")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Failed to read statement file")
		return
	}

	s.logger.Info("Analyzing statement upload %s (%d bytes)", header.Filename, len(raw))

	pages := splitPages(string(raw))
	records, err := s.parser.Parse(pages)
	if err != nil {
		s.logger.Error("Statement parse failed: %v", err)
		s.respondWithError(w, http.StatusBadRequest, "Could not read statement contents")
		return
	}

	result := s.analyzer.Analyze(records)

	if err := s.saveSnapshot(result); err != nil {
		// Analysis succeeded, so still return it. The snapshot is a convenience.
		s.logger.Error("Failed to persist snapshot: %v", err)
	}

	s.respondWithJSON(w, http.StatusOK, result)
}

// GetLatestSnapshot returns the most recently stored analysis result.
func (s *Server) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.respondWithError(w, http.StatusServiceUnavailable, "Snapshot storage not configured")
		return
	}

	var data []byte
	err := s.db.QueryRow(`
		SELECT data
		FROM portfolio_snapshots
		ORDER BY upload_date DESC
		LIMIT 1
	`).Scan(&data)
	if err == sql.ErrNoRows {
		s.respondWithError(w, http.StatusNotFound, "No portfolio snapshot found")
		return
	}
	if err != nil {
		s.logger.Error("Failed to load latest snapshot: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to load snapshot")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GetSnapshotHistory returns summary rows for all stored snapshots, newest first.
func (s *Server) GetSnapshotHistory(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.respondWithError(w, http.StatusServiceUnavailable, "Snapshot storage not configured")
		return
	}

	rows, err := s.db.Query(`
		SELECT id, total_value, total_invested, xirr, upload_date
		FROM portfolio_snapshots
		ORDER BY upload_date DESC
	`)
	if err != nil {
		s.logger.Error("Failed to query snapshot history: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to load snapshot history")
		return
	}
	defer rows.Close()

	history := SnapshotHistoryResponse{Snapshots: []SnapshotSummary{}}
	for rows.Next() {
		var snap SnapshotSummary
		if err := rows.Scan(&snap.ID, &snap.TotalValue, &snap.TotalInvested, &snap.XIRR, &snap.UploadDate); err != nil {
			s.logger.Error("Failed to scan snapshot row: %v", err)
			s.respondWithError(w, http.StatusInternalServerError, "Failed to load snapshot history")
			return
		}
		history.Snapshots = append(history.Snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("Snapshot history iteration failed: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to load snapshot history")
		return
	}
	history.Total = len(history.Snapshots)

	s.respondWithJSON(w, http.StatusOK, history)
}

func (s *Server) saveSnapshot(result *portfolio.AnalysisResult) error {
	if s.db == nil {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO portfolio_snapshots (total_value, total_invested, xirr, data)
		VALUES ($1, $2, $3, $4)
	`, result.CurrentValuation, result.TotalInvestment, result.XIRR, data)
	return err
}

// splitPages breaks extracted statement text into pages. Extractors emit a
// form feed between pages; when none is present the whole text is one page.
func splitPages(text string) []string {
	if strings.Contains(text, "\f") {
		return strings.Split(text, "\f")
	}
	return []string{text}
}
