package internal

import (
	"errors"
	"path/filepath"

	"github.com/kaizM/Loss-prevention/internal/ingest"
)

// UploadProcessor runs the ingestion pipeline over an uploaded export and
// persists the results. Used by both the HTTP upload handler and the
// directory watcher.
type UploadProcessor struct {
	store *Store
	clips *ClipProcessor
}

func NewUploadProcessor(store *Store, clips *ClipProcessor) *UploadProcessor {
	return &UploadProcessor{store: store, clips: clips}
}

// ProcessUpload ingests one stored export and records the report outcome.
// Returns the report id together with the classified transactions.
func (p *UploadProcessor) ProcessUpload(originalName, storedPath string) (int64, []ingest.Transaction, error) {
	reportID, err := p.store.CreateReport(originalName, storedPath)
	if err != nil {
		return 0, nil, err
	}

	txns, totalRows, err := ingest.IngestFile(storedPath)
	if err != nil {
		var ingErr *ingest.IngestionError
		reason := err.Error()
		if errors.As(err, &ingErr) {
			reason = ingErr.Reason
		}
		if ferr := p.store.FailReport(reportID, reason); ferr != nil {
			LogError("Failed to mark report %d failed: %v", reportID, ferr)
		}
		return reportID, nil, err
	}

	if err := p.store.InsertTransactions(reportID, txns); err != nil {
		if ferr := p.store.FailReport(reportID, "database error storing transactions"); ferr != nil {
			LogError("Failed to mark report %d failed: %v", reportID, ferr)
		}
		return reportID, nil, err
	}

	if err := p.store.FinishReport(reportID, totalRows, len(txns)); err != nil {
		LogError("Failed to finish report %d: %v", reportID, err)
	}

	LogInfo("Processed %s: %d suspicious transactions (report %d)",
		filepath.Base(originalName), len(txns), reportID)

	if p.clips != nil && len(txns) > 0 {
		p.clips.Notify()
	}
	return reportID, txns, nil
}
