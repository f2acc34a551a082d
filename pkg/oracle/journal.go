package oracle

import (
	"tradesmart-api/pkg/journal"
)

// Journal records the prompt digests for each analysis cycle, deferring
// to pkg/journal.Writer for the on-disk shape. Analyze calls Record
// before submitting to the oracle so a digest exists even if the call
// fails.
type Journal struct {
	w *journal.Writer
}

// NewJournal constructs a Journal rooted at dir.
func NewJournal(dir string) *Journal {
	return &Journal{w: journal.NewWriter(dir)}
}

// Record writes one AnalysisRecord capturing the symbol and the digests
// of the system and user prompt templates (not of the rendered text). Write failures are not fatal to analysis; they are
// not even surfaced, since the journal is an audit aid, not a dependency
// of the verdict pipeline.
func (j *Journal) Record(symbol, systemDigest, userDigest string) {
	_, _ = j.w.WriteCycle(&journal.AnalysisRecord{
		Symbol:           symbol,
		SystemPromptHash: systemDigest,
		UserPromptHash:   userDigest,
		Success:          true,
	})
}
