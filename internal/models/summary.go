// ABOUTME: Summary is the compressed representation of old turns in a partition
// ABOUTME: At most one per thread; SummarizedUpToSeq only ever moves forward
package models

import "time"

// Summary holds the rolling conversation summary for a thread. Turns with
// Seq <= SummarizedUpToSeq are covered by Text and are no longer sent to
// the oracle in full.
type Summary struct {
	ThreadID          string    `json:"thread_id"`
	Text              string    `json:"text"`
	SummarizedUpToSeq int64     `json:"summarized_up_to_seq"`
	TurnsFolded       int64     `json:"turns_folded"`
	UpdatedAt         time.Time `json:"updated_at"`
}
