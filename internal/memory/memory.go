// ABOUTME: Rolling conversation memory with summary folding
// ABOUTME: Bounded recent window plus a compressed summary of older turns
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"sqlpilot/internal/llm"
	"sqlpilot/internal/models"
	"sqlpilot/internal/storage"
)

// DefaultRecentWindow is how many recent turns go to the oracle in full
const DefaultRecentWindow = 40

const summarizerSystem = "You are a precise conversation summarizer. Output only the summary, no preamble."

const summarizerPrompt = `Compress the following conversation history into a dense, factual summary that preserves ALL important information.

Capture:
1. User's personal information (name, role, preferences) if mentioned
2. Which databases were discussed and what operations were performed
3. What tables, columns, and data were explored
4. Key facts, results, and conclusions
5. SQL queries that were generated or executed and their outcomes

RULES:
- Be dense and factual, no filler
- Always preserve names, numbers, table names, column names, results
- The summary replaces the original messages, so it must be self-contained
- Maximum 400 words

CONVERSATION TO SUMMARIZE:
%s`

// Context is the payload handed to the oracle for one turn: the
// compressed summary of everything old, plus the full recent window.
type Context struct {
	Summary string
	Recent  []models.Turn
}

// Manager owns summary reads and writes for every thread. Folds for
// the same thread are serialized; different threads fold independently.
type Manager struct {
	store  *storage.Store
	oracle llm.Client
	window int
	log    zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a memory manager. window <= 0 selects
// DefaultRecentWindow.
func NewManager(store *storage.Store, oracle llm.Client, window int, log zerolog.Logger) *Manager {
	if window <= 0 {
		window = DefaultRecentWindow
	}
	return &Manager{
		store:  store,
		oracle: oracle,
		window: window,
		log:    log,
		locks:  map[string]*sync.Mutex{},
	}
}

// threadLock returns the per-thread fold mutex, creating it on first use
func (m *Manager) threadLock(threadID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[threadID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[threadID] = l
	}
	return l
}

// BuildContext assembles the oracle context for a thread from store
// reads only. No oracle call, so it adds nothing to turn latency.
// Returns at most `window` turns regardless of history size.
func (m *Manager) BuildContext(threadID string) (*Context, error) {
	sum, err := m.store.GetSummary(threadID)
	if err != nil {
		// Degrade to recent turns only.
		m.log.Error().Err(err).Str("thread_id", threadID).Msg("summary load failed")
		sum = nil
	}

	var (
		summaryText string
		turns       []models.Turn
	)
	if sum != nil {
		summaryText = sum.Text
		turns, err = m.store.TurnsAfter(threadID, sum.SummarizedUpToSeq)
	} else {
		turns, err = m.store.RecentTurns(threadID, m.window)
	}
	if err != nil {
		return nil, err
	}

	if len(turns) > m.window {
		turns = turns[len(turns)-m.window:]
	}

	return &Context{Summary: summaryText, Recent: turns}, nil
}

// MaybeFold compresses stale turns into the summary when more than
// `window` turns have piled up since the last fold. Intended to run on
// thread activation, never inline with a user-facing turn. A fold keeps
// exactly `window` turns unsummarized; everything older is folded.
// Oracle or store failure leaves the existing summary untouched; the
// next activation retries.
func (m *Manager) MaybeFold(ctx context.Context, threadID string) error {
	lock := m.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := m.store.GetSummary(threadID)
	if err != nil {
		return err
	}

	var lastSeq int64
	var existingText string
	var foldedSoFar int64
	if existing != nil {
		lastSeq = existing.SummarizedUpToSeq
		existingText = existing.Text
		foldedSoFar = existing.TurnsFolded
	}

	unsummarized, err := m.store.TurnsAfter(threadID, lastSeq)
	if err != nil {
		return err
	}
	if len(unsummarized) <= m.window {
		return nil
	}

	toFold := unsummarized[:len(unsummarized)-m.window]
	newText, err := m.summarize(ctx, existingText, toFold)
	if err != nil {
		m.log.Warn().Err(err).Str("thread_id", threadID).
			Msg("summarization failed, keeping previous summary")
		return err
	}

	sum := &models.Summary{
		ThreadID:          threadID,
		Text:              newText,
		SummarizedUpToSeq: toFold[len(toFold)-1].Seq,
		TurnsFolded:       foldedSoFar + int64(len(toFold)),
	}
	if err := m.store.SaveSummary(sum); err != nil {
		m.log.Warn().Err(err).Str("thread_id", threadID).
			Msg("summary persist failed, will retry on next activation")
		return err
	}

	m.log.Info().Str("thread_id", threadID).Int("folded", len(toFold)).
		Int64("up_to_seq", sum.SummarizedUpToSeq).Msg("summary updated")
	return nil
}

// summarize asks the oracle to fold turns into the existing summary.
// On a usable response the new text replaces the old; an empty response
// falls back to the existing summary text.
func (m *Manager) summarize(ctx context.Context, existingSummary string, turns []models.Turn) (string, error) {
	var lines []string
	if existingSummary != "" {
		lines = append(lines,
			"=== EXISTING SUMMARY (keep all facts from here) ===",
			existingSummary,
			"",
			"=== NEW MESSAGES TO ADD TO SUMMARY ===")
	}
	for _, turn := range turns {
		if line := turn.DialogueLine(); line != "" {
			lines = append(lines, line)
		}
	}

	result, err := m.oracle.Complete(ctx, llm.Request{
		System: summarizerSystem,
		User:   fmt.Sprintf(summarizerPrompt, strings.Join(lines, "\n")),
	})
	if err != nil {
		return "", err
	}
	result = strings.TrimSpace(result)
	if result == "" {
		return existingSummary, nil
	}
	return result, nil
}
