// ABOUTME: Turn orchestrator: classify, assemble context, call the oracle
// ABOUTME: Owns the per-turn lifecycle including refinement and persistence
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sqlpilot/internal/engine"
	"sqlpilot/internal/extract"
	"sqlpilot/internal/heal"
	"sqlpilot/internal/intent"
	"sqlpilot/internal/llm"
	"sqlpilot/internal/memory"
	"sqlpilot/internal/models"
	"sqlpilot/internal/refine"
	"sqlpilot/internal/session"
	"sqlpilot/internal/storage"
)

// ErrNoSession means no database is selected yet; the caller gets
// guidance instead of an oracle call
var ErrNoSession = errors.New("no database selected")

// Engine is the relational engine surface the orchestrator depends on
type Engine interface {
	Execute(ctx context.Context, query string) (*engine.Result, error)
	ListDatabases(ctx context.Context) ([]string, error)
	UseDatabase(ctx context.Context, name string) error
	DescribeSchema(ctx context.Context) (string, error)
	Database() string
}

// Response is the structured outcome of one conversational turn
type Response struct {
	Text                 string
	SQL                  string
	Category             intent.Category
	RequiresConfirmation bool
	AutoExecute          bool
	Report               *refine.Report
	Err                  string
}

// Config wires the orchestrator's collaborators and policy knobs
type Config struct {
	Oracle          llm.Client
	Engine          Engine
	Store           *storage.Store
	Tracer          Tracer
	Host            string
	User            string
	RecentWindow    int
	MaxHealAttempts int
	RefinerEnabled  bool
	Logger          zerolog.Logger
}

// Orchestrator is the single entry point per conversational turn.
// Turns for the same thread are serialized; the sequence-number and
// fold invariants depend on it.
type Orchestrator struct {
	oracle   llm.Client
	engine   Engine
	store    *storage.Store
	registry *session.Registry
	memory   *memory.Manager
	pipeline *refine.Pipeline
	healer   *heal.Loop
	tracer   Tracer
	log      zerolog.Logger

	host           string
	user           string
	refinerEnabled bool

	mu            sync.Mutex
	threadID      string
	database      string
	schemaContext string
}

// New creates an orchestrator from its collaborators
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		oracle:         cfg.Oracle,
		engine:         cfg.Engine,
		store:          cfg.Store,
		registry:       session.NewRegistry(cfg.Store, cfg.Logger),
		memory:         memory.NewManager(cfg.Store, cfg.Oracle, cfg.RecentWindow, cfg.Logger),
		pipeline:       refine.NewPipeline(cfg.Oracle, cfg.Logger),
		healer:         heal.NewLoop(cfg.Engine, cfg.Oracle, cfg.MaxHealAttempts, cfg.Logger),
		tracer:         cfg.Tracer,
		log:            cfg.Logger,
		host:           cfg.Host,
		user:           cfg.User,
		refinerEnabled: cfg.RefinerEnabled,
	}
}

// ThreadID returns the active thread id, or "" when none is selected
func (o *Orchestrator) ThreadID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.threadID
}

// Database returns the active database name
func (o *Orchestrator) Database() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.database
}

// Sessions lists all known sessions
func (o *Orchestrator) Sessions() ([]models.Session, error) {
	return o.registry.List()
}

// Respond handles one conversational turn.
func (o *Orchestrator) Respond(ctx context.Context, utterance string) *Response {
	o.mu.Lock()
	defer o.mu.Unlock()

	span := startSpan(o.tracer, "turn")
	utterance = strings.TrimSpace(utterance)

	category := intent.Classify(utterance)
	span.SetAttribute("category", string(category))
	o.log.Debug().Str("category", string(category)).Msg("intent classified")

	// Self-contained categories skip context assembly and the oracle.
	if resp := o.quickResponse(ctx, utterance, category); resp != nil {
		o.persistTurns(utterance, resp)
		span.End(nil)
		return resp
	}

	if o.threadID == "" {
		resp := o.noSessionGuidance(ctx, category)
		span.End(ErrNoSession)
		return resp
	}

	resp := o.respondWithOracle(ctx, utterance, category)
	o.persistTurns(utterance, resp)
	if resp.Err != "" {
		span.End(errors.New(resp.Err))
	} else {
		span.End(nil)
	}
	return resp
}

// respondWithOracle runs the full context-assembly and generation path
func (o *Orchestrator) respondWithOracle(ctx context.Context, utterance string, category intent.Category) *Response {
	memCtx, err := o.memory.BuildContext(o.threadID)
	if err != nil {
		// Degrade to an empty context rather than failing the turn.
		o.log.Error().Err(err).Msg("context assembly failed")
		memCtx = &memory.Context{}
	}

	digest := ""
	if records, err := o.store.RecentAudits(o.threadID, 5); err == nil {
		digest = queryDigest(records)
	}

	span := startSpan(o.tracer, "oracle.generate")
	answer, err := o.oracle.Complete(ctx, llm.Request{
		System: buildSystemPrompt(o.database, o.schemaContext, digest, memCtx.Summary),
		User:   buildUserPrompt(memCtx.Recent, utterance),
	})
	span.End(err)
	if err != nil {
		o.log.Error().Err(err).Msg("oracle call failed")
		return &Response{
			Text:     "The language model is unavailable right now. Check the connection and try again.",
			Category: category,
			Err:      err.Error(),
		}
	}

	rawSQL := extract.SQL(answer)
	text := extract.CleanResponseText(answer)
	finalSQL := rawSQL

	var report *refine.Report
	if rawSQL != "" && o.refinerEnabled && intent.Refinable(category) {
		report, err = o.pipeline.Run(ctx, o.database, o.schemaContext, rawSQL)
		if err != nil {
			// The pipeline is an optimization: fall back to the raw query.
			o.log.Warn().Err(err).Msg("refinement failed, using unrefined query")
			report = nil
		} else {
			finalSQL = report.FinalSQL
			if report.WasModified {
				text += fmt.Sprintf("\n\nRefinement: %s / %s (risk %s)",
					report.RewriteNotes, report.ValidatorNotes, report.Risk)
			}
		}
	}

	return &Response{
		Text:                 text,
		SQL:                  finalSQL,
		Category:             category,
		RequiresConfirmation: extract.Destructive(finalSQL),
		AutoExecute:          intent.AutoExecute(category),
		Report:               report,
	}
}

// quickResponse handles categories that need no oracle call. Returns
// nil when the category needs the full path.
func (o *Orchestrator) quickResponse(ctx context.Context, utterance string, category intent.Category) *Response {
	switch category {
	case intent.ShowDatabases:
		return &Response{
			Text:        "Showing all available databases:",
			SQL:         "SHOW DATABASES",
			Category:    category,
			AutoExecute: true,
		}

	case intent.ShowTables:
		if o.database == "" {
			return o.noSessionGuidance(ctx, category)
		}
		return &Response{
			Text:        fmt.Sprintf("Showing all tables in `%s`:", o.database),
			SQL:         fmt.Sprintf("SHOW TABLES FROM `%s`", o.database),
			Category:    category,
			AutoExecute: true,
		}

	case intent.Help:
		return &Response{Text: helpText, Category: category}

	case intent.SwitchDatabase:
		name := intent.DatabaseTarget(utterance)
		if name == "" {
			return &Response{
				Text:     "Which database? Say: use <database_name>",
				Category: category,
			}
		}
		if err := o.selectDatabaseLocked(ctx, name); err != nil {
			return &Response{
				Text:     fmt.Sprintf("Could not switch to `%s`: %v", name, err),
				Category: category,
				Err:      err.Error(),
			}
		}
		return &Response{
			Text:     fmt.Sprintf("Switched to database `%s`.", name),
			Category: category,
		}
	}
	return nil
}

// noSessionGuidance lists available targets without calling the oracle
func (o *Orchestrator) noSessionGuidance(ctx context.Context, category intent.Category) *Response {
	names, err := o.engine.ListDatabases(ctx)
	dbList := "none found"
	hint := "create a database first"
	if err == nil && len(names) > 0 {
		dbList = strings.Join(names, ", ")
		hint = fmt.Sprintf("'use %s'", names[0])
	}
	return &Response{
		Text: fmt.Sprintf(
			"Please select a database first.\n\nAvailable databases: %s\n\nJust say: %s",
			dbList, hint),
		Category: category,
		Err:      ErrNoSession.Error(),
	}
}

// SelectDatabase switches the active database, activates its thread,
// refreshes the schema snapshot, and lazily folds stale memory.
func (o *Orchestrator) SelectDatabase(ctx context.Context, name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.selectDatabaseLocked(ctx, name)
}

func (o *Orchestrator) selectDatabaseLocked(ctx context.Context, name string) error {
	if err := o.engine.UseDatabase(ctx, name); err != nil {
		return err
	}

	threadID, err := o.registry.GetOrCreate(o.host, o.user, name)
	if err != nil {
		// Degraded mode: the id is deterministic, keep going.
		o.log.Warn().Err(err).Msg("session persistence degraded")
	}
	o.threadID = threadID
	o.database = name

	o.refreshSchema(ctx)

	// Fold on activation, never inline with a turn.
	if err := o.memory.MaybeFold(ctx, threadID); err != nil {
		o.log.Warn().Err(err).Msg("memory fold failed, will retry on next activation")
	}
	return nil
}

// refreshSchema loads a live schema snapshot, falling back to the
// cached copy when the engine cannot provide one.
func (o *Orchestrator) refreshSchema(ctx context.Context) {
	schema, err := o.engine.DescribeSchema(ctx)
	if err == nil && schema != "" {
		o.schemaContext = schema
		if err := o.store.SaveSchemaCache(o.threadID, o.database, schema); err != nil {
			o.log.Warn().Err(err).Msg("schema cache save failed")
		}
		return
	}

	o.log.Warn().Err(err).Str("database", o.database).Msg("live schema fetch failed, trying cache")
	cached, cerr := o.store.LoadSchemaCache(o.threadID)
	if cerr == nil && cached != "" {
		o.schemaContext = cached
		o.log.Warn().Msg("using cached schema snapshot, may be outdated")
		return
	}

	o.schemaContext = fmt.Sprintf("Database: %s (schema not available)", o.database)
}

// RefreshSchema drops the cached snapshot and re-reads the live schema
func (o *Orchestrator) RefreshSchema(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.threadID == "" {
		return ErrNoSession
	}
	if err := o.store.DeleteSchemaCache(o.threadID); err != nil {
		o.log.Warn().Err(err).Msg("schema cache delete failed")
	}
	o.refreshSchema(ctx)
	return nil
}

// Execute runs a query through the healing loop, records the audit
// trail, and persists the outcome on the active thread.
func (o *Orchestrator) Execute(ctx context.Context, sql string) (*engine.Result, []heal.Attempt, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.database == "" {
		return nil, nil, ErrNoSession
	}

	span := startSpan(o.tracer, "execute")
	result, healLog, err := o.healer.Execute(ctx, sql, o.database, o.schemaContext)
	span.End(err)
	if err != nil {
		return nil, healLog, err
	}

	o.audit(sql, result, healLog)
	return result, healLog, nil
}

// audit appends execution records, tolerating store failure
func (o *Orchestrator) audit(sql string, result *engine.Result, healLog []heal.Attempt) {
	if o.threadID == "" {
		return
	}
	executedSQL := sql
	if n := len(healLog); n > 0 {
		executedSQL = healLog[n-1].CorrectedSQL
	}
	rec := &models.QueryAudit{
		ThreadID:     o.threadID,
		SQL:          executedSQL,
		Success:      result.Success,
		ExecutionMS:  result.LatencyMS,
		RowsAffected: result.AffectedRows,
		ErrorText:    result.ErrorText,
	}
	if err := o.store.AppendAudit(rec); err != nil {
		o.log.Warn().Err(err).Msg("audit append failed")
	}
}

// persistTurns saves both sides of the exchange. Persistence failure
// never aborts the response; it is logged and the turn continues.
func (o *Orchestrator) persistTurns(utterance string, resp *Response) {
	if o.threadID == "" {
		return
	}

	userTurn := &models.Turn{
		ThreadID:  o.threadID,
		Role:      models.RoleUser,
		Content:   utterance,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.store.AppendTurn(userTurn); err != nil {
		o.log.Warn().Err(err).Msg("could not persist user turn")
		return
	}

	outcome := string(resp.Category)
	if resp.Err != "" {
		outcome = "error"
	}
	assistantTurn := &models.Turn{
		ThreadID:  o.threadID,
		Role:      models.RoleAssistant,
		Content:   resp.Text,
		SQLQuery:  resp.SQL,
		Outcome:   outcome,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.store.AppendTurn(assistantTurn); err != nil {
		o.log.Warn().Err(err).Msg("could not persist assistant turn")
	}
}

const helpText = `I understand natural language requests about your MySQL databases.

Examples:
  "show me all databases"
  "use my_database"
  "show all tables"
  "get all users where age > 25"
  "add a new product named Widget priced at 9.99"
  "how many orders were placed today?"
  "describe the customers table"

Destructive queries (DELETE, DROP, TRUNCATE, UPDATE) always ask for
confirmation before running.`
