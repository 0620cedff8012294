package footballkg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/soundprediction/footballkg/pkg/checkpoint"
	"github.com/soundprediction/footballkg/pkg/dataset"
	"github.com/soundprediction/footballkg/pkg/driver"
	"github.com/soundprediction/footballkg/pkg/embedder"
	"github.com/soundprediction/footballkg/pkg/telemetry"
	"github.com/soundprediction/footballkg/pkg/types"
)

// DefaultIndexName is the name of the player embedding vector index.
const DefaultIndexName = "football_players_embeddings"

// Parameter names used by the link query.
const (
	paramPlayer  = "player"
	paramClub    = "club"
	paramLeague  = "league"
	paramCountry = "country"
)

var linkHops = []driver.Hop{
	{FromLabel: string(types.PlayerEntity), FromParam: paramPlayer, Type: string(types.PlaysFor), ToLabel: string(types.ClubEntity), ToParam: paramClub},
	{FromLabel: string(types.ClubEntity), FromParam: paramClub, Type: string(types.PartOf), ToLabel: string(types.LeagueEntity), ToParam: paramLeague},
	{FromLabel: string(types.LeagueEntity), FromParam: paramLeague, Type: string(types.InCountry), ToLabel: string(types.CountryEntity), ToParam: paramCountry},
}

// IngestOptions configures an Ingestor.
type IngestOptions struct {
	// Constraints declares a uniqueness constraint on name for every
	// entity type before the first row is written.
	Constraints bool
	// VectorIndex declares the player embedding index before the first
	// row is written.
	VectorIndex bool
	// IndexName defaults to DefaultIndexName.
	IndexName string
	// Dimensions defaults to the embedder's dimensions.
	Dimensions int
	Metrics    *telemetry.Metrics

	// Checkpoints, when set together with Source, records progress so an
	// interrupted run over the same source resumes where it stopped.
	Checkpoints *checkpoint.Manager
	Source      string
	// CheckpointEvery is the number of rows between saves; default 100.
	CheckpointEvery int
}

// NewIngestOptions returns options with constraints and the vector index enabled.
func NewIngestOptions() *IngestOptions {
	return &IngestOptions{
		Constraints: true,
		VectorIndex: true,
		IndexName:   DefaultIndexName,
	}
}

// Ingestor loads player-season rows into the graph. Every write is a
// merge on the name key, so a run can be repeated safely.
type Ingestor struct {
	driver   driver.GraphDriver
	embedder embedder.Client
	opts     IngestOptions
	logger   *slog.Logger
}

// NewIngestor creates an Ingestor. Nil options use NewIngestOptions and a
// nil logger uses slog.Default().
func NewIngestor(d driver.GraphDriver, e embedder.Client, opts *IngestOptions, logger *slog.Logger) *Ingestor {
	if opts == nil {
		opts = NewIngestOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	o := *opts
	if o.IndexName == "" {
		o.IndexName = DefaultIndexName
	}
	if o.Dimensions <= 0 {
		o.Dimensions = e.Dimensions()
	}
	if o.Dimensions <= 0 {
		o.Dimensions = embedder.DefaultDimensions
	}
	if o.CheckpointEvery <= 0 {
		o.CheckpointEvery = 100
	}
	return &Ingestor{
		driver:   d,
		embedder: e,
		opts:     o,
		logger:   logger,
	}
}

// VectorIndex returns the declaration of the player embedding index.
func (i *Ingestor) VectorIndex() driver.VectorIndex {
	return driver.VectorIndex{
		Name:       i.opts.IndexName,
		Label:      string(types.PlayerEntity),
		Property:   types.EmbeddingProperty,
		Dimensions: i.opts.Dimensions,
		Similarity: driver.SimilarityCosine,
	}
}

// EnsureConstraints declares a uniqueness constraint on name for each
// entity type. Constraints that already exist are left alone.
func (i *Ingestor) EnsureConstraints(ctx context.Context, entityTypes []types.EntityType) error {
	for _, et := range entityTypes {
		_, err := i.driver.ExecuteWrite(ctx, driver.UniqueConstraintQuery(string(et), "name"), nil)
		if err != nil && !driver.IsAlreadyExists(err) {
			return fmt.Errorf("failed to create constraint for %s: %w", et, err)
		}
		i.logger.Debug("Constraint ensured", "label", et)
	}
	return nil
}

// EnsureVectorIndex declares the player embedding index. Repeating the
// declaration is a no-op.
func (i *Ingestor) EnsureVectorIndex(ctx context.Context) error {
	idx := i.VectorIndex()
	_, err := i.driver.ExecuteWrite(ctx, driver.VectorIndexQuery(idx), nil)
	if err != nil && !driver.IsAlreadyExists(err) {
		return fmt.Errorf("failed to create vector index %s: %w", idx.Name, err)
	}
	i.logger.Info("Vector index ensured",
		"name", idx.Name,
		"dimensions", idx.Dimensions,
		"similarity", idx.Similarity)
	return nil
}

// UpsertPlayer embeds the player's description and merges the PLAYER node
// with every attribute and the embedding.
func (i *Ingestor) UpsertPlayer(ctx context.Context, p *types.PlayerSeason) error {
	if p == nil || p.Name == "" {
		return types.ErrEmptyName
	}
	vec, err := i.embedder.EmbedSingle(ctx, p.Description())
	if err != nil {
		return fmt.Errorf("failed to embed player %s: %w", p.Name, err)
	}
	if len(vec) != i.opts.Dimensions {
		return fmt.Errorf("embedding for player %s has %d dimensions, index expects %d",
			p.Name, len(vec), i.opts.Dimensions)
	}

	props := p.Properties()
	props[types.EmbeddingProperty] = vec
	_, err = i.driver.ExecuteWrite(ctx, driver.MergeNodeQuery(string(types.PlayerEntity)), map[string]any{
		"name":  p.Name,
		"props": props,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert player %s: %w", p.Name, err)
	}
	return nil
}

// UpsertClub merges a CLUB node by name.
func (i *Ingestor) UpsertClub(ctx context.Context, name string) error {
	return i.upsertName(ctx, types.ClubEntity, name, types.ErrEmptyClub)
}

// UpsertLeague merges a LEAGUE node by name.
func (i *Ingestor) UpsertLeague(ctx context.Context, name string) error {
	return i.upsertName(ctx, types.LeagueEntity, name, types.ErrEmptyLeague)
}

// UpsertCountry merges a COUNTRY node by name.
func (i *Ingestor) UpsertCountry(ctx context.Context, name string) error {
	return i.upsertName(ctx, types.CountryEntity, name, types.ErrEmptyCountry)
}

func (i *Ingestor) upsertName(ctx context.Context, et types.EntityType, name string, empty error) error {
	if name == "" {
		return empty
	}
	_, err := i.driver.ExecuteWrite(ctx, driver.MergeNameQuery(string(et)), map[string]any{"name": name})
	if err != nil {
		return fmt.Errorf("failed to upsert %s %s: %w", et, name, err)
	}
	return nil
}

// Link merges PLAYS_FOR, PART_OF and IN_COUNTRY between existing nodes.
// A relationship whose endpoint does not exist is skipped without error.
func (i *Ingestor) Link(ctx context.Context, player, club, league, country string) error {
	_, err := i.driver.ExecuteWrite(ctx, driver.LinkQuery(linkHops), map[string]any{
		paramPlayer:  player,
		paramClub:    club,
		paramLeague:  league,
		paramCountry: country,
	})
	if err != nil {
		return fmt.Errorf("failed to link player %s: %w", player, err)
	}
	return nil
}

// IngestRow writes one row: player, club, league, country, then the
// relationships. A failing step does not stop the remaining ones; all
// step errors are joined.
func (i *Ingestor) IngestRow(ctx context.Context, p *types.PlayerSeason) error {
	if err := p.Validate(); err != nil {
		return err
	}
	var errs []error
	steps := []func() error{
		func() error { return i.UpsertPlayer(ctx, p) },
		func() error { return i.UpsertClub(ctx, p.Club) },
		func() error { return i.UpsertLeague(ctx, p.League) },
		func() error { return i.UpsertCountry(ctx, p.Country) },
		func() error { return i.Link(ctx, p.Name, p.Club, p.League, p.Country) },
	}
	for _, step := range steps {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := step(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RowFailure records a row that was not fully ingested.
type RowFailure struct {
	// Row is the 0-based index into the input rows, or the reader's line
	// number for rows that failed to parse.
	Row    int
	Player string
	Err    error
}

// Report summarises an ingestion run.
type Report struct {
	RunID     string
	Rows      int
	Succeeded int
	Failed    int
	Failures  []RowFailure
	Duration  time.Duration
	// StartRow is the first row attempted; non-zero when Resumed.
	StartRow int
	Resumed  bool
	// Err is set when the run stopped early because ctx was cancelled.
	Err error
}

// AddParseErrors counts rows the dataset reader rejected as failures.
func (r *Report) AddParseErrors(errs []*dataset.RowError) {
	for _, e := range errs {
		r.Rows++
		r.Failed++
		r.Failures = append(r.Failures, RowFailure{Row: e.Line, Err: e.Err})
	}
}

// Run ingests rows sequentially. Row failures are logged and reported;
// they never stop the run. Run stops early only when ctx is cancelled.
// With checkpoints configured, rows already attempted by an earlier
// interrupted run over the same source are skipped.
func (i *Ingestor) Run(ctx context.Context, rows []types.PlayerSeason) *Report {
	start := time.Now()
	report := &Report{RunID: uuid.NewString()}
	logger := i.logger.With("run_id", report.RunID)

	if i.opts.Constraints {
		if err := i.EnsureConstraints(ctx, types.AllEntityTypes); err != nil {
			logger.Warn("Constraint setup failed, continuing without them", "error", err)
		}
	}
	if i.opts.VectorIndex {
		if err := i.EnsureVectorIndex(ctx); err != nil {
			logger.Warn("Vector index setup failed", "error", err)
		}
	}

	cp := i.loadCheckpoint(ctx, report, len(rows), logger)
	if cp != nil {
		report.StartRow = cp.NextRow
	}

	logger.Info("Starting ingest", "rows", len(rows), "start_row", report.StartRow)
	for idx := report.StartRow; idx < len(rows); idx++ {
		if err := ctx.Err(); err != nil {
			report.Err = err
			break
		}
		row := &rows[idx]
		report.Rows++
		err := i.IngestRow(ctx, row)
		i.opts.Metrics.RecordIngestRow(err == nil)
		if cp != nil {
			cp.Advance(idx, err == nil)
			if (idx+1-report.StartRow)%i.opts.CheckpointEvery == 0 {
				i.saveCheckpoint(cp, nil, logger)
			}
		}
		if err != nil {
			report.Failed++
			report.Failures = append(report.Failures, RowFailure{Row: idx, Player: row.Name, Err: err})
			logger.Warn("Row failed", "row", idx, "player", row.Name, "error", err)
			continue
		}
		report.Succeeded++
	}

	if cp != nil {
		if report.Err != nil {
			i.saveCheckpoint(cp, report.Err, logger)
		} else if err := i.opts.Checkpoints.Delete(ctx, cp.ID); err != nil {
			logger.Warn("Failed to delete checkpoint", "error", err)
		}
	}

	report.Duration = time.Since(start)
	logger.Info("Ingest finished",
		"rows", report.Rows,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"duration", report.Duration)
	return report
}

// loadCheckpoint returns nil when checkpoints are off or unusable; a run
// without one simply starts at row zero.
func (i *Ingestor) loadCheckpoint(ctx context.Context, report *Report, total int, logger *slog.Logger) *checkpoint.IngestCheckpoint {
	if i.opts.Checkpoints == nil || i.opts.Source == "" {
		return nil
	}
	cp, resumed, err := i.opts.Checkpoints.LoadOrCreate(ctx, i.opts.Source, report.RunID, total)
	if err != nil {
		logger.Warn("Checkpointing disabled", "error", err)
		return nil
	}
	if resumed {
		report.Resumed = true
		logger.Info("Resuming ingest", "previous_run_id", cp.RunID, "progress", cp.Progress())
	}
	return cp
}

func (i *Ingestor) saveCheckpoint(cp *checkpoint.IngestCheckpoint, runErr error, logger *slog.Logger) {
	// The run context may already be cancelled.
	ctx := context.Background()
	var err error
	if runErr != nil {
		err = i.opts.Checkpoints.SaveWithError(ctx, cp, runErr)
	} else {
		err = i.opts.Checkpoints.Save(ctx, cp)
	}
	if err != nil {
		logger.Warn("Failed to save checkpoint", "error", err)
	}
}
