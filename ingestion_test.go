package footballkg

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/footballkg/pkg/checkpoint"
	"github.com/soundprediction/footballkg/pkg/dataset"
	"github.com/soundprediction/footballkg/pkg/driver"
	"github.com/soundprediction/footballkg/pkg/types"
)

func sampleRow() types.PlayerSeason {
	return types.PlayerSeason{
		Name:          "A. Striker",
		MatchesPlayed: 30,
		Goals:         20,
		XG:            17.4,
		Shots:         95,
		Year:          "2020",
		Minutes:       2610,
		Substitution:  2,
		Club:          "FC Sample",
		League:        "Sample League",
		Country:       "Sampleland",
	}
}

func newTestIngestor(g *fakeGraph, e *hashEmbedder) *Ingestor {
	return NewIngestor(g, e, NewIngestOptions(), nil)
}

func TestIngestorRunBuildsGraph(t *testing.T) {
	g := newFakeGraph()
	ing := newTestIngestor(g, newHashEmbedder())

	report := ing.Run(context.Background(), []types.PlayerSeason{sampleRow()})
	require.NoError(t, report.Err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 1, report.Rows)
	assert.Equal(t, 1, report.Succeeded)
	assert.Zero(t, report.Failed)

	player, ok := g.node(types.PlayerEntity, "A. Striker")
	require.True(t, ok)
	assert.Equal(t, int64(30), player["matches"])
	assert.Equal(t, int64(20), player["goals"])
	assert.Equal(t, 17.4, player["xG"])
	assert.Equal(t, int64(2020), player["year"])
	assert.Len(t, player[types.EmbeddingProperty], 384)

	assert.True(t, g.hasRel(types.PlayerEntity, "A. Striker", types.PlaysFor, types.ClubEntity, "FC Sample"))
	assert.True(t, g.hasRel(types.ClubEntity, "FC Sample", types.PartOf, types.LeagueEntity, "Sample League"))
	assert.True(t, g.hasRel(types.LeagueEntity, "Sample League", types.InCountry, types.CountryEntity, "Sampleland"))

	assert.Len(t, g.constraints, len(types.AllEntityTypes))
	require.Contains(t, g.indexes, DefaultIndexName)
}

func TestIngestorRunIsIdempotent(t *testing.T) {
	g := newFakeGraph()
	ing := newTestIngestor(g, newHashEmbedder())
	rows := []types.PlayerSeason{sampleRow(), sampleRow()}

	report := ing.Run(context.Background(), rows)
	assert.Equal(t, 2, report.Succeeded)
	report = ing.Run(context.Background(), rows)
	assert.Equal(t, 2, report.Succeeded)

	for _, et := range types.AllEntityTypes {
		assert.Equal(t, 1, g.count(et), "label %s", et)
	}
	assert.Len(t, g.rels, 3)
}

func TestIngestorLastRowWins(t *testing.T) {
	g := newFakeGraph()
	ing := newTestIngestor(g, newHashEmbedder())

	later := sampleRow()
	later.Goals = 25
	later.Year = "2021"
	ing.Run(context.Background(), []types.PlayerSeason{sampleRow(), later})

	assert.Equal(t, 1, g.count(types.PlayerEntity))
	player, _ := g.node(types.PlayerEntity, "A. Striker")
	assert.Equal(t, int64(25), player["goals"])
	assert.Equal(t, int64(2021), player["year"])
}

func TestIngestorUpsertSameKeyTwice(t *testing.T) {
	ctx := context.Background()
	g := newFakeGraph()
	ing := newTestIngestor(g, newHashEmbedder())
	row := sampleRow()

	for range 2 {
		require.NoError(t, ing.UpsertPlayer(ctx, &row))
		require.NoError(t, ing.UpsertClub(ctx, "FC Sample"))
		require.NoError(t, ing.UpsertLeague(ctx, "Sample League"))
		require.NoError(t, ing.UpsertCountry(ctx, "Sampleland"))
	}
	for _, et := range types.AllEntityTypes {
		assert.Equal(t, 1, g.count(et), "label %s", et)
	}
}

func TestIngestorUpsertEmptyName(t *testing.T) {
	ctx := context.Background()
	ing := newTestIngestor(newFakeGraph(), newHashEmbedder())

	assert.ErrorIs(t, ing.UpsertPlayer(ctx, &types.PlayerSeason{}), types.ErrEmptyName)
	assert.ErrorIs(t, ing.UpsertClub(ctx, ""), types.ErrEmptyClub)
	assert.ErrorIs(t, ing.UpsertLeague(ctx, ""), types.ErrEmptyLeague)
	assert.ErrorIs(t, ing.UpsertCountry(ctx, ""), types.ErrEmptyCountry)
}

func TestIngestorEmbeddingDependsOnDescriptionOnly(t *testing.T) {
	ctx := context.Background()
	g := newFakeGraph()
	emb := newHashEmbedder()
	ing := newTestIngestor(g, emb)

	row := sampleRow()
	require.NoError(t, ing.UpsertPlayer(ctx, &row))
	first, _ := g.node(types.PlayerEntity, row.Name)
	firstVec := first[types.EmbeddingProperty].([]float32)

	other := row
	other.Club = "Other FC"
	other.Year = "2019"
	other.XG = 3.2
	require.NoError(t, ing.UpsertPlayer(ctx, &other))
	second, _ := g.node(types.PlayerEntity, row.Name)

	assert.Equal(t, firstVec, second[types.EmbeddingProperty].([]float32))
	assert.Equal(t, []string{
		"A. Striker played 30 matches and scored 20 goals.",
		"A. Striker played 30 matches and scored 20 goals.",
	}, emb.calls)
}

func TestIngestorEmbeddingDimensionMismatch(t *testing.T) {
	g := newFakeGraph()
	emb := newHashEmbedder()
	opts := NewIngestOptions()
	opts.Dimensions = 768
	ing := NewIngestor(g, emb, opts, nil)

	row := sampleRow()
	err := ing.UpsertPlayer(context.Background(), &row)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index expects 768")
	assert.Zero(t, g.count(types.PlayerEntity))
}

func TestIngestorEnsureVectorIndexTwice(t *testing.T) {
	ctx := context.Background()
	g := newFakeGraph()
	ing := newTestIngestor(g, newHashEmbedder())

	require.NoError(t, ing.EnsureVectorIndex(ctx))
	require.NoError(t, ing.EnsureVectorIndex(ctx))

	require.Len(t, g.indexes, 1)
	idx := g.indexes[DefaultIndexName]
	assert.Equal(t, 384, idx.Dimensions)
	assert.Equal(t, driver.SimilarityCosine, idx.Similarity)
	assert.Equal(t, string(types.PlayerEntity), idx.Label)
	assert.Equal(t, types.EmbeddingProperty, idx.Property)
}

func TestIngestorEnsureToleratesAlreadyExists(t *testing.T) {
	ctx := context.Background()
	g := newFakeGraph()
	g.writeErr = func(query string, params map[string]any) error {
		if strings.HasPrefix(query, "CREATE") {
			return errors.New("An equivalent index already exists")
		}
		return nil
	}
	ing := newTestIngestor(g, newHashEmbedder())

	assert.NoError(t, ing.EnsureVectorIndex(ctx))
	assert.NoError(t, ing.EnsureConstraints(ctx, types.AllEntityTypes))
}

func TestIngestorEnsureConstraintsFailure(t *testing.T) {
	g := newFakeGraph()
	g.writeErr = func(query string, params map[string]any) error {
		return errors.New("permission denied")
	}
	ing := newTestIngestor(g, newHashEmbedder())

	err := ing.EnsureConstraints(context.Background(), []types.EntityType{types.ClubEntity})
	require.Error(t, err)
	assert.True(t, driver.IsStoreError(err))
}

func TestIngestorLinkSkipsMissingEndpoint(t *testing.T) {
	ctx := context.Background()
	g := newFakeGraph()
	ing := newTestIngestor(g, newHashEmbedder())

	row := sampleRow()
	require.NoError(t, ing.UpsertPlayer(ctx, &row))
	require.NoError(t, ing.UpsertClub(ctx, row.Club))
	require.NoError(t, ing.UpsertLeague(ctx, row.League))

	require.NoError(t, ing.Link(ctx, row.Name, row.Club, row.League, "Nowhere"))
	assert.True(t, g.hasRel(types.PlayerEntity, row.Name, types.PlaysFor, types.ClubEntity, row.Club))
	assert.True(t, g.hasRel(types.ClubEntity, row.Club, types.PartOf, types.LeagueEntity, row.League))
	assert.Len(t, g.rels, 2)
	assert.Zero(t, g.count(types.CountryEntity))
}

func TestIngestorRunContinuesAfterRowFailure(t *testing.T) {
	g := newFakeGraph()
	g.writeErr = func(query string, params map[string]any) error {
		if params["name"] == "Broken Player" {
			return errors.New("constraint violation")
		}
		return nil
	}
	ing := newTestIngestor(g, newHashEmbedder())

	broken := sampleRow()
	broken.Name = "Broken Player"
	broken.Club = "Broken FC"
	report := ing.Run(context.Background(), []types.PlayerSeason{broken, sampleRow()})

	assert.Equal(t, 2, report.Rows)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 0, report.Failures[0].Row)
	assert.Equal(t, "Broken Player", report.Failures[0].Player)
	assert.True(t, driver.IsStoreError(report.Failures[0].Err))

	_, ok := g.node(types.PlayerEntity, "A. Striker")
	assert.True(t, ok)
	// The failed row's later steps still ran.
	_, ok = g.node(types.ClubEntity, "Broken FC")
	assert.True(t, ok)
}

func TestIngestorRunRejectsInvalidRow(t *testing.T) {
	g := newFakeGraph()
	emb := newHashEmbedder()
	ing := newTestIngestor(g, emb)

	row := sampleRow()
	row.Club = ""
	report := ing.Run(context.Background(), []types.PlayerSeason{row})

	assert.Equal(t, 1, report.Failed)
	assert.ErrorIs(t, report.Failures[0].Err, types.ErrEmptyClub)
	assert.Zero(t, g.count(types.PlayerEntity))
	assert.Empty(t, emb.calls)
}

func TestIngestorRunEmbedderFailure(t *testing.T) {
	g := newFakeGraph()
	emb := newHashEmbedder()
	emb.err = errors.New("model not loaded")
	ing := newTestIngestor(g, emb)

	report := ing.Run(context.Background(), []types.PlayerSeason{sampleRow()})
	assert.Equal(t, 1, report.Failed)
	assert.ErrorContains(t, report.Failures[0].Err, "model not loaded")
	assert.Zero(t, g.count(types.PlayerEntity))
	assert.Equal(t, 1, g.count(types.ClubEntity))
}

func TestIngestorRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := newFakeGraph()
	opts := NewIngestOptions()
	opts.Constraints = false
	opts.VectorIndex = false
	ing := NewIngestor(g, newHashEmbedder(), opts, nil)

	report := ing.Run(ctx, []types.PlayerSeason{sampleRow()})
	assert.ErrorIs(t, report.Err, context.Canceled)
	assert.Zero(t, report.Rows)
	assert.Empty(t, g.writes)
}

func threeRows() []types.PlayerSeason {
	rows := make([]types.PlayerSeason, 3)
	for i, name := range []string{"Player A", "Player B", "Player C"} {
		rows[i] = sampleRow()
		rows[i].Name = name
	}
	return rows
}

func TestIngestorRunResumesFromCheckpoint(t *testing.T) {
	ctx := context.Background()
	manager, err := checkpoint.NewManager(t.TempDir())
	require.NoError(t, err)

	saved := checkpoint.New("players.csv", "earlier-run", 3)
	saved.Advance(0, true)
	saved.Advance(1, true)
	require.NoError(t, manager.Save(ctx, saved))

	g := newFakeGraph()
	opts := NewIngestOptions()
	opts.Checkpoints = manager
	opts.Source = "players.csv"
	report := NewIngestor(g, newHashEmbedder(), opts, nil).Run(ctx, threeRows())

	require.NoError(t, report.Err)
	assert.True(t, report.Resumed)
	assert.Equal(t, 2, report.StartRow)
	assert.Equal(t, 1, report.Rows)
	assert.Equal(t, 1, g.count(types.PlayerEntity))
	_, ok := g.node(types.PlayerEntity, "Player C")
	assert.True(t, ok)

	exists, err := manager.Exists(ctx, saved.ID)
	require.NoError(t, err)
	assert.False(t, exists, "a finished run removes its checkpoint")
}

func TestIngestorRunKeepsCheckpointWhenInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	manager, err := checkpoint.NewManager(t.TempDir())
	require.NoError(t, err)

	opts := NewIngestOptions()
	opts.Constraints = false
	opts.VectorIndex = false
	opts.Checkpoints = manager
	opts.Source = "players.csv"
	report := NewIngestor(newFakeGraph(), newHashEmbedder(), opts, nil).Run(ctx, threeRows())
	require.ErrorIs(t, report.Err, context.Canceled)

	cp, err := manager.Load(context.Background(), checkpoint.IDForSource("players.csv"))
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Zero(t, cp.NextRow)
	assert.Equal(t, 1, cp.AttemptCount)
	assert.Equal(t, report.RunID, cp.RunID)
}

func TestReportAddParseErrors(t *testing.T) {
	report := &Report{Rows: 2, Succeeded: 2}
	report.AddParseErrors([]*dataset.RowError{{Line: 4, Err: errors.New("bad goals")}})

	assert.Equal(t, 3, report.Rows)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 4, report.Failures[0].Row)
}
