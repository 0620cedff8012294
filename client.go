package footballkg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/soundprediction/footballkg/pkg/answer"
	"github.com/soundprediction/footballkg/pkg/cypher"
	"github.com/soundprediction/footballkg/pkg/driver"
	"github.com/soundprediction/footballkg/pkg/embedder"
	"github.com/soundprediction/footballkg/pkg/nlp"
	"github.com/soundprediction/footballkg/pkg/prompts"
	"github.com/soundprediction/footballkg/pkg/schema"
	"github.com/soundprediction/footballkg/pkg/telemetry"
	"github.com/soundprediction/footballkg/pkg/types"
	"github.com/soundprediction/footballkg/pkg/utils"
)

// ErrNoEmbedder is returned by SimilarPlayers when the client has no embedder.
var ErrNoEmbedder = errors.New("no embedder configured")

// State is a step of the question answering pipeline.
type State string

const (
	StateReceived        State = "RECEIVED"
	StateGeneratingQuery State = "GENERATING_QUERY"
	StateExecuting       State = "EXECUTING"
	StateSynthesizing    State = "SYNTHESIZING"
	StateAnswered        State = "ANSWERED"
	StateErrored         State = "ERRORED"
)

// Models holds the language models used by each stage. A nil model falls
// back to the client's default model.
type Models struct {
	QueryGeneration nlp.Client
	Synthesis       nlp.Client
}

// Config configures a Client.
type Config struct {
	Models Models
	// Embedder is only needed by SimilarPlayers.
	Embedder embedder.Client
	// Exemplars replaces the built-in few-shot queries when non-empty.
	Exemplars []prompts.Exemplar
	// ValidateQueries rejects generated queries that write to the graph
	// or reference labels, relationship types or properties outside the
	// schema.
	ValidateQueries bool
	MaxContextRows  int
	EnsureASCII     bool
	// IndexName is the player embedding index used by SimilarPlayers.
	IndexName string
	Metrics   *telemetry.Metrics
}

// NewDefaultConfig returns a Config with query validation enabled.
func NewDefaultConfig() *Config {
	return &Config{
		ValidateQueries: true,
		MaxContextRows:  answer.DefaultMaxRows,
		IndexName:       DefaultIndexName,
	}
}

// Client answers natural-language questions over the football graph. It
// holds the schema read at construction until RefreshSchema is called.
type Client struct {
	driver       driver.GraphDriver
	generator    *cypher.Generator
	synthesizer  *answer.Synthesizer
	introspector *schema.Introspector
	embedder     embedder.Client
	config       Config
	logger       *slog.Logger

	schema atomic.Pointer[schema.Schema]
	group  singleflight.Group
}

// NewClient creates a Client and reads the graph schema. A nil config uses
// NewDefaultConfig and a nil logger uses slog.Default().
func NewClient(ctx context.Context, d driver.GraphDriver, llm nlp.Client, config *Config, logger *slog.Logger) (*Client, error) {
	if d == nil {
		return nil, errors.New("graph driver is required")
	}
	if config == nil {
		config = NewDefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg := *config
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}

	queryLLM := cfg.Models.QueryGeneration
	if queryLLM == nil {
		queryLLM = llm
	}
	synthLLM := cfg.Models.Synthesis
	if synthLLM == nil {
		synthLLM = llm
	}
	if queryLLM == nil || synthLLM == nil {
		return nil, errors.New("a language model is required for both stages")
	}

	genOpts := []cypher.GeneratorOption{cypher.WithLogger(logger)}
	if len(cfg.Exemplars) > 0 {
		genOpts = append(genOpts, cypher.WithExemplars(cfg.Exemplars))
	}

	c := &Client{
		driver:    d,
		generator: cypher.NewGenerator(queryLLM, genOpts...),
		synthesizer: answer.NewSynthesizer(synthLLM,
			answer.WithMaxRows(cfg.MaxContextRows),
			answer.WithEnsureASCII(cfg.EnsureASCII),
			answer.WithLogger(logger)),
		introspector: schema.NewIntrospector(d, logger),
		embedder:     cfg.Embedder,
		config:       cfg,
		logger:       logger,
	}

	if _, err := c.RefreshSchema(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// GetDriver returns the graph driver.
func (c *Client) GetDriver() driver.GraphDriver {
	return c.driver
}

// Schema returns the cached schema.
func (c *Client) Schema() *schema.Schema {
	return c.schema.Load()
}

// SchemaText returns the cached schema as given to the query generator.
func (c *Client) SchemaText() string {
	if s := c.schema.Load(); s != nil {
		return s.String()
	}
	return ""
}

// RefreshSchema re-reads the schema from the graph and replaces the cached
// copy. Concurrent calls share one read.
func (c *Client) RefreshSchema(ctx context.Context) (*schema.Schema, error) {
	v, err, _ := c.group.Do("schema", func() (any, error) {
		s, err := c.introspector.Fetch(ctx)
		c.config.Metrics.RecordSchemaRefresh(err)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch schema: %w", err)
		}
		c.schema.Store(s)
		c.logger.Info("Schema loaded",
			"labels", len(s.Nodes),
			"relationship_types", len(s.Relationships))
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*schema.Schema), nil
}

// Answer is the outcome of one question.
type Answer struct {
	RequestID string
	Question  string
	// Query is the generated Cypher, empty when generation failed.
	Query  string
	Result *types.Result
	Text   string
	State  State
	// Failed is the state the pipeline was in when it failed.
	Failed   State
	Err      error
	Duration time.Duration
}

// String returns the answer text, or "Error: <message>" when the pipeline failed.
func (a *Answer) String() string {
	if a.Err != nil {
		return "Error: " + a.Err.Error()
	}
	return a.Text
}

// Answer returns the answer to question, or "Error: <message>" when any
// stage fails. It never panics.
func (c *Client) Answer(ctx context.Context, question string) string {
	return c.Ask(ctx, question).String()
}

// Ask runs the question through query generation, execution and answer
// synthesis. Failures, panics included, end in StateErrored with Err set.
// A request ID already carried by ctx is reused.
func (c *Client) Ask(ctx context.Context, question string) *Answer {
	start := time.Now()
	requestID, _ := ctx.Value(types.ContextKeyRequestID).(string)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = context.WithValue(ctx, types.ContextKeyRequestID, requestID)
	}
	a := &Answer{
		RequestID: requestID,
		Question:  question,
		State:     StateReceived,
	}
	logger := c.logger.With("request_id", a.RequestID)

	err := c.run(ctx, a, logger)
	a.Duration = time.Since(start)
	if err != nil {
		a.Failed = a.State
		a.State = StateErrored
		a.Err = err
		logger.Warn("Question failed", "state", a.Failed, "error", err, "duration", a.Duration)
	} else {
		logger.Info("Question answered", "rows", len(a.Result.Records), "duration", a.Duration)
	}
	c.config.Metrics.RecordQuestion(string(a.State))
	return a
}

func (c *Client) run(ctx context.Context, a *Answer, logger *slog.Logger) (err error) {
	defer utils.RecoverAsError(&err, logger)

	a.State = StateGeneratingQuery
	if strings.TrimSpace(a.Question) == "" {
		return types.ErrEmptyQuestion
	}

	s := c.Schema()
	stageStart := time.Now()
	query, err := c.generator.Generate(ctx, s.String(), a.Question)
	c.config.Metrics.ObserveStage(cypher.StageName, time.Since(stageStart))
	if err != nil {
		return err
	}
	a.Query = query
	if c.config.ValidateQueries {
		if err := cypher.NewGuard(s).Check(query); err != nil {
			return err
		}
	}

	a.State = StateExecuting
	stageStart = time.Now()
	result, err := c.driver.ExecuteRead(ctx, query, nil)
	c.config.Metrics.ObserveStage("execution", time.Since(stageStart))
	if err != nil {
		return err
	}
	if result == nil {
		result = &types.Result{}
	}
	a.Result = result

	a.State = StateSynthesizing
	stageStart = time.Now()
	text, err := c.synthesizer.Synthesize(ctx, a.Question, result)
	c.config.Metrics.ObserveStage(answer.StageName, time.Since(stageStart))
	if err != nil {
		return err
	}
	a.Text = text
	a.State = StateAnswered
	return nil
}

// SimilarPlayer is one nearest neighbour from the player embedding index.
type SimilarPlayer struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

const similarPlayersQuery = `CALL db.index.vector.queryNodes($index, $k, $embedding)
YIELD node, score
RETURN node.name AS name, score
ORDER BY score DESC`

// SimilarPlayers embeds text and returns the k players whose description
// embeddings are closest to it.
func (c *Client) SimilarPlayers(ctx context.Context, text string, k int) ([]SimilarPlayer, error) {
	if c.embedder == nil {
		return nil, ErrNoEmbedder
	}
	if strings.TrimSpace(text) == "" {
		return nil, types.ErrEmptyQuestion
	}
	if k <= 0 {
		k = 5
	}
	vec, err := c.embedder.EmbedSingle(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}
	res, err := c.driver.ExecuteRead(ctx, similarPlayersQuery, map[string]any{
		"index":     c.config.IndexName,
		"k":         k,
		"embedding": vec,
	})
	if err != nil {
		return nil, err
	}

	out := make([]SimilarPlayer, 0, len(res.Records))
	for _, rec := range res.Records {
		rawName, _ := rec.Get("name")
		rawScore, _ := rec.Get("score")
		name, _ := driver.AsString(rawName)
		score, _ := driver.AsFloat64(rawScore)
		out = append(out, SimilarPlayer{Name: name, Score: score})
	}
	return out, nil
}

// Ping checks that the graph store is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

// Close closes the graph driver.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}
