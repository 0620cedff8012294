package footballkg

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/soundprediction/footballkg/pkg/driver"
	"github.com/soundprediction/footballkg/pkg/nlp"
	"github.com/soundprediction/footballkg/pkg/types"
)

// fakeGraph is an in-memory GraphDriver that understands the statements
// the ingestor and the schema introspector issue. Other reads go to
// readFunc.
type fakeGraph struct {
	mu          sync.Mutex
	nodes       map[string]map[string]map[string]any
	rels        map[fakeRel]bool
	constraints map[string]bool
	indexes     map[string]driver.VectorIndex
	writes      []string
	reads       []string

	// writeErr, when set, can fail a write before it is applied.
	writeErr func(query string, params map[string]any) error
	readFunc func(g *fakeGraph, query string, params map[string]any) (*types.Result, error)
	closed   bool
}

type fakeRel struct {
	FromLabel, From, Type, ToLabel, To string
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		nodes:       make(map[string]map[string]map[string]any),
		rels:        make(map[fakeRel]bool),
		constraints: make(map[string]bool),
		indexes:     make(map[string]driver.VectorIndex),
	}
}

func (g *fakeGraph) ExecuteWrite(ctx context.Context, query string, params map[string]any) (*types.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &driver.StoreError{Op: driver.OpWrite, Query: query, Err: err}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writes = append(g.writes, query)

	if g.writeErr != nil {
		if err := g.writeErr(query, params); err != nil {
			return nil, &driver.StoreError{Op: driver.OpWrite, Query: query, Err: err}
		}
	}

	switch {
	case strings.HasPrefix(query, "CREATE CONSTRAINT"):
		g.constraints[query] = true
		return &types.Result{}, nil
	case strings.HasPrefix(query, "CREATE VECTOR INDEX"):
		for _, dims := range []int{384, 1536, 3072} {
			idx := driver.VectorIndex{
				Name:       DefaultIndexName,
				Label:      string(types.PlayerEntity),
				Property:   types.EmbeddingProperty,
				Dimensions: dims,
				Similarity: driver.SimilarityCosine,
			}
			if driver.VectorIndexQuery(idx) == query {
				g.indexes[idx.Name] = idx
				return &types.Result{}, nil
			}
		}
		return nil, &driver.StoreError{Op: driver.OpWrite, Query: query, Err: errors.New("unsupported index")}
	case query == driver.LinkQuery(linkHops):
		return g.link(params), nil
	}

	for _, label := range types.AllEntityTypes {
		l := string(label)
		switch query {
		case driver.MergeNodeQuery(l):
			props, _ := params["props"].(map[string]any)
			return g.merge(l, params["name"].(string), props), nil
		case driver.MergeNameQuery(l):
			return g.merge(l, params["name"].(string), nil), nil
		}
	}
	return nil, &driver.StoreError{Op: driver.OpWrite, Query: query, Err: fmt.Errorf("unsupported write: %s", query)}
}

func (g *fakeGraph) merge(label, name string, props map[string]any) *types.Result {
	byName, ok := g.nodes[label]
	if !ok {
		byName = make(map[string]map[string]any)
		g.nodes[label] = byName
	}
	res := &types.Result{Keys: []string{"name"}}
	node, ok := byName[name]
	if !ok {
		node = map[string]any{"name": name}
		byName[name] = node
		res.Counters.NodesCreated = 1
	}
	for k, v := range props {
		node[k] = v
	}
	res.Records = []types.Record{{Keys: []string{"name"}, Values: []any{name}}}
	return res
}

func (g *fakeGraph) link(params map[string]any) *types.Result {
	res := &types.Result{Keys: []string{"linked"}}
	for _, h := range linkHops {
		from, _ := params[h.FromParam].(string)
		to, _ := params[h.ToParam].(string)
		if !g.hasNode(h.FromLabel, from) || !g.hasNode(h.ToLabel, to) {
			continue
		}
		r := fakeRel{FromLabel: h.FromLabel, From: from, Type: h.Type, ToLabel: h.ToLabel, To: to}
		if !g.rels[r] {
			g.rels[r] = true
			res.Counters.RelationshipsCreated++
		}
	}
	res.Records = []types.Record{{Keys: []string{"linked"}, Values: []any{int64(1)}}}
	return res
}

func (g *fakeGraph) hasNode(label, name string) bool {
	_, ok := g.nodes[label][name]
	return ok
}

func (g *fakeGraph) ExecuteRead(ctx context.Context, query string, params map[string]any) (*types.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &driver.StoreError{Op: driver.OpRead, Query: query, Err: err}
	}
	g.mu.Lock()
	g.reads = append(g.reads, query)
	g.mu.Unlock()

	switch {
	case strings.HasPrefix(query, "CALL db.schema.nodeTypeProperties"):
		return g.nodeTypeProperties(), nil
	case strings.HasPrefix(query, "CALL db.schema.relTypeProperties"):
		return g.relTypeProperties(), nil
	case strings.HasPrefix(query, "MATCH (a)-[r]->(b)"):
		return g.patterns(), nil
	case strings.HasPrefix(query, "CALL db.index.vector.queryNodes"):
		return g.vectorQuery(params), nil
	}
	if g.readFunc != nil {
		return g.readFunc(g, query, params)
	}
	return &types.Result{}, nil
}

func (g *fakeGraph) nodeTypeProperties() *types.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	keys := []string{"nodeLabels", "propertyName", "propertyTypes"}
	res := &types.Result{Keys: keys}
	for _, label := range sortedKeys(g.nodes) {
		seen := make(map[string]string)
		for _, node := range g.nodes[label] {
			for k, v := range node {
				seen[k] = propertyType(v)
			}
		}
		for _, name := range sortedKeys(seen) {
			res.Records = append(res.Records, types.Record{
				Keys:   keys,
				Values: []any{[]any{label}, name, []any{seen[name]}},
			})
		}
	}
	return res
}

func (g *fakeGraph) relTypeProperties() *types.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	keys := []string{"relType", "propertyName", "propertyTypes"}
	res := &types.Result{Keys: keys}
	seen := make(map[string]bool)
	for r := range g.rels {
		seen[r.Type] = true
	}
	for _, t := range sortedKeys(seen) {
		res.Records = append(res.Records, types.Record{
			Keys:   keys,
			Values: []any{":`" + t + "`", nil, nil},
		})
	}
	return res
}

func (g *fakeGraph) patterns() *types.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	keys := []string{"from", "rel", "to"}
	res := &types.Result{Keys: keys}
	seen := make(map[[3]string]bool)
	for r := range g.rels {
		seen[[3]string{r.FromLabel, r.Type, r.ToLabel}] = true
	}
	var all [][3]string
	for p := range seen {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return strings.Join(all[i][:], "|") < strings.Join(all[j][:], "|") })
	for _, p := range all {
		res.Records = append(res.Records, types.Record{
			Keys:   keys,
			Values: []any{[]any{p[0]}, p[1], []any{p[2]}},
		})
	}
	return res
}

func (g *fakeGraph) vectorQuery(params map[string]any) *types.Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	query, _ := params["embedding"].([]float32)
	k, _ := params["k"].(int)

	keys := []string{"name", "score"}
	res := &types.Result{Keys: keys}
	type scored struct {
		name  string
		score float64
	}
	var all []scored
	for name, node := range g.nodes[string(types.PlayerEntity)] {
		vec, ok := node[types.EmbeddingProperty].([]float32)
		if !ok {
			continue
		}
		all = append(all, scored{name: name, score: cosine(query, vec)})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].score > all[j].score })
	if k < len(all) {
		all = all[:k]
	}
	for _, s := range all {
		res.Records = append(res.Records, types.Record{Keys: keys, Values: []any{s.name, s.score}})
	}
	return res
}

// playersAt returns the players linked to club, as a query over PLAYS_FOR would.
func (g *fakeGraph) playersAt(club string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for r := range g.rels {
		if r.Type == string(types.PlaysFor) && r.To == club {
			out = append(out, r.From)
		}
	}
	sort.Strings(out)
	return out
}

func (g *fakeGraph) node(label types.EntityType, name string) (map[string]any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[string(label)][name]
	return n, ok
}

func (g *fakeGraph) count(label types.EntityType) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes[string(label)])
}

func (g *fakeGraph) hasRel(fromLabel types.EntityType, from string, relType types.RelationshipType, toLabel types.EntityType, to string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rels[fakeRel{FromLabel: string(fromLabel), From: from, Type: string(relType), ToLabel: string(toLabel), To: to}]
}

func (g *fakeGraph) VerifyConnectivity(ctx context.Context) error { return nil }

func (g *fakeGraph) Close(ctx context.Context) error {
	g.closed = true
	return nil
}

func (g *fakeGraph) Provider() driver.GraphProvider { return driver.GraphProviderNeo4j }

func propertyType(v any) string {
	switch v.(type) {
	case string:
		return "String"
	case int64, int:
		return "Long"
	case float64:
		return "Double"
	case []float32:
		return "FloatArray"
	default:
		return "Any"
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// hashEmbedder derives a deterministic vector from the text.
type hashEmbedder struct {
	dims  int
	calls []string
	err   error
}

func newHashEmbedder() *hashEmbedder {
	return &hashEmbedder{dims: 384}
}

func (e *hashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := e.EmbedSingle(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (e *hashEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	e.calls = append(e.calls, text)
	if e.err != nil {
		return nil, e.err
	}
	vec := make([]float32, e.dims)
	seed := sha256.Sum256([]byte(text))
	for i := range vec {
		block := sha256.Sum256(append(seed[:], byte(i), byte(i>>8)))
		vec[i] = float32(binary.BigEndian.Uint32(block[:4]))/math.MaxUint32 - 0.5
	}
	return vec, nil
}

func (e *hashEmbedder) Dimensions() int { return e.dims }

func (e *hashEmbedder) Close() error { return nil }

// scriptedLLM answers by pipeline stage.
type scriptedLLM struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	panics    map[string]any
	calls     map[string][][]types.Message
}

func newScriptedLLM(query, answer string) *scriptedLLM {
	return &scriptedLLM{
		responses: map[string]string{
			"cypher_generation": query,
			"answer_synthesis":  answer,
		},
		errs:   make(map[string]error),
		panics: make(map[string]any),
		calls:  make(map[string][][]types.Message),
	}
}

func (l *scriptedLLM) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	stage := nlp.Stage(ctx)
	l.mu.Lock()
	l.calls[stage] = append(l.calls[stage], messages)
	content := l.responses[stage]
	err := l.errs[stage]
	p := l.panics[stage]
	l.mu.Unlock()

	if p != nil {
		panic(p)
	}
	if err != nil {
		return nil, err
	}
	return &types.Response{Content: content, Model: "scripted"}, nil
}

func (l *scriptedLLM) Close() error { return nil }

func (l *scriptedLLM) callCount(stage string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls[stage])
}

func (l *scriptedLLM) lastUserPrompt(stage string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	calls := l.calls[stage]
	if len(calls) == 0 {
		return ""
	}
	msgs := calls[len(calls)-1]
	return msgs[len(msgs)-1].Content
}
