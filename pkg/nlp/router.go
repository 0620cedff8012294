package nlp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/soundprediction/footballkg/pkg/config"
	"github.com/soundprediction/footballkg/pkg/types"
)

// RouterClient routes requests to specific LLM providers based on the
// pipeline stage carried in the context.
type RouterClient struct {
	providers     map[string]Client
	rules         []config.RouterRule
	defaultClient Client
	logger        *slog.Logger
}

// NewRouterClient creates a new router client. The provider keyed "default"
// serves stages no rule matches; without one, the alphabetically first
// provider does.
func NewRouterClient(providers map[string]Client, rules []config.RouterRule, logger *slog.Logger) (*RouterClient, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}
	for _, rule := range rules {
		if _, ok := providers[rule.Provider]; !ok {
			return nil, fmt.Errorf("router rule for stage %q names unknown provider %q", rule.Stage, rule.Provider)
		}
		if rule.Fallback != "" {
			if _, ok := providers[rule.Fallback]; !ok {
				return nil, fmt.Errorf("router rule for stage %q names unknown fallback %q", rule.Stage, rule.Fallback)
			}
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	defaultClient, ok := providers["default"]
	if !ok {
		names := make([]string, 0, len(providers))
		for name := range providers {
			names = append(names, name)
		}
		sort.Strings(names)
		defaultClient = providers[names[0]]
	}

	return &RouterClient{
		providers:     providers,
		rules:         rules,
		defaultClient: defaultClient,
		logger:        logger,
	}, nil
}

func (r *RouterClient) clientsFor(ctx context.Context) (primary Client, name string, fallback Client) {
	stage := Stage(ctx)
	if stage == "" {
		return r.defaultClient, "default", nil
	}

	for _, rule := range r.rules {
		if !strings.EqualFold(rule.Stage, stage) {
			continue
		}
		if rule.Fallback != "" {
			fallback = r.providers[rule.Fallback]
		}
		return r.providers[rule.Provider], rule.Provider, fallback
	}

	return r.defaultClient, "default", nil
}

// Chat implements Client with routing and fallback
func (r *RouterClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	primary, name, fallback := r.clientsFor(ctx)

	resp, err := primary.Chat(ctx, messages)
	if err == nil {
		return resp, nil
	}
	if fallback == nil || ctx.Err() != nil {
		return nil, err
	}

	r.logger.Warn("routing fallback triggered",
		"stage", Stage(ctx),
		"provider", name,
		"error", err)
	return fallback.Chat(ctx, messages)
}

// Close closes all providers
func (r *RouterClient) Close() error {
	var errs []string
	for id, provider := range r.providers {
		if err := provider.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", id, err))
		}
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("errors closing providers: %s", strings.Join(errs, "; "))
	}
	return nil
}
