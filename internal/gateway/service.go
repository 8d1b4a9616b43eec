package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sheetmind/ai-gateway/internal/account"
	"github.com/sheetmind/ai-gateway/internal/cache"
	"github.com/sheetmind/ai-gateway/internal/guard"
	"github.com/sheetmind/ai-gateway/internal/ledger"
	"github.com/sheetmind/ai-gateway/internal/provider"
)

type Authorizer interface {
	Check(ctx context.Context, tenantID string) (*guard.Authorization, error)
}

type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type Recorder interface {
	Record(ctx context.Context, entry *ledger.Entry)
}

// Service runs the gated pipeline: guard, tier selection, cache lookup,
// provider invocation, pricing, debit + usage log, cache store.
type Service struct {
	guard    Authorizer
	cache    Cache
	provider provider.Provider
	ledger   Recorder
	tracer   trace.Tracer
}

func NewService(g Authorizer, c Cache, p provider.Provider, l Recorder, tracer trace.Tracer) *Service {
	return &Service{
		guard:    g,
		cache:    c,
		provider: p,
		ledger:   l,
		tracer:   tracer,
	}
}

type Request struct {
	TenantID    string
	RequestID   string
	Capability  Capability
	Question    string
	Platform    string // formula only
	FileName    string // chat only
	FileContext string // chat only; pre-extracted textual sample
	History     []provider.Message
}

type Result struct {
	Text      string
	Tier      provider.Tier
	CostUSD   float64
	Cached    bool
	Plan      account.Plan
	Remaining int // after this operation's debit
}

// Run executes one gated operation. A cache hit skips the provider but
// still debits one quota unit: the metered resource is the operation, not
// the compute behind it.
func (s *Service) Run(ctx context.Context, req *Request) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.run")
	defer span.End()

	authz, err := s.guard.Check(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}

	if len(req.FileContext) > authz.Limits.MaxInputBytes {
		return nil, &ValidationError{Reason: fmt.Sprintf(
			"file context exceeds the %d byte limit of the %s plan", authz.Limits.MaxInputBytes, authz.Plan)}
	}

	tier := tierFor(req.Capability, req.Question)
	span.SetAttributes(
		attribute.String("tenant_id", req.TenantID),
		attribute.String("capability", string(req.Capability)),
		attribute.String("tier", string(tier)),
	)

	var key string
	if policies[req.Capability].cacheable {
		key = cache.Key(string(req.Capability), string(tier), req.Question, req.Platform)
		if text, ok := s.cacheGet(ctx, key); ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			s.ledger.Record(ctx, &ledger.Entry{
				TenantID:   req.TenantID,
				RequestID:  req.RequestID,
				Capability: string(req.Capability),
				Tier:       tier,
				Cached:     true,
			})
			return &Result{
				Text:      text,
				Tier:      tier,
				Cached:    true,
				Plan:      authz.Plan,
				Remaining: authz.Remaining - 1,
			}, nil
		}
	}

	system := s.systemPrompt(req, tier)
	turns := append(append([]provider.Message{}, req.History...),
		provider.Message{Role: "user", Content: req.Question})

	resp, err := s.provider.Invoke(ctx, system, turns, tier)
	if err != nil {
		// A failed generation must not cost the tenant a quota unit.
		return nil, &ProviderError{Err: err}
	}

	s.ledger.Record(ctx, &ledger.Entry{
		TenantID:     req.TenantID,
		RequestID:    req.RequestID,
		Capability:   string(req.Capability),
		Tier:         tier,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		CostUSD:      resp.CostUSD,
	})

	if key != "" {
		s.cacheSet(ctx, key, resp.Text)
	}

	return &Result{
		Text:      resp.Text,
		Tier:      tier,
		CostUSD:   resp.CostUSD,
		Plan:      authz.Plan,
		Remaining: authz.Remaining - 1,
	}, nil
}

type InsightsRequest struct {
	TenantID    string
	RequestID   string
	FileName    string
	FileContext string
	Analyses    []string
}

type InsightsResult struct {
	Results   map[string]string
	CostUSD   float64
	Cached    bool // every analysis served from cache
	Remaining int
}

// RunInsights executes a batch of analyses under a single admission: one
// guard pass, one quota debit, per-analysis caching.
func (s *Service) RunInsights(ctx context.Context, req *InsightsRequest) (*InsightsResult, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.insights")
	defer span.End()

	authz, err := s.guard.Check(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}

	if len(req.FileContext) > authz.Limits.MaxInputBytes {
		return nil, &ValidationError{Reason: fmt.Sprintf(
			"file context exceeds the %d byte limit of the %s plan", authz.Limits.MaxInputBytes, authz.Plan)}
	}

	span.SetAttributes(
		attribute.String("tenant_id", req.TenantID),
		attribute.Int("analyses", len(req.Analyses)),
	)

	results := make(map[string]string, len(req.Analyses))
	var totalCost float64
	var totalIn, totalOut int
	providerCalls := 0

	for _, analysis := range req.Analyses {
		key := cache.Key(string(CapabilityInsights), analysis, contextFingerprint(req.FileContext))
		if text, ok := s.cacheGet(ctx, key); ok {
			results[analysis] = text
			continue
		}

		resp, err := s.provider.Invoke(ctx, insightPrompts[analysis], []provider.Message{
			{Role: "user", Content: "Spreadsheet data:\n" + req.FileContext},
		}, provider.TierSmart)
		if err != nil {
			return nil, &ProviderError{Err: err}
		}
		providerCalls++

		results[analysis] = resp.Text
		totalCost += resp.CostUSD
		totalIn += resp.InputTokens
		totalOut += resp.OutputTokens

		s.cacheSet(ctx, key, resp.Text)
	}

	s.ledger.Record(ctx, &ledger.Entry{
		TenantID:     req.TenantID,
		RequestID:    req.RequestID,
		Capability:   string(CapabilityInsights),
		Tier:         provider.TierSmart,
		InputTokens:  totalIn,
		OutputTokens: totalOut,
		CostUSD:      totalCost,
		Cached:       providerCalls == 0,
	})

	return &InsightsResult{
		Results:   results,
		CostUSD:   totalCost,
		Cached:    providerCalls == 0,
		Remaining: authz.Remaining - 1,
	}, nil
}

func (s *Service) systemPrompt(req *Request, tier provider.Tier) string {
	switch req.Capability {
	case CapabilityFormula:
		return promptFormula + "\nTarget platform: " + strings.ToUpper(req.Platform)
	case CapabilityChat:
		base := promptChatSimple
		if tier == provider.TierSmart {
			base = promptChatComplex
		}
		return base + "\n\n=== FILE DATA ===\nFile: " + req.FileName + "\n" + req.FileContext
	case CapabilityTemplate:
		return promptTemplate
	default:
		return ""
	}
}

// cacheGet treats every cache failure as a miss. That is the designed
// degrade-to-miss policy, not an oversight: cache loss may never change
// the outcome of a request.
func (s *Service) cacheGet(ctx context.Context, key string) (string, bool) {
	text, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			log.Printf("gateway: cache read failed, treating as miss: %v", err)
		}
		return "", false
	}
	return text, true
}

// cacheSet waits for the write but discards its failure.
func (s *Service) cacheSet(ctx context.Context, key, value string) {
	if err := s.cache.Set(ctx, key, value); err != nil {
		log.Printf("gateway: cache write failed: %v", err)
	}
}

// contextFingerprint bounds how much of the file context participates in
// the cache key; the leading slice is enough to tell files apart.
func contextFingerprint(fileContext string) string {
	if len(fileContext) > 200 {
		return fileContext[:200]
	}
	return fileContext
}
