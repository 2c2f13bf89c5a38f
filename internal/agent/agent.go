package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/campaign-intel-backend/internal/listings"
	"github.com/angelmondragon/campaign-intel-backend/internal/shopping"
	"github.com/angelmondragon/campaign-intel-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/campaign-intel-backend/pkg/errors"
	"github.com/angelmondragon/campaign-intel-backend/pkg/logger"
	"github.com/angelmondragon/campaign-intel-backend/pkg/metrics"
	"github.com/angelmondragon/campaign-intel-backend/pkg/openai"
	"github.com/angelmondragon/campaign-intel-backend/pkg/upstream"
)

const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.1
	DefaultMaxToolRuns = 4

	SystemPrompt = "You are a retail and marketing analytics assistant focused on FMCG food products. " +
		"You analyze Google Shopping market data to provide insights on brands, products, and market trends. " +
		"Provide specific, actionable recommendations based on data."
)

var (
	ErrNotConfigured = errors.New("openai api key is not configured")
	ErrToolLimit     = errors.New("agent stopped before producing an answer")
)

// ChatClient sends one chat completion request.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatRequest) (*openai.ChatResponse, error)
}

// ListingsFetcher loads listings when a conversation has no snapshot yet.
type ListingsFetcher interface {
	Fetch(ctx context.Context, query shopping.Query) upstream.Result[[]listings.Record]
	DefaultQuery() shopping.Query
}

// Turn is one prior entry of the conversation.
type Turn struct {
	Role    enums.MessageRole
	Content string
}

// Question is everything one Ask needs.
type Question struct {
	Listings []listings.Record
	History  []Turn
	Prompt   string
}

type Agent struct {
	client      ChatClient
	fetcher     ListingsFetcher
	model       string
	temperature float64
	maxToolRuns int
	metrics     *metrics.UpstreamMetrics
	logg        *logger.Logger
}

type Params struct {
	// Client may be nil when no API key is configured; every Ask then fails
	// with ErrNotConfigured.
	Client      ChatClient
	Fetcher     ListingsFetcher
	Model       string
	Temperature *float64
	MaxToolRuns int
	Metrics     *metrics.UpstreamMetrics
	Logger      *logger.Logger
}

func New(params Params) (*Agent, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	a := &Agent{
		client:      params.Client,
		fetcher:     params.Fetcher,
		model:       strings.TrimSpace(params.Model),
		temperature: DefaultTemperature,
		maxToolRuns: params.MaxToolRuns,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}
	if a.model == "" {
		a.model = DefaultModel
	}
	if params.Temperature != nil {
		a.temperature = *params.Temperature
	}
	if a.maxToolRuns <= 0 {
		a.maxToolRuns = DefaultMaxToolRuns
	}
	return a, nil
}

// Ask runs the tool-calling loop and returns the model's final text.
func (a *Agent) Ask(ctx context.Context, q Question) (string, error) {
	if a.client == nil {
		return "", ErrNotConfigured
	}

	messages := make([]openai.Message, 0, len(q.History)+2)
	messages = append(messages, openai.Message{Role: openai.RoleSystem, Content: SystemPrompt})
	for _, turn := range q.History {
		messages = append(messages, openai.Message{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, openai.Message{Role: openai.RoleUser, Content: q.Prompt})

	source := &listingsSource{records: q.Listings, fetcher: a.fetcher}
	tools := Definitions()

	for round := 0; round <= a.maxToolRuns; round++ {
		resp, err := a.complete(ctx, messages, tools)
		if err != nil {
			return "", err
		}
		reply := resp.Choices[0].Message
		if len(reply.ToolCalls) == 0 {
			return reply.Content, nil
		}
		if round == a.maxToolRuns {
			break
		}

		messages = append(messages, openai.Message{
			Role:      openai.RoleAssistant,
			Content:   reply.Content,
			ToolCalls: reply.ToolCalls,
		})
		for _, call := range reply.ToolCalls {
			a.metrics.IncToolCall(toolMetricLabel(call.Function.Name))
			a.logg.Debug(a.logg.WithField(ctx, "tool", call.Function.Name), "agent.tool.call")
			messages = append(messages, openai.Message{
				Role:       openai.RoleTool,
				Content:    runTool(call.Function.Name, call.Function.Arguments, source.get(ctx)),
				ToolCallID: call.ID,
			})
		}
	}

	a.logg.Warn(a.logg.WithField(ctx, "max_tool_runs", a.maxToolRuns), "agent.tool.limit_reached")
	return "", ErrToolLimit
}

// Answer is Ask with failures mapped onto user-facing text. The returned
// text is always suitable for appending to the conversation.
func (a *Agent) Answer(ctx context.Context, q Question) string {
	answer, err := a.Ask(ctx, q)
	if err != nil {
		a.logg.Warn(a.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "agent.ask.failed")
		return MapFailure(err)
	}
	return answer
}

func (a *Agent) complete(ctx context.Context, messages []openai.Message, tools []openai.Tool) (*openai.ChatResponse, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatRequest{
		Model:       a.model,
		Messages:    messages,
		Tools:       tools,
		Temperature: a.temperature,
	})
	if err != nil {
		a.metrics.IncFailure(openai.Provider, string(upstream.Classify(err)))
		return nil, err
	}
	if resp == nil || len(resp.Choices) == 0 {
		a.metrics.IncFailure(openai.Provider, string(upstream.ReasonMalformedResponse))
		return nil, fmt.Errorf("%w: no choices", upstream.ErrMalformed)
	}
	a.metrics.IncSuccess(openai.Provider)
	return resp, nil
}

// listingsSource fetches at most once per Ask when the snapshot is empty.
type listingsSource struct {
	records []listings.Record
	fetcher ListingsFetcher
	fetched bool
}

func (s *listingsSource) get(ctx context.Context) []listings.Record {
	if len(s.records) > 0 || s.fetched || s.fetcher == nil {
		return s.records
	}
	s.fetched = true
	if res := s.fetcher.Fetch(ctx, s.fetcher.DefaultQuery()); res.OK() {
		s.records = res.Data
	}
	return s.records
}
