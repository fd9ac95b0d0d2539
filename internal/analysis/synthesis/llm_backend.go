package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/ityard/stocklens/internal/config"
	"github.com/ityard/stocklens/internal/models"
)

const scoringSystemPrompt = `You are an equity analyst. You receive normalized technical and fundamental signals for one stock.

Respond with exactly one of BUY, HOLD or SELL on the first line, then a short rationale on the following lines. Do not output anything before the label.`

// LLMBackend scores a feature set through a chat model. The model runs
// inside a small load -> agent graph so the prompt assembly stays a node,
// not an inline string build at every call site.
type LLMBackend struct {
	name     string
	runnable compose.Runnable[FeatureSet, *schema.Message]
}

// NewLLMBackend builds a backend for the provider named in cfg.ScoringBackend
// ("openai" or "deepseek").
func NewLLMBackend(ctx context.Context, cfg *config.Config) (*LLMBackend, error) {
	var (
		chatModel model.BaseChatModel
		err       error
	)
	switch cfg.ScoringBackend {
	case "openai":
		maxTokens := 2000
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:   cfg.BackendURL,
			APIKey:    cfg.OpenAIAPIKey,
			Model:     cfg.OpenAIModel,
			MaxTokens: &maxTokens,
		})
	case "deepseek":
		chatModel, err = deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.DeepSeekAPIKey,
			Model:     cfg.DeepSeekModel,
			MaxTokens: 2000,
		})
	default:
		return nil, fmt.Errorf("unknown scoring backend %q", cfg.ScoringBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s chat model: %w", cfg.ScoringBackend, err)
	}
	return newLLMBackend(ctx, cfg.ScoringBackend, chatModel)
}

func newLLMBackend(ctx context.Context, name string, chatModel model.BaseChatModel) (*LLMBackend, error) {
	g := compose.NewGraph[FeatureSet, *schema.Message]()

	_ = g.AddLambdaNode("load", compose.InvokableLambda(loadScoringMessages))
	_ = g.AddChatModelNode("agent", chatModel)

	_ = g.AddEdge(compose.START, "load")
	_ = g.AddEdge("load", "agent")
	_ = g.AddEdge("agent", compose.END)

	r, err := g.Compile(ctx, compose.WithGraphName("stocklens-scoring"))
	if err != nil {
		return nil, fmt.Errorf("compile scoring graph: %w", err)
	}
	return &LLMBackend{name: name, runnable: r}, nil
}

func loadScoringMessages(_ context.Context, features FeatureSet) ([]*schema.Message, error) {
	return []*schema.Message{
		schema.SystemMessage(scoringSystemPrompt),
		schema.UserMessage(features.String()),
	}, nil
}

func (b *LLMBackend) Name() string { return b.name }

func (b *LLMBackend) Score(ctx context.Context, features FeatureSet) (Scored, error) {
	msg, err := b.runnable.Invoke(ctx, features)
	if err != nil {
		return Scored{}, fmt.Errorf("invoke scoring graph: %w", err)
	}
	return parseVerdict(msg.Content)
}

// parseVerdict expects the action label on the first non-empty line, with
// the rationale after it. Anything else is a malformed answer.
func parseVerdict(content string) (Scored, error) {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return Scored{}, fmt.Errorf("empty model answer")
	}
	label := models.Action(strings.ToUpper(strings.TrimSpace(strings.Trim(lines[0], "*#. "))))
	switch label {
	case models.ActionBuy, models.ActionHold, models.ActionSell:
	default:
		return Scored{}, fmt.Errorf("model answer does not start with a verdict: %q", lines[0])
	}
	rationale := strings.TrimSpace(strings.Join(lines[1:], "\n"))
	return Scored{Label: label, Rationale: rationale, Confidence: 0.5}, nil
}
