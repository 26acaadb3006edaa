package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/scout-cli/internal/model"
	"github.com/sells-group/scout-cli/internal/resilience"
	"github.com/sells-group/scout-cli/pkg/anthropic"
)

// RemoteConfig configures the provider-backed pass-4 strategies.
type RemoteConfig struct {
	Model     string
	MaxTokens int64
}

// remoteBase carries the shared plumbing for the three remote strategies:
// one client, one circuit breaker, one retry policy. The cost gate is
// assumed to have approved the call before the pipeline was invoked.
type remoteBase struct {
	client  anthropic.Client
	cfg     RemoteConfig
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
}

// NewRemoteStrategies returns the Anthropic-backed strategy set. The
// three strategies share a breaker so a degraded provider trips once for
// all of them.
func NewRemoteStrategies(client anthropic.Client, cfg RemoteConfig) Strategies {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}
	base := &remoteBase{
		client:  client,
		cfg:     cfg,
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
		retry:   resilience.DefaultRetryConfig(),
	}
	return Strategies{
		SalesFit:    &remoteSalesFit{base},
		Investigate: &remoteInvestigator{base},
		Personality: &remotePersonality{base},
	}
}

// complete sends one prompt and returns the first text block, wrapped in
// the breaker and transient retry.
func (b *remoteBase) complete(ctx context.Context, scan, system, user string) (string, error) {
	return resilience.ExecuteVal(ctx, b.breaker, func(ctx context.Context) (string, error) {
		return resilience.DoVal(ctx, b.retry, func(ctx context.Context) (string, error) {
			resp, err := b.client.CreateMessage(ctx, anthropic.MessageRequest{
				Model:     b.cfg.Model,
				MaxTokens: b.cfg.MaxTokens,
				System:    anthropic.BuildCachedSystemBlocks(system),
				Messages:  []anthropic.Message{{Role: "user", Content: user}},
			})
			if err != nil {
				return "", classifyAPIError(err)
			}
			resp.Usage.LogCost(b.cfg.Model, scan)
			if text := resp.FirstText(); text != "" {
				return text, nil
			}
			return "", eris.New("remote scan: empty response")
		})
	})
}

// classifyAPIError marks overload and throttle statuses from the provider
// as transient so the retry loop picks them up; 4xx payload rejections
// stay permanent.
func classifyAPIError(err error) error {
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
		return resilience.NewTransientError(err, apiErr.StatusCode)
	}
	return err
}

// decodeJSON parses the model's reply, tolerating a fenced code block.
func decodeJSON(raw string, v any) error {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "{"); i > 0 {
		s = s[i:]
	}
	if i := strings.LastIndex(s, "}"); i >= 0 {
		s = s[:i+1]
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return eris.Wrap(err, "remote scan: parse response")
	}
	return nil
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

func scanPrompt(in ScanInput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Prospect text:\n%s\n\n", in.Text)
	if in.Record.Occupation != "" {
		fmt.Fprintf(&sb, "Occupation: %s\n", in.Record.Occupation)
	}
	if in.Record.Budget > 0 {
		fmt.Fprintf(&sb, "Stated budget: %.0f\n", in.Record.Budget)
	}
	if len(in.Record.InterestTags) > 0 {
		fmt.Fprintf(&sb, "Interest tags: %s\n", strings.Join(in.Record.InterestTags, ", "))
	}
	if in.Behavior != nil {
		fmt.Fprintf(&sb, "Observed sentiment: %s, urgency: %s\n", in.Behavior.Sentiment, in.Behavior.UrgencyLevel)
	}
	return sb.String()
}

type remoteSalesFit struct{ *remoteBase }

const salesFitSystem = `You assess sales fit for a prospect from their message text.
Respond with ONLY a JSON object:
{"buying_ability":"low|medium|high","fit_reasons":["..."],"product_fit":0-100,"confidence":0-100}`

func (r *remoteSalesFit) AnalyzeSalesFit(ctx context.Context, in ScanInput) (*SalesFit, error) {
	raw, err := r.complete(ctx, "sales_fit", salesFitSystem, scanPrompt(in))
	if err != nil {
		return nil, err
	}
	var fit SalesFit
	if err := decodeJSON(raw, &fit); err != nil {
		return nil, err
	}
	fit.Confidence = clampConfidence(fit.Confidence)
	if fit.ProductFit < 0 {
		fit.ProductFit = 0
	}
	if fit.ProductFit > 100 {
		fit.ProductFit = 100
	}
	switch fit.BuyingAbility {
	case "low", "medium", "high":
	default:
		fit.BuyingAbility = "low"
	}
	return &fit, nil
}

type remoteInvestigator struct{ *remoteBase }

const investigateSystem = `You investigate social and status signals in a prospect's message.
Respond with ONLY a JSON object:
{"social_signals":["..."],"status_signals":["..."],"pain_points":["..."],"confidence":0-100}`

func (r *remoteInvestigator) Investigate(ctx context.Context, in ScanInput) (*Investigation, error) {
	raw, err := r.complete(ctx, "investigate", investigateSystem, scanPrompt(in))
	if err != nil {
		return nil, err
	}
	var inv Investigation
	if err := decodeJSON(raw, &inv); err != nil {
		return nil, err
	}
	inv.Confidence = clampConfidence(inv.Confidence)
	return &inv, nil
}

type remotePersonality struct{ *remoteBase }

const personalitySystem = `You classify a prospect's communication style into one DISC-style type.
Respond with ONLY a JSON object:
{"personality_type":"amiable|driver|expressive|analytical|unknown","evidence":["..."],"confidence":0-100}`

func (r *remotePersonality) ClassifyPersonality(ctx context.Context, in ScanInput) (*PersonalityRead, error) {
	raw, err := r.complete(ctx, "personality", personalitySystem, scanPrompt(in))
	if err != nil {
		return nil, err
	}
	var read PersonalityRead
	if err := decodeJSON(raw, &read); err != nil {
		return nil, err
	}
	read.Confidence = clampConfidence(read.Confidence)
	switch read.Type {
	case model.PersonalityAmiable, model.PersonalityDriver, model.PersonalityExpressive, model.PersonalityAnalytical:
	default:
		read.Type = model.PersonalityUnknown
	}
	return &read, nil
}
