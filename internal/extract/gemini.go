package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/kvashee/bankfeed/pkg/models"
)

// geminiResult is the fixed response shape requested from the model.
type geminiResult struct {
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Date      string `json:"date"`
	Direction string `json:"direction"`
	Merchant  string `json:"merchant"`
}

var geminiSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"amount":    {Type: genai.TypeString, Description: "Numeric amount without currency symbols or thousands separators"},
		"currency":  {Type: genai.TypeString, Description: "ISO 4217 currency code, or empty if not stated"},
		"date":      {Type: genai.TypeString, Description: "Transaction date exactly as it appears in the email"},
		"direction": {Type: genai.TypeString, Enum: []string{"debit", "credit"}},
		"merchant":  {Type: genai.TypeString, Description: "Recipient or merchant name"},
	},
	Required: []string{"amount", "date", "direction", "merchant"},
}

const geminiPrompt = `You are a specialized financial email parser. Extract transaction details from the bank notification email below.

Follow these rules strictly:
1. Extract only the requested fields.
2. For amount, extract only the numeric value without currency symbols or commas.
3. Return the date exactly as it appears in the email.
4. Direction is "debit" when money leaves the account, "credit" when it arrives.
5. DO NOT make up or infer values not clearly stated in the email. Leave a field empty if it cannot be found with high confidence.

Email:
%s`

// GeminiExtractor is the model-based fallback layer: it handles messages
// that match no deterministic rule-set. Its network call carries its own
// timeout budget, independent of mailbox retries.
type GeminiExtractor struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewGeminiExtractor creates the fallback extractor
func NewGeminiExtractor(ctx context.Context, apiKey, model string, timeout time.Duration, logger *slog.Logger) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiExtractor{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger.With("component", "gemini"),
	}, nil
}

func (g *GeminiExtractor) Name() string { return "gemini" }

func (g *GeminiExtractor) Confidence() models.Confidence { return models.ConfidenceMedium }

func (g *GeminiExtractor) Extract(ctx context.Context, text, sender string) (*Extraction, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(fmt.Sprintf(geminiPrompt, text)),
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](0.2),
			TopP:             genai.Ptr[float32](0.9),
			ResponseMIMEType: "application/json",
			ResponseSchema:   geminiSchema,
		})
	if err != nil {
		return nil, fmt.Errorf("generate content failed: %w", err)
	}

	var result geminiResult
	if err := json.Unmarshal([]byte(resp.Text()), &result); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	return g.validate(&result)
}

// validate checks the model output field by field. A structurally invalid
// result is an extraction failure, not a candidate with gaps.
func (g *GeminiExtractor) validate(r *geminiResult) (*Extraction, error) {
	if isUnknown(r.Amount) || isUnknown(r.Date) || isUnknown(r.Merchant) {
		return nil, nil
	}

	amount, err := ParseAmount(r.Amount)
	if err != nil {
		return nil, fmt.Errorf("model returned invalid amount: %w", err)
	}

	date, err := ParseDate(r.Date, nil)
	if err != nil {
		return nil, fmt.Errorf("model returned invalid date: %w", err)
	}

	var direction models.Direction
	switch strings.ToLower(strings.TrimSpace(r.Direction)) {
	case "debit":
		direction = models.DirectionDebit
	case "credit":
		direction = models.DirectionCredit
	default:
		return nil, fmt.Errorf("model returned invalid direction %q", r.Direction)
	}

	return &Extraction{
		Amount:    amount,
		Currency:  strings.ToUpper(strings.TrimSpace(r.Currency)),
		Date:      date,
		Direction: direction,
		Merchant:  strings.TrimSpace(r.Merchant),
	}, nil
}

func isUnknown(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "unknown")
}
