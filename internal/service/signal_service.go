package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"goldsignal/internal/model"

	"github.com/rs/zerolog"
)

// ErrUpstream marks failures of the external AI collaborator. Callers surface
// it as a generic "analysis failed" condition; quota is never consumed for a
// failed request.
var ErrUpstream = errors.New("analysis failed")

const (
	geminiBaseURL         = "https://generativelanguage.googleapis.com/v1beta"
	geminiGenerateContent = ":generateContent"
)

// ChartImage is a base64-encoded chart screenshot submitted for analysis.
type ChartImage struct {
	MimeType string
	Data     string
}

// TradingParameters tailor the AI recommendation to the user's account.
type TradingParameters struct {
	Balance  string
	LotSize  string
	Risk     string
	Leverage string
}

// SignalService is the external AI collaborator: chart image + trading
// parameters in, structured signal out. The response schema is a fixed
// contract this service trusts beyond decoding the types.
type SignalService interface {
	RequestSignal(ctx context.Context, img ChartImage, params TradingParameters) (*model.Signal, error)
	RequestMarketSummary(ctx context.Context) (*model.MarketSummaryData, error)
}

type signalService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	logger  zerolog.Logger
}

// NewSignalService creates a SignalService backed by the Gemini
// generateContent endpoint.
func NewSignalService(apiKey, modelName string, logger zerolog.Logger) SignalService {
	return &signalService{
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL: geminiBaseURL,
		apiKey:  apiKey,
		model:   modelName,
		logger:  logger.With().Str("service", "SignalService").Logger(),
	}
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string          `json:"responseMimeType"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// signalSchema constrains the model output to the Signal contract.
const signalSchema = `{
  "type": "OBJECT",
  "properties": {
    "signal": {"type": "STRING", "enum": ["BUY", "SELL", "WAIT"]},
    "confidence": {"type": "NUMBER", "description": "Confidence level from 0 to 100"},
    "currentPrice": {"type": "NUMBER", "description": "The current market price the analysis is based on."},
    "timeframe": {"type": "STRING", "enum": ["Scalp", "Intraday", "Swing"], "description": "The suggested trading timeframe."},
    "summary": {"type": "STRING", "description": "A brief summary of the trading rationale."},
    "analysis": {
      "type": "OBJECT",
      "properties": {
        "ictConcept": {"type": "STRING", "description": "Analysis using Inner Circle Trader (ICT) concepts like Fair Value Gaps, Order Blocks, and Liquidity."},
        "rsi": {"type": "STRING", "description": "Analysis of the Relative Strength Index."},
        "ema": {"type": "STRING", "description": "Analysis of Exponential Moving Averages."},
        "macd": {"type": "STRING", "description": "Analysis of the MACD indicator."},
        "supportResistance": {"type": "STRING", "description": "Analysis of key support and resistance levels."}
      },
      "required": ["ictConcept", "rsi", "ema", "macd", "supportResistance"]
    },
    "entry": {"type": "NUMBER", "description": "Suggested entry price."},
    "stopLoss": {"type": "NUMBER", "description": "Suggested stop loss price."},
    "takeProfit1": {"type": "NUMBER", "description": "Suggested first take profit price."},
    "takeProfit2": {"type": "NUMBER", "description": "Suggested second take profit price."}
  },
  "required": ["signal", "confidence", "currentPrice", "timeframe", "summary", "analysis", "entry", "stopLoss", "takeProfit1", "takeProfit2"]
}`

// marketSummarySchema constrains the model output to the MarketSummaryData contract.
const marketSummarySchema = `{
  "type": "OBJECT",
  "properties": {
    "news": {"type": "STRING", "description": "Today's market summary for XAU/USD."},
    "dxy": {"type": "STRING", "description": "Today's analysis of the DXY."},
    "events": {
      "type": "ARRAY",
      "items": {
        "type": "OBJECT",
        "properties": {
          "name": {"type": "STRING"},
          "impact": {"type": "STRING", "enum": ["high", "medium", "low"]},
          "date": {"type": "STRING"}
        },
        "required": ["name", "impact", "date"]
      }
    },
    "lastUpdated": {"type": "STRING", "description": "The UTC timestamp of when this data was generated."}
  },
  "required": ["news", "dxy", "events", "lastUpdated"]
}`

// RequestSignal asks the model for a trading signal for the provided chart
// screenshot, tailored to the user's trading parameters.
func (s *signalService) RequestSignal(ctx context.Context, img ChartImage, params TradingParameters) (*model.Signal, error) {
	prompt := fmt.Sprintf(`You are an expert Forex analyst for XAU/USD (Gold). Analyze the provided trading chart screenshot and provide a detailed trading signal.

**Crucially, tailor your recommendation based on the following user-provided trading parameters:**
- Account Balance: $%s
- Desired Lot Size: %s
- Account Leverage: %s
- Risk Percentage per trade: %s%%

Your analysis should be comprehensive, including analysis of Inner Circle Trader (ICT) concepts (like Fair Value Gaps, Order Blocks, Liquidity), RSI, EMA, MACD, and key support/resistance levels. Your summary should be based SOLELY on the image. Identify a realistic current price from the screenshot for your analysis. Ensure the suggested stop-loss aligns with the user's risk percentage. Your response must be in JSON format.`,
		params.Balance, params.LotSize, params.Leverage, params.Risk)

	req := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{InlineData: &geminiInlineData{MimeType: img.MimeType, Data: img.Data}},
				{Text: prompt},
			},
		}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   json.RawMessage(signalSchema),
		},
	}

	var sig model.Signal
	if err := s.generate(ctx, req, &sig); err != nil {
		return nil, err
	}
	return &sig, nil
}

// RequestMarketSummary asks the model for today's market context for gold.
func (s *signalService) RequestMarketSummary(ctx context.Context) (*model.MarketSummaryData, error) {
	today := time.Now().UTC().Format(time.RFC1123)
	prompt := fmt.Sprintf(`Act as a financial news analyst for Gold (XAU/USD). Provide a brief, up-to-date market summary for today, %s. Include an analysis of the US Dollar Index (DXY) and list any key upcoming economic events for the rest of the day/week, specifying their impact level (high, medium, low). Your response must be in JSON format and include a 'lastUpdated' field with the current UTC timestamp.`, today)

	req := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{Text: prompt}},
		}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   json.RawMessage(marketSummarySchema),
		},
	}

	var summary model.MarketSummaryData
	if err := s.generate(ctx, req, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// generate performs one generateContent call and decodes the JSON text of the
// first candidate into out. All failures are wrapped in ErrUpstream.
func (s *signalService) generate(ctx context.Context, req geminiRequest, out any) error {
	if s.apiKey == "" {
		return fmt.Errorf("%w: no API key configured", ErrUpstream)
	}

	bodyJSON, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", ErrUpstream, err)
	}

	url := fmt.Sprintf("%s/models/%s%s?key=%s", s.baseURL, s.model, geminiGenerateContent, s.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyJSON))
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrUpstream, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	var gr geminiResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return fmt.Errorf("%w: invalid response format: %v", ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		if gr.Error.Message != "" {
			s.logger.Error().Int("status", resp.StatusCode).Str("message", gr.Error.Message).Msg("Gemini call failed")
			return fmt.Errorf("%w: %s", ErrUpstream, gr.Error.Message)
		}
		return fmt.Errorf("%w: HTTP %d", ErrUpstream, resp.StatusCode)
	}

	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("%w: empty response", ErrUpstream)
	}

	text := strings.TrimSpace(gr.Candidates[0].Content.Parts[0].Text)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%w: malformed payload: %v", ErrUpstream, err)
	}
	return nil
}
