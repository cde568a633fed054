package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiParser implements ErrandParser using Google's Gemini models.
type GeminiParser struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiParser initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiParser(ctx context.Context, apiKey string) (*GeminiParser, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Gemini 2.0 Flash for low latency and cost efficiency.
	model := client.GenerativeModel("gemini-2.0-flash")

	// Force JSON response for structured parsing.
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.4)

	return &GeminiParser{client: client, model: model}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiParser) Close() {
	p.client.Close()
}

// ParseErrand analyzes user input to extract a structured errand intent.
func (p *GeminiParser) ParseErrand(ctx context.Context, userMessage string, contextMap map[string]string) (*ErrandIntent, error) {
	fullPrompt := fmt.Sprintf("%s\n\nUser Message: %s", buildSystemPrompt(contextMap), userMessage)

	resp, err := p.model.GenerateContent(ctx, genai.Text(fullPrompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates from Gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}

	// JSON mode should already return bare JSON; strip markdown fences anyway.
	cleanJSON := cleanJSONString(responseText.String())

	var intent ErrandIntent
	if err := json.Unmarshal([]byte(cleanJSON), &intent); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, cleanJSON)
	}
	return &intent, nil
}

// buildSystemPrompt constructs the instructions for the model.
func buildSystemPrompt(ctxMap map[string]string) string {
	currentTime := ctxMap["current_time"]
	userLocation := ctxMap["user_location"]
	if currentTime == "" {
		currentTime = "UNKNOWN_TIME"
	}
	if userLocation == "" {
		userLocation = "UNKNOWN_LOCATION"
	}

	return fmt.Sprintf(`Role: You are the errand concierge for "Lifti", a ride-hailing and errand-running app in South Africa.
Context:
- Current System Time: %s
- User Location: %s

DECISION GATE:
You MUST NOT set "intent": "errand" unless BOTH conditions are met:
1. At least one concrete task is stated (what to fetch, buy, or drop off).
2. The origin is known (explicitly stated, or the user confirmed using their current location).
If either is missing, set "intent": "clarification" and ask for it in "reply".

RULES:

1. TASK EXTRACTION:
   - Split the message into individual stops, in the order the user states them.
   - "stop_category" must be a precise Places search term in English:
     "collect my prescription" -> "pharmacy"; "buy groceries" -> "grocery store";
     "fetch the parcel" -> "courier depot"; "get flowers" -> "florist".
   - "stop_keywords": positive refinements the user gives ("24 hour", "halal").
   - "exclude_keywords": anything the user explicitly wants to avoid.

2. ORIGIN AND DROPOFF:
   - "from", "start at", "pick up at" imply "origin".
   - "bring it to", "deliver to", "drop at" imply "dropoff".
   - If the user says "bring it back" or names no dropoff, set "round_trip": true
     and leave "dropoff" null.

3. LOAD SIZING:
   - Default "package_size": "small" and "suggested_vehicle": "sedan".
   - Bulky items (furniture, appliances, bulk shopping) -> "large" and "large_mpv" or "combi".
   - Several grocery-scale stops -> "medium" and "mpv".

4. REPLY:
   - "reply" is plain conversational English, no markdown, no all-caps system tokens.
   - When clarifying, ask one bundled question.
   - When the errand is understood, summarise the stops briefly.

5. Output JSON Schema:
{
  "intent": "errand" | "clarification" | "chat",
  "tasks": [{"description": "string", "stop_category": "string", "stop_keywords": "string or null", "exclude_keywords": ["string"]}],
  "origin": "string or null",
  "dropoff": "string or null",
  "round_trip": boolean,
  "suggested_vehicle": "sedan" | "mpv" | "large_mpv" | "combi",
  "package_size": "small" | "medium" | "large",
  "reply": "string"
}
`, currentTime, userLocation)
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
