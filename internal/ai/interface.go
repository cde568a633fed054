package ai

import (
	"context"
)

// ErrandParser defines the contract for turning free-text errand requests
// into structured intents. This interface allows swapping model providers.
type ErrandParser interface {
	// ParseErrand analyzes the user's natural language request and extracts a
	// structured errand intent. contextMap carries dynamic information like
	// "current_time" and "user_location".
	ParseErrand(ctx context.Context, userMessage string, contextMap map[string]string) (*ErrandIntent, error)
}
