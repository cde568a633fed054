// README: CLI demo for the errand concierge parser.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"lifti/internal/ai"
)

func main() {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal("GEMINI_API_KEY environment variable not set")
	}

	ctx := context.Background()
	parser, err := ai.NewGeminiParser(ctx, apiKey)
	if err != nil {
		log.Fatalf("Failed to initialize parser: %v", err)
	}
	defer parser.Close()

	currentContext := map[string]string{
		"current_time":  time.Now().Format(time.RFC3339),
		"user_location": "Sea Point, Cape Town",
	}

	userMessage := "Please collect my prescription from a pharmacy and grab bread and milk on the way back"
	if len(os.Args) > 1 {
		userMessage = strings.Join(os.Args[1:], " ")
	}
	fmt.Printf("User: %s\n", userMessage)

	intent, err := parser.ParseErrand(ctx, userMessage, currentContext)
	if err != nil {
		log.Fatalf("Error parsing errand: %v", err)
	}

	fmt.Printf("Reply: %s\n", intent.Reply)
	fmt.Printf("Intent: %s\n", intent.Intent)
	for i, task := range intent.Tasks {
		fmt.Printf("Task %d: %s (category=%s keywords=%s)\n",
			i+1, task.Description, task.StopCategory, task.StopKeywords)
	}
	if intent.Origin != nil {
		fmt.Printf("Origin: %s\n", *intent.Origin)
	}
	if intent.Dropoff != nil {
		fmt.Printf("Dropoff: %s\n", *intent.Dropoff)
	}
	fmt.Printf("Round trip: %v\n", intent.RoundTrip)
	if intent.SuggestedVehicle != "" {
		fmt.Printf("Vehicle: %s (package %s)\n", intent.SuggestedVehicle, intent.PackageSize)
	}
}
