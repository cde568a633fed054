package ai

// ErrandTask is a single stop the concierge extracted from the user's message.
type ErrandTask struct {
	// Description is the user's task in their own words (e.g. "collect prescription").
	Description string `json:"description"`

	// StopCategory is a Places-friendly search term (e.g. "pharmacy", "grocery store").
	StopCategory string `json:"stop_category"`

	// StopKeywords are positive refinements the user specified (e.g. "24 hour").
	StopKeywords string `json:"stop_keywords,omitempty"`

	// ExcludeKeywords are terms the user explicitly wants to avoid.
	ExcludeKeywords []string `json:"exclude_keywords,omitempty"`
}

// ErrandIntent captures the structured output from the model.
type ErrandIntent struct {
	// Intent describes the user's primary goal: "errand", "clarification", or "chat".
	Intent string `json:"intent"`

	// Tasks are the stops to run, in order. Empty unless Intent is "errand".
	Tasks []ErrandTask `json:"tasks,omitempty"`

	// Origin is the starting address. Nullable when the user has not said it yet.
	Origin *string `json:"origin,omitempty"`

	// Dropoff is the final address. Nullable; defaults to the origin for round trips.
	Dropoff *string `json:"dropoff,omitempty"`

	// RoundTrip is true when the runner returns to the origin after the stops.
	RoundTrip bool `json:"round_trip"`

	// SuggestedVehicle is the vehicle class the model recommends for the load:
	// "sedan", "mpv", "large_mpv", or "combi".
	SuggestedVehicle string `json:"suggested_vehicle,omitempty"`

	// PackageSize is the model's estimate of the total load: "small", "medium", "large".
	PackageSize string `json:"package_size,omitempty"`

	// Reply is a short user-facing response from the concierge.
	Reply string `json:"reply"`
}
