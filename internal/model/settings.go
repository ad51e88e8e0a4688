package model

// Settings carries the per-session sampling and tool configuration.
type Settings struct {
	Model                     string  `json:"model"`
	Temperature               float64 `json:"temperature"`
	TopP                      float64 `json:"top_p"`
	MaxTokens                 int     `json:"max_tokens,omitempty"`
	SystemPrompt              string  `json:"system_prompt"`
	EnableValidateLocation    bool    `json:"enable_validate_location"`
	EnableSubmitQualification bool    `json:"enable_submit_qualification"`
}

// SendMessageRequest is the request body to run a turn.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// EditMessageRequest is the request body to edit a message.
type EditMessageRequest struct {
	Text string `json:"text"`
}

// PlaceSelection is the request body for the location side channel:
// the address the user picked from the assisted search.
type PlaceSelection struct {
	FormattedAddress string `json:"formatted_address"`
	Neighborhood     string `json:"neighborhood"`
	City             string `json:"city"`
	State            string `json:"state"`
}
