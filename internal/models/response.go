package models

// APIResponse is the envelope returned by every JSON endpoint.
type APIResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    any          `json:"data"`
	Errors  *ErrorDetail `json:"errors,omitempty"`
}

// ErrorDetail names the failing item and a human-readable message.
type ErrorDetail struct {
	Item    string `json:"item"`
	Message string `json:"message"`
}

// TokenPair is returned by sign-up, login and refresh.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthPayload bundles the tokens and the authenticated user.
type AuthPayload struct {
	TokenPair
	User *User `json:"user"`
}

// Feed is the home timeline plus follow suggestions.
type Feed struct {
	Posts       []Post        `json:"posts"`
	Suggestions []UserSummary `json:"suggestions"`
}
