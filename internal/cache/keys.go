package cache

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	userKeyPrefix        = "user:%s"
	suggestionsKeyPrefix = "suggestions:%s"
	wsTicketKeyPrefix    = "ws_ticket:%s"
	blacklistKeyPrefix   = "blacklist:%s"
)

const (
	UserTTL        = 5 * time.Minute
	SuggestionsTTL = 60 * time.Second
	WSTicketTTL    = 30 * time.Second
)

func UserKey(userID uuid.UUID) string {
	return fmt.Sprintf(userKeyPrefix, userID)
}

func SuggestionsKey(userID uuid.UUID) string {
	return fmt.Sprintf(suggestionsKeyPrefix, userID)
}

func WSTicketKey(ticket string) string {
	return fmt.Sprintf(wsTicketKeyPrefix, ticket)
}

// BlacklistKey marks a revoked token id.
func BlacklistKey(jti string) string {
	return fmt.Sprintf(blacklistKeyPrefix, jti)
}
