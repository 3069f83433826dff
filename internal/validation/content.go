package validation

import (
	"strings"
	"unicode/utf8"

	"twitt/internal/models"

	"github.com/google/uuid"
)

// MaxCommentLength is the longest comment body accepted, in characters.
const MaxCommentLength = 255

// ParseID parses a path or body identifier. An empty value yields missing,
// anything that is not a UUID yields invalid.
func ParseID(raw string, missing, invalid *models.AppError) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, missing
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, invalid
	}
	return id, nil
}

// ParsePostID parses a post identifier.
func ParsePostID(raw string) (uuid.UUID, error) {
	return ParseID(raw, models.ErrPostIDRequired, models.ErrPostIDInvalid)
}

// ParseCommentID parses a comment identifier.
func ParseCommentID(raw string) (uuid.UUID, error) {
	return ParseID(raw, models.ErrCommentIDRequired, models.ErrCommentIDInvalid)
}

// Caption trims a post caption and rejects an empty one.
func Caption(raw string) (string, error) {
	caption := strings.TrimSpace(raw)
	if caption == "" {
		return "", models.ErrCaptionRequired
	}
	return caption, nil
}

// Comment trims a comment body and enforces MaxCommentLength.
func Comment(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", models.ErrCommentRequired
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return "", models.ErrCommentTooLong
	}
	return text, nil
}
