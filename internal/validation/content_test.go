package validation

import (
	"strings"
	"testing"

	"twitt/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePostID(t *testing.T) {
	t.Parallel()
	valid := uuid.New()

	tests := []struct {
		name    string
		raw     string
		want    uuid.UUID
		wantErr error
	}{
		{"Valid", valid.String(), valid, nil},
		{"Padded", "  " + valid.String() + " ", valid, nil},
		{"Empty", "", uuid.Nil, models.ErrPostIDRequired},
		{"Malformed", "not-a-uuid", uuid.Nil, models.ErrPostIDInvalid},
		{"Nil UUID", uuid.Nil.String(), uuid.Nil, models.ErrPostIDInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePostID(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComment(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"Valid", "nice shot", nil},
		{"Blank", "   ", models.ErrCommentRequired},
		{"Exactly Max", strings.Repeat("a", MaxCommentLength), nil},
		{"Too Long", strings.Repeat("a", MaxCommentLength+1), models.ErrCommentTooLong},
		{"Multibyte At Max", strings.Repeat("é", MaxCommentLength), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Comment(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCaption(t *testing.T) {
	t.Parallel()
	got, err := Caption("  golden hour ")
	require.NoError(t, err)
	assert.Equal(t, "golden hour", got)

	_, err = Caption("")
	assert.ErrorIs(t, err, models.ErrCaptionRequired)
}
