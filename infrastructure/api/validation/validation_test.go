package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberline/guildhall/internal/domain"
)

type missionBody struct {
	Title    string `json:"title" validate:"required,max=20"`
	Outcome  string `json:"outcome" validate:"omitempty,oneof=success failure pending"`
	XPReward int    `json:"xp_reward" validate:"gte=0"`
	RecapURL string `json:"recap_url" validate:"omitempty,http_url"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(&missionBody{Title: "Vault", Outcome: "success"}))
}

func TestStruct_CollectsEveryField(t *testing.T) {
	err := Struct(&missionBody{Outcome: "draw", XPReward: -5, RecapURL: "not a url"})
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.True(t, errors.Is(err, domain.ErrValidation))

	fields := map[string]string{}
	for _, f := range reqErr.Fields() {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "title is required", fields["title"])
	assert.Equal(t, "outcome must be one of: success failure pending", fields["outcome"])
	assert.Equal(t, "xp_reward must be greater than or equal to 0", fields["xp_reward"])
	assert.Equal(t, "recap_url must be an http or https URL", fields["recap_url"])
}

func TestStruct_MaxLength(t *testing.T) {
	err := Struct(&missionBody{Title: strings.Repeat("x", 21)})
	require.Error(t, err)
	assert.Equal(t, "title must be at most 20 characters", err.Error())
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"title":"Vault","xp_reward":10}`, ""},
		{"empty", ``, "request body is required"},
		{"malformed", `{"title":`, "request body is not valid JSON"},
		{"invalid field", `{"title":""}`, "title is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst missionBody
			err := Decode(req, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "Vault", dst.Title)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.Is(err, domain.ErrValidation))
		})
	}
}

func TestDecode_TooLarge(t *testing.T) {
	body := `{"title":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	err := Decode(req, &missionBody{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request body must be at most")
}

func TestRequestError_Empty(t *testing.T) {
	assert.Equal(t, "validation failed", NewRequestError().Error())
}
