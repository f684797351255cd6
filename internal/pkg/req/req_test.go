package req

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialex/internal/pkg/errs"
)

func TestBindJSON(t *testing.T) {
	type input struct {
		ParticipantID string `json:"participantId"`
	}

	tests := []struct {
		name        string
		contentType string
		body        string
		wantCode    int
	}{
		{name: "valid", contentType: "application/json", body: `{"participantId":"u2"}`},
		{name: "wrong content type", contentType: "text/plain", body: `{}`, wantCode: errs.ErrUnsupportedMediaType},
		{name: "broken json", contentType: "application/json", body: `{"participantId":`, wantCode: errs.ErrInvalidJSONFormat},
		{name: "unknown field", contentType: "application/json", body: `{"other":"x"}`, wantCode: errs.ErrInvalidJSONFormat},
		{name: "trailing data", contentType: "application/json", body: `{"participantId":"u2"} {}`, wantCode: errs.ErrExtraContentInBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", tt.contentType)

			var dst input
			err := BindJSON(r, &dst)
			if tt.wantCode == 0 {
				require.Nil(t, err)
				assert.Equal(t, "u2", dst.ParticipantID)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, tt.wantCode, err.Code)
		})
	}
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=3&limit=abc&zero=0", nil)

	v, err := QueryInt(r, "page", 1)
	require.Nil(t, err)
	assert.Equal(t, 3, v)

	v, err = QueryInt(r, "missing", 50)
	require.Nil(t, err)
	assert.Equal(t, 50, v)

	_, err = QueryInt(r, "limit", 50)
	require.NotNil(t, err)
	assert.Equal(t, errs.ErrInvalidParams, err.Code)

	_, err = QueryInt(r, "zero", 50)
	require.NotNil(t, err)
}
