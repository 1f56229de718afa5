package validator

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Rating int      `json:"rating" validate:"required,gte=1,lte=5"`
	Kind   string   `json:"type" validate:"required,oneof=like dislike"`
	Images []string `json:"images" validate:"omitempty,dive,url"`
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	err := Validate(sample{Rating: 7, Kind: "love", Images: []string{"not a url"}})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	fields := verr.Fields()
	assert.Equal(t, "must be less than or equal to 5", fields["rating"])
	assert.Equal(t, "must be one of: like dislike", fields["type"])
	assert.Equal(t, "must be a valid URL", fields["images[0]"])
	assert.Contains(t, verr.Error(), "field 'rating'")
}

func TestDecodeAndValidate(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rating":4,"type":"like"}`))
	var dst sample
	require.NoError(t, DecodeAndValidate(req, &dst))
	assert.Equal(t, 4, dst.Rating)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"rating":4,"type":"like","extra":1}`))
	err := DecodeAndValidate(req, &sample{})
	require.Error(t, err)
	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"type":"like"}`))
	err = DecodeAndValidate(req, &sample{})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "is required", verr.Fields()["rating"])
}
