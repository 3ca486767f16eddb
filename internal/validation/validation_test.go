package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	valid := []string{"ann@example.com", "admin@mindmatters.local", "first.last+tag@sub.example.co"}
	for _, s := range valid {
		assert.True(t, Email(s), s)
	}
	invalid := []string{"", "ann", "ann@", "@example.com", "ann@example", "ann lee@example.com", "ann@-example.com"}
	for _, s := range invalid {
		assert.False(t, Email(s), s)
	}
}

func TestMinLenCountsRunes(t *testing.T) {
	assert.True(t, MinLen("ab", 2))
	assert.False(t, MinLen("a", 2))
	assert.True(t, MinLen("éé", 2))
}

func TestErrorCollectsFields(t *testing.T) {
	e := New()
	require.NoError(t, e.Err())

	e.Field("email", "must be a valid email address")
	e.Field("password", "must be at least 8 characters")
	require.Error(t, e.Err())
	assert.Equal(t, "validation failed: email: must be a valid email address; password: must be at least 8 characters", e.Error())

	body, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"formErrors":[],"fieldErrors":{"email":["must be a valid email address"],"password":["must be at least 8 characters"]}}`, string(body))
}
