package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatorKeepsFirstError(t *testing.T) {
	v := New()

	v.Check(false, "priority", "must be a positive integer")
	v.Check(false, "priority", "second message")
	v.Check(true, "image", "must be provided")

	assert.False(t, v.Valid())
	assert.Equal(t, map[string]string{"priority": "must be a positive integer"}, v.Errors)
}

func TestPositiveInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1", 1, true},
		{" 42 ", 42, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"1.5", 0, false},
		{"2.0", 2, true},
		{"1e1", 10, true},
		{"-2.0", 0, false},
		{"0.0", 0, false},
		{"1e20", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := PositiveInt(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestMatchesPhone(t *testing.T) {
	assert.True(t, Matches("+998901234567", PhoneRX))
	assert.True(t, Matches("901234567", PhoneRX))
	assert.False(t, Matches("90-123", PhoneRX))
	assert.False(t, Matches("", PhoneRX))
}

func TestInAndUnique(t *testing.T) {
	assert.True(t, In("id", "id", "-id"))
	assert.False(t, In("name", "id", "-id"))
	assert.True(t, Unique([]string{"a", "b"}))
	assert.False(t, Unique([]string{"a", "a"}))
}
