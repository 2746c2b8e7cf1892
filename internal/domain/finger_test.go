package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFinger(t *testing.T) {
	t.Parallel()

	for code := 0; code <= 9; code++ {
		finger, err := ParseFinger(code)
		require.NoError(t, err)
		assert.Equal(t, code, finger.Code())
		assert.True(t, finger.Valid())
	}

	_, err := ParseFinger(-1)
	assert.Error(t, err)

	_, err = ParseFinger(10)
	assert.Error(t, err)
}

func TestFingerNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "right_thumb", FingerRightThumb.String())
	assert.Equal(t, "left_little", FingerLeftLittle.String())
	assert.Equal(t, "Right thumb", FingerRightThumb.DisplayName())
	assert.Equal(t, "Left index", FingerLeftIndex.DisplayName())

	// Out-of-range fingers still stringify without panicking.
	assert.Equal(t, "finger(12)", Finger(12).String())
	assert.False(t, Finger(12).Valid())
}

func TestAllFingers(t *testing.T) {
	t.Parallel()

	fingers := AllFingers()
	require.Len(t, fingers, 10)
	assert.Equal(t, FingerRightThumb, fingers[0])
	assert.Equal(t, FingerLeftLittle, fingers[9])
}
