package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairKeyIsCanonical(t *testing.T) {
	assert.Equal(t, pairKey(3, 7), pairKey(7, 3))
	assert.Equal(t, "3:7", pairKey(7, 3))
	assert.Equal(t, "1:2", pairKey(1, 2))
	assert.NotEqual(t, pairKey(1, 2), pairKey(1, 3))
}
