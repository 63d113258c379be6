package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	from, limit := Calculate(0, 0)
	assert.Equal(t, 0, from)
	assert.Equal(t, 10, limit)

	from, limit = Calculate(3, 20)
	assert.Equal(t, 40, from)
	assert.Equal(t, 20, limit)

	_, limit = Calculate(1, 500)
	assert.Equal(t, 10, limit)
}

func TestMeta(t *testing.T) {
	m := Meta(2, 10, 25)
	assert.Equal(t, int64(3), m["total_pages"])
	assert.Equal(t, true, m["has_prev"])
	assert.Equal(t, true, m["has_next"])

	m = Meta(1, 10, 0)
	assert.Equal(t, int64(0), m["total_pages"])
	assert.Equal(t, false, m["has_next"])
}
