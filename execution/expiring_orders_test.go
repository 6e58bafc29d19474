package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpiringOrders_Buckets(t *testing.T) {
	idx := NewExpiringOrders()
	assert.Equal(t, 0, idx.GetExpiringOrderCount())

	idx.Insert("o1", 100)
	idx.Insert("o2", 100)
	idx.Insert("o3", 200)
	assert.Equal(t, 2, idx.GetExpiringOrderCount())

	// removing the last order of a bucket removes the bucket itself
	assert.True(t, idx.RemoveOrder(200, "o3"))
	assert.False(t, idx.RemoveOrder(200, "o3"))
	assert.Equal(t, 1, idx.GetExpiringOrderCount())

	got := idx.Expire(150)
	assert.ElementsMatch(t, []string{"o1", "o2"}, got)
	assert.Equal(t, 0, idx.GetExpiringOrderCount())
}

func TestExpiringOrders_ExpireBoundary(t *testing.T) {
	idx := NewExpiringOrders()
	idx.Insert("o1", 100)
	idx.Insert("o2", 101)

	// inclusive at the cutoff, later buckets stay
	got := idx.Expire(100)
	assert.Equal(t, []string{"o1"}, got)
	assert.Equal(t, 1, idx.GetExpiringOrderCount())

	assert.Empty(t, idx.Expire(99))
	assert.Equal(t, []string{"o2"}, idx.Expire(101))
	assert.Equal(t, 0, idx.GetExpiringOrderCount())
}
