package sync

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRing_Consistency(t *testing.T) {
	r := newRing(16, replicasPerStripe)
	other := newRing(16, replicasPerStripe)

	for i := 0; i < 256; i++ {
		key := []byte(fmt.Sprintf("key%d", i))
		index := r.index(key)
		assert.True(t, index >= 0 && index < 16)
		assert.Equal(t, index, r.index(key))
		assert.Equal(t, index, other.index(key))
	}
}

func TestRing_Distribution(t *testing.T) {
	r := newRing(8, replicasPerStripe)

	counts := make(map[int]int)
	for i := 0; i < 8000; i++ {
		counts[r.index([]byte(fmt.Sprintf("account%d", i)))]++
	}

	assert.Len(t, counts, 8)
	for stripe, count := range counts {
		assert.True(t, count > 500, "stripe %d only received %d keys", stripe, count)
	}
}
