package sync

import (
	"encoding/binary"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring consistently hashes keys onto a fixed set of stripe indexes.
type ring struct {
	points *treemap.Map

	// first is the index owning the lowest point, which also owns every hash
	// past the highest point.
	first int
}

// newRing places replicas points on the ring for each of the stripes.
func newRing(stripes int, replicas int) *ring {
	points := treemap.NewWith(utils.Int64Comparator)

	var buf [8]byte
	for stripe := 0; stripe < stripes; stripe++ {
		for replica := 0; replica < replicas; replica++ {
			binary.LittleEndian.PutUint32(buf[:4], uint32(stripe))
			binary.LittleEndian.PutUint32(buf[4:], uint32(replica))
			points.Put(hash(buf[:]), stripe)
		}
	}

	r := &ring{points: points}
	if _, first := points.Min(); first != nil {
		r.first = first.(int)
	}
	return r
}

// index returns the stripe owning key.
func (r *ring) index(key []byte) int {
	if _, stripe := r.points.Ceiling(hash(key)); stripe != nil {
		return stripe.(int)
	}
	return r.first
}

func hash(b []byte) int64 {
	h, _ := murmur3.Sum128(b)
	return int64(h)
}
