package game

import "math/rand"

// SpawnPoint is one fixed map coordinate.
type SpawnPoint struct {
	X float64
	Y float64
}

// spawnPoints are the fixed map coordinates members can occupy.
var spawnPoints = []SpawnPoint{
	{-3.972, 3.703},
	{10.897, 4.033},
	{11.737, -5.216},
	{5.647, -5.126},
	{-6.202, -5.126},
	{-13.262, 4.213},
	{-22.742, 3.653},
	{-21.622, -6.936},
	{-24.732, -6.886},
	{-15.702, 6.863},
	{-1.562, 6.173},
	{-13.857, 6.073},
	{5.507, 11.963},
	{-18.252, 12.453},
	{-1.752, -7.376},
	{21.517, -4.826},
	{21.717, 3.223},
	{23.877, 10.683},
	{15.337, -12.296},
	{-15.202, -4.736},
}

// SpawnPointPool hands out map coordinates with exclusive ownership: a point
// is held by at most one living member at a time. Owned by one Room, guarded
// by the room lock.
type SpawnPointPool struct {
	points []SpawnPoint
	used   map[int]bool // index into points
}

func NewSpawnPointPool() *SpawnPointPool {
	return &SpawnPointPool{
		points: spawnPoints,
		used:   make(map[int]bool, len(spawnPoints)),
	}
}

// Acquire picks a random free point and marks it held. ok is false when the
// pool is exhausted; callers must tolerate a member without a position.
func (p *SpawnPointPool) Acquire() (SpawnPoint, bool) {
	free := make([]int, 0, len(p.points))
	for i := range p.points {
		if !p.used[i] {
			free = append(free, i)
		}
	}
	if len(free) == 0 {
		return SpawnPoint{}, false
	}
	idx := free[rand.Intn(len(free))]
	p.used[idx] = true
	return p.points[idx], true
}

// Release frees the point matching the given coordinate.
func (p *SpawnPointPool) Release(pt SpawnPoint) {
	for i, candidate := range p.points {
		if candidate == pt {
			delete(p.used, i)
			return
		}
	}
}

// Reset atomically frees every point.
func (p *SpawnPointPool) Reset() {
	clear(p.used)
}

// Available reports how many points are currently free.
func (p *SpawnPointPool) Available() int {
	return len(p.points) - len(p.used)
}
