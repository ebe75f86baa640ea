package rpc

// Rotation tracks which endpoint in a fixed cyclic order is currently in
// use. The current endpoint is sticky: it only advances on failure, so a
// healthy backup stays promoted instead of every call retrying the primary.
type Rotation struct {
	Current int
	Size    int
}

// NewRotation starts at the primary endpoint (index 0).
func NewRotation(size int) Rotation {
	return Rotation{Current: 0, Size: size}
}

// Next returns the rotation advanced to the following endpoint, wrapping
// around after the last backup.
func (r Rotation) Next() Rotation {
	if r.Size <= 0 {
		return r
	}
	return Rotation{Current: (r.Current + 1) % r.Size, Size: r.Size}
}
