package contact

// PairKey identifies one logical contact between two tagged shapes.
// Names are stored in lexicographic order so the key does not depend on
// which fixture the physics engine reported first.
type PairKey struct {
	A string
	B string
}

// NewPairKey builds the canonical key for the two names.
func NewPairKey(x, y string) PairKey {
	if y < x {
		x, y = y, x
	}
	return PairKey{A: x, B: y}
}

// KeyOf builds the key for two tags.
func KeyOf(a, b *Tag) PairKey {
	return NewPairKey(a.Name(), b.Name())
}

func (k PairKey) String() string {
	return k.A + "|" + k.B
}
