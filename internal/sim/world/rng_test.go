package world

import "testing"

func TestRNG_SameSeedSameStream(t *testing.T) {
	a, b := NewRNG(42), NewRNG(42)
	for i := 0; i < 200; i++ {
		if av, bv := a.Intn(10), b.Intn(10); av != bv {
			t.Fatalf("draw %d: %d != %d", i, av, bv)
		}
	}
}

func TestRNG_RestoreResumesExactly(t *testing.T) {
	a := NewRNG(9)
	for i := 0; i < 57; i++ {
		a.Intn(100)
		if i%5 == 0 {
			a.Perm(4)
		}
	}

	b := RestoreRNG(a.Seed(), a.Position())
	if b.Position() != a.Position() {
		t.Fatalf("restored position %d, want %d", b.Position(), a.Position())
	}
	for i := 0; i < 100; i++ {
		if av, bv := a.Intn(1000), b.Intn(1000); av != bv {
			t.Fatalf("draw %d after restore: %d != %d", i, av, bv)
		}
	}
}

func TestRNG_SmallNDrawsNothing(t *testing.T) {
	r := NewRNG(1)
	if r.Intn(1) != 0 || r.Intn(0) != 0 || r.Intn(-3) != 0 {
		t.Fatalf("n <= 1 must return 0")
	}
	if r.Position() != 0 {
		t.Fatalf("n <= 1 must not consume the stream, pos=%d", r.Position())
	}
}

func TestRNG_PermIsPermutation(t *testing.T) {
	r := NewRNG(3)
	for n := 0; n < 8; n++ {
		p := r.Perm(n)
		if len(p) != n {
			t.Fatalf("perm(%d) has %d entries", n, len(p))
		}
		seen := make(map[int]bool, n)
		for _, v := range p {
			if v < 0 || v >= n || seen[v] {
				t.Fatalf("perm(%d) = %v is not a permutation", n, p)
			}
			seen[v] = true
		}
	}
}
