package chainhash

import "testing"

type leaf struct {
	V int `cbor:"1,keyasint"`
}

func (l leaf) Hash() (Hash, error) {
	return Of(l)
}

func leaves(n int) []Hasher {
	out := make([]Hasher, n)
	for i := 0; i < n; i++ {
		out[i] = leaf{V: i}
	}
	return out
}

func TestCalculate_Deterministic(t *testing.T) {
	r1, err := Calculate(leaves(5))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	r2, err := Calculate(leaves(5))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if r1 != r2 {
		t.Error("Calculate is not deterministic")
	}
}

func TestCalculate_OddLayerDuplicatesLast(t *testing.T) {
	odd, err := Calculate(leaves(3))
	if err != nil {
		t.Fatalf("Calculate odd: %v", err)
	}
	// Four leaves where the 4th is a copy of the 3rd should produce the
	// same root as three leaves, since the reduction duplicates the last
	// element of an odd-length layer.
	four := append(leaves(3), leaf{V: 2})
	dup, err := Calculate(four)
	if err != nil {
		t.Fatalf("Calculate duplicated: %v", err)
	}
	if odd != dup {
		t.Error("odd-length reduction should match explicit duplication of the last leaf")
	}
}

func TestCalculate_SingleLeaf(t *testing.T) {
	root, err := Calculate(leaves(1))
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	want, _ := leaf{V: 0}.Hash()
	if root != want {
		t.Errorf("single-leaf root should equal the leaf hash: got %s, want %s", root, want)
	}
}

func TestCalculate_Empty(t *testing.T) {
	root, err := Calculate(nil)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if root != (Hash{}) {
		t.Error("empty tx list should return the implementation-defined zero root")
	}
}

func TestCalculate_DifferentOrderDifferentRoot(t *testing.T) {
	a, _ := Calculate([]Hasher{leaf{V: 1}, leaf{V: 2}})
	b, _ := Calculate([]Hasher{leaf{V: 2}, leaf{V: 1}})
	if a == b {
		t.Error("reordering leaves should change the root")
	}
}
