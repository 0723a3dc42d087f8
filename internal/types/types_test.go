// Package types tests cover the copy helpers that keep property snapshots
// from aliasing each other's prices.
package types

import (
	"math/big"
	"testing"
)

func TestPropertyClone(t *testing.T) {
	orig := Property{ID: "1", Name: "Lot A", Owner: "0xabc", Price: big.NewInt(10)}

	cp := orig.Clone()
	cp.Price.SetInt64(99)

	if orig.Price.Int64() != 10 {
		t.Fatalf("clone aliased price: got %s, want 10", orig.Price)
	}
	if cp.ID != orig.ID || cp.Name != orig.Name || cp.Owner != orig.Owner {
		t.Errorf("clone lost fields: %+v", cp)
	}
}

func TestCloneAll(t *testing.T) {
	if CloneAll(nil) != nil {
		t.Errorf("expected nil for nil input")
	}

	props := []Property{
		{ID: "1", Price: big.NewInt(1)},
		{ID: "2"},
	}
	out := CloneAll(props)
	if len(out) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(out))
	}
	out[0].Price.SetInt64(5)
	if props[0].Price.Int64() != 1 {
		t.Errorf("CloneAll aliased price")
	}
	if out[1].Price != nil {
		t.Errorf("nil price should stay nil")
	}
}
