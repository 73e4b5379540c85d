package hash

import (
	"crypto/sha256"

	"github.com/chazu/serpent/compiler"
)

// HashTree computes the SHA-256 fingerprint of a parse tree.
//
// The fingerprint covers node kinds, texts and structure only. Two sources
// that differ in comments, blank lines or indentation width hash equal.
func HashTree(t *compiler.Tree) ([32]byte, error) {
	return HashNode(t, t.Root())
}

// HashNode fingerprints the subtree rooted at id, e.g. a single def.
func HashNode(t *compiler.Tree, id compiler.NodeID) ([32]byte, error) {
	h, err := NormalizeNode(t, id)
	if err != nil {
		return [32]byte{}, err
	}
	data, err := Serialize(h)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}
