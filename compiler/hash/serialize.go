package hash

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Deterministic serialization of the fingerprint tree.
//
// Encoding: one HashVersion byte followed by the tree in canonical CBOR,
// each node a three element array [tag, text, children].
// ---------------------------------------------------------------------------

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("hash: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Serialize produces the deterministic byte form of n.
func Serialize(n *HNode) ([]byte, error) {
	body, err := cborEncMode.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("hash: marshal: %w", err)
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, HashVersion)
	return append(out, body...), nil
}

// Deserialize reverses Serialize.
func Deserialize(data []byte) (*HNode, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("hash: empty input")
	}
	if data[0] != HashVersion {
		return nil, fmt.Errorf("hash: unsupported version 0x%02X", data[0])
	}
	var n HNode
	if err := cbor.Unmarshal(data[1:], &n); err != nil {
		return nil, fmt.Errorf("hash: unmarshal: %w", err)
	}
	return &n, nil
}
