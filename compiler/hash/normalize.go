package hash

import (
	"fmt"
	"strings"

	"github.com/chazu/serpent/compiler"
)

// ---------------------------------------------------------------------------
// Normalization: compiler.Tree → frozen fingerprint tree
// ---------------------------------------------------------------------------

// Normalize converts the whole tree.
func Normalize(t *compiler.Tree) (*HNode, error) {
	if t.Root() == compiler.NoNode {
		return nil, fmt.Errorf("hash: empty tree")
	}
	return NormalizeNode(t, t.Root())
}

// NormalizeNode converts the subtree rooted at id.
func NormalizeNode(t *compiler.Tree, id compiler.NodeID) (*HNode, error) {
	kind := t.Kind(id)
	tag, ok := TagOf(kind)
	if !ok {
		return nil, fmt.Errorf("hash: no tag for node kind %s", kind)
	}
	h := &HNode{Tag: tag, Text: normalizeText(kind, t.Text(id))}
	for _, c := range t.Children(id) {
		hc, err := NormalizeNode(t, c)
		if err != nil {
			return nil, err
		}
		h.Children = append(h.Children, hc)
	}
	return h, nil
}

// normalizeText canonicalizes spellings that do not change meaning.
func normalizeText(kind compiler.Kind, text string) string {
	switch kind {
	case compiler.KindNum:
		// 0XFF and 0xff, 10L and 10l
		return strings.ToLower(text)
	case compiler.KindStr:
		return normalizeString(text)
	}
	return text
}

// normalizeString rewrites a single-quoted literal to double quotes when
// that cannot change its value.
func normalizeString(text string) string {
	body := strings.TrimLeft(text, "rRuUbB")
	prefix := strings.ToLower(text[:len(text)-len(body)])
	if len(body) >= 2 && body[0] == '\'' && body[len(body)-1] == '\'' &&
		!strings.HasPrefix(body, "'''") &&
		!strings.ContainsAny(body[1:len(body)-1], "\"'\\") {
		body = `"` + body[1:len(body)-1] + `"`
	}
	return prefix + body
}
