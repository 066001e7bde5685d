package markdown

import (
	"strings"

	gmast "github.com/yuin/goldmark/ast"
)

// IsRootRelative reports whether target begins with a single "/".
// Protocol-relative targets ("//host/path") are not root-relative.
func IsRootRelative(target string) bool {
	return strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//")
}

// JoinBase prefixes a root-relative target with basePath, after stripping
// trailing slashes from basePath. Other targets are returned unchanged and
// ok is false.
func JoinBase(basePath, target string) (joined string, ok bool) {
	if !IsRootRelative(target) {
		return target, false
	}
	prefix := strings.TrimRight(basePath, "/")
	if prefix == "" {
		return target, false
	}
	return prefix + target, true
}

// RewriteLinks prefixes every root-relative link and image destination in the
// tree with basePath. It returns the number of destinations changed.
//
// Reference-style links are covered as well: goldmark resolves them into
// Link nodes during parsing.
func RewriteLinks(root gmast.Node, basePath string) int {
	if root == nil {
		return 0
	}
	changed := 0
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			if dest, ok := JoinBase(basePath, string(node.Destination)); ok {
				node.Destination = []byte(dest)
				changed++
			}
		case *gmast.Image:
			if dest, ok := JoinBase(basePath, string(node.Destination)); ok {
				node.Destination = []byte(dest)
				changed++
			}
		}
		return gmast.WalkContinue, nil
	})
	return changed
}
