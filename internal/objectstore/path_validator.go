package objectstore

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"go-channel-identity/pkg/apierror"
)

type PathValidator struct {
	rootAbs string
}

func NewPathValidator(root string) (*PathValidator, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("media root cannot be empty")
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve media root: %w", err)
	}

	return &PathValidator{rootAbs: rootAbs}, nil
}

func (v *PathValidator) RootAbs() string {
	return v.rootAbs
}

// ResolveObject maps a public id onto a file directly under the root. Ids are
// single path segments; separators, traversal and control characters are
// rejected.
func (v *PathValidator) ResolveObject(publicID string) (string, error) {
	id := strings.TrimSpace(publicID)
	if id == "" {
		return "", apierror.BadRequest("object id is required", "")
	}

	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." || hasControlCharacters(id) {
		return "", apierror.BadRequest("invalid object id", publicID)
	}

	resolved, err := filepath.Abs(filepath.Join(v.rootAbs, id))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}

	if !isWithinRoot(v.rootAbs, resolved) {
		return "", apierror.BadRequest("object id escapes media root", publicID)
	}

	return resolved, nil
}

func hasControlCharacters(value string) bool {
	for _, char := range value {
		if unicode.IsControl(char) {
			return true
		}
	}

	return false
}

func isWithinRoot(rootAbs string, candidateAbs string) bool {
	rootWithSeparator := rootAbs + string(filepath.Separator)
	return strings.HasPrefix(candidateAbs, rootWithSeparator)
}
