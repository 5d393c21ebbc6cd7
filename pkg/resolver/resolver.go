package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"uml-nli-be/pkg/store"
)

// ErrResolutionFailed means the name did not map to any element of the snapshot.
var ErrResolutionFailed = errors.New("reference resolution failed")

// Categories understood by the find-id endpoint.
const (
	CategoryRoot  = "root"
	CategoryClass = "class"
)

// Finder looks an element id up by name. Implemented by nli.Client.
type Finder interface {
	FindID(ctx context.Context, name, category string, snap *store.ModelSnapshot) (string, error)
}

// ReferenceResolver turns element names into ids against the current snapshot.
type ReferenceResolver struct {
	finder Finder
}

func NewReferenceResolver(finder Finder) *ReferenceResolver {
	return &ReferenceResolver{finder: finder}
}

// ResolveID returns the element named name within category. Service errors
// are passed through unchanged; an empty answer is ErrResolutionFailed.
func (r *ReferenceResolver) ResolveID(ctx context.Context, name, category string, snap *store.ModelSnapshot) (store.ElementRef, error) {
	id, err := r.finder.FindID(ctx, name, category, snap)
	if err != nil {
		return store.ElementRef{}, err
	}
	if strings.TrimSpace(id) == "" {
		return store.ElementRef{}, fmt.Errorf("%w: no %s named %q", ErrResolutionFailed, category, name)
	}
	return store.ElementRef{ID: id, Kind: category}, nil
}

// ResolveRoot returns the model root every container is created under.
func (r *ReferenceResolver) ResolveRoot(ctx context.Context, snap *store.ModelSnapshot) (store.ElementRef, error) {
	return r.ResolveID(ctx, CategoryRoot, CategoryRoot, snap)
}
