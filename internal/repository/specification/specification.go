package specification

import "gorm.io/gorm"

// Specification defines the interface for query specifications
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// Scopes turns specifications into gorm scopes.
func Scopes(specs ...Specification) []func(*gorm.DB) *gorm.DB {
	scopes := make([]func(*gorm.DB) *gorm.DB, 0, len(specs))
	for _, s := range specs {
		scopes = append(scopes, s.Apply)
	}
	return scopes
}
