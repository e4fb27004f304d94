package router

import (
	"errors"
	"fmt"
)

// Common sentinel errors. Construction failures match ErrInvalidRoute,
// lookup-by-name failures match ErrNotFound, so callers can classify with
// errors.Is without naming every concrete type.
var (
	ErrNotFound     = errors.New("route not found")
	ErrInvalidRoute = errors.New("invalid route definition")
)

// DuplicateRouteNameError reports two route records sharing a name.
type DuplicateRouteNameError struct {
	Name string
}

func (e *DuplicateRouteNameError) Error() string {
	return fmt.Sprintf("duplicate route name: %s", e.Name)
}

// Is checks if the error matches the target.
func (e *DuplicateRouteNameError) Is(target error) bool {
	if target == ErrInvalidRoute {
		return true
	}
	_, ok := target.(*DuplicateRouteNameError)
	return ok
}

// UndeclaredRequirementError reports a requirement key that is not a
// placeholder in the route's path.
type UndeclaredRequirementError struct {
	Route       string
	Placeholder string
}

func (e *UndeclaredRequirementError) Error() string {
	return fmt.Sprintf("route %s: requirement %q has no matching placeholder in path", e.Route, e.Placeholder)
}

// Is checks if the error matches the target.
func (e *UndeclaredRequirementError) Is(target error) bool {
	if target == ErrInvalidRoute {
		return true
	}
	_, ok := target.(*UndeclaredRequirementError)
	return ok
}

// DuplicatePlaceholderError reports a placeholder identifier appearing more
// than once in a single path template.
type DuplicatePlaceholderError struct {
	Route       string
	Placeholder string
}

func (e *DuplicatePlaceholderError) Error() string {
	return fmt.Sprintf("route %s: placeholder %q declared more than once", e.Route, e.Placeholder)
}

// Is checks if the error matches the target.
func (e *DuplicatePlaceholderError) Is(target error) bool {
	if target == ErrInvalidRoute {
		return true
	}
	_, ok := target.(*DuplicatePlaceholderError)
	return ok
}

// EmptyMethodsError reports a methods declaration that normalizes to nothing.
type EmptyMethodsError struct {
	Route string
}

func (e *EmptyMethodsError) Error() string {
	return fmt.Sprintf("route %s: methods list is empty", e.Route)
}

// Is checks if the error matches the target.
func (e *EmptyMethodsError) Is(target error) bool {
	if target == ErrInvalidRoute {
		return true
	}
	_, ok := target.(*EmptyMethodsError)
	return ok
}

// InvalidRequirementError reports a requirement string that does not compile
// as a regular expression.
type InvalidRequirementError struct {
	Route       string
	Placeholder string
	Pattern     string
	Cause       error
}

func (e *InvalidRequirementError) Error() string {
	return fmt.Sprintf("route %s: requirement for %q is not a valid pattern %q: %v", e.Route, e.Placeholder, e.Pattern, e.Cause)
}

// Unwrap returns the underlying error.
func (e *InvalidRequirementError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *InvalidRequirementError) Is(target error) bool {
	if target == ErrInvalidRoute {
		return true
	}
	_, ok := target.(*InvalidRequirementError)
	return ok
}

// RouteNotFoundError reports a URI generation request for an unknown route
// name.
type RouteNotFoundError struct {
	Name string
}

func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("route not found: %s", e.Name)
}

// Is checks if the error matches the target.
func (e *RouteNotFoundError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	_, ok := target.(*RouteNotFoundError)
	return ok
}

// MissingParameterError reports a placeholder with no supplied value during
// URI generation.
type MissingParameterError struct {
	Route       string
	Placeholder string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("route %s: no value supplied for placeholder %q", e.Route, e.Placeholder)
}

// Is checks if the error matches the target.
func (e *MissingParameterError) Is(target error) bool {
	_, ok := target.(*MissingParameterError)
	return ok
}

// RequirementMismatchError reports a supplied parameter value failing its
// declared requirement pattern.
type RequirementMismatchError struct {
	Route       string
	Placeholder string
	Value       string
	Pattern     string
}

func (e *RequirementMismatchError) Error() string {
	return fmt.Sprintf("route %s: value %q for placeholder %q does not match requirement %q", e.Route, e.Value, e.Placeholder, e.Pattern)
}

// Is checks if the error matches the target.
func (e *RequirementMismatchError) Is(target error) bool {
	_, ok := target.(*RequirementMismatchError)
	return ok
}
