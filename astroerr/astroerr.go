// Package astroerr declares the error kinds shared across astrocore's
// packages (§7): configuration, unknown names, parsing, EOP availability,
// out-of-range queries, arithmetic domain failures and shape mismatches.
//
// Each kind is a small typed error wrapping github.com/pkg/errors so
// call sites can attach a stack at the point of failure while callers
// still match on the underlying sentinel with errors.As/errors.Is.
package astroerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigError signals a missing or invalid configuration option.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %q: %s", e.Key, e.Err)
	}
	return fmt.Sprintf("config %q: missing or invalid", e.Key)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError wraps err (may be nil) as a ConfigError for key.
func NewConfigError(key string, err error) error {
	return &ConfigError{Key: key, Err: errors.WithStack(err)}
}

// UnknownKind identifies which kind of name was not recognized.
type UnknownKind string

const (
	UnknownScale      UnknownKind = "scale"
	UnknownFrame      UnknownKind = "frame"
	UnknownOrientation UnknownKind = "orientation"
	UnknownCenter     UnknownKind = "center"
	UnknownForm       UnknownKind = "form"
	UnknownPropagator UnknownKind = "propagator"
	UnknownBody       UnknownKind = "body"
)

// UnknownError signals an unrecognized scale, frame, form, propagator or
// body name (§7 Unknown-enum).
type UnknownError struct {
	Kind UnknownKind
	Name string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Name)
}

// NewUnknown builds an UnknownError, annotated with a stack trace.
func NewUnknown(kind UnknownKind, name string) error {
	return errors.WithStack(&UnknownError{Kind: kind, Name: name})
}

// ParseError signals malformed input (TLE checksum, CCSDS mandatory field,
// Horizon header, ...).
type ParseError struct {
	Source string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Source, e.Reason)
}

// NewParseError builds a ParseError, annotated with a stack trace.
func NewParseError(source, reason string) error {
	return errors.WithStack(&ParseError{Source: source, Reason: reason})
}

// EopMissingError signals that no EOP record exists for a requested MJD
// under the "error" missing-data policy (§4.2, §7).
type EopMissingError struct {
	MJD float64
}

func (e *EopMissingError) Error() string {
	return fmt.Sprintf("no EOP data for mjd=%g", e.MJD)
}

// NewEopMissing builds an EopMissingError, annotated with a stack trace.
func NewEopMissing(mjd float64) error {
	return errors.WithStack(&EopMissingError{MJD: mjd})
}

// OutOfRangeError signals an ephemeris query outside [start, stop] in strict
// mode, or an adaptive-step integrator failing to converge.
type OutOfRangeError struct {
	Reason string
}

func (e *OutOfRangeError) Error() string { return "out of range: " + e.Reason }

// NewOutOfRange builds an OutOfRangeError, annotated with a stack trace.
func NewOutOfRange(reason string) error {
	return errors.WithStack(&OutOfRangeError{Reason: reason})
}

// DomainError signals an arithmetic impossibility: period of a hyperbolic
// orbit, apocenter of a hyperbolic orbit, v-infinity of an elliptic orbit.
type DomainError struct {
	Reason string
}

func (e *DomainError) Error() string { return "domain error: " + e.Reason }

// NewDomain builds a DomainError, annotated with a stack trace.
func NewDomain(reason string) error {
	return errors.WithStack(&DomainError{Reason: reason})
}

// ShapeError signals a vector/matrix of the wrong shape (6-vector or 6x6
// matrix expected).
type ShapeError struct {
	Want string
	Got  string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape error: want %s, got %s", e.Want, e.Got)
}

// NewShape builds a ShapeError, annotated with a stack trace.
func NewShape(want, got string) error {
	return errors.WithStack(&ShapeError{Want: want, Got: got})
}
