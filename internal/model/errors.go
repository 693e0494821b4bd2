package model

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Pipeline conditions. Callers match them with errors.Is.
var (
	ErrCatalogUnavailable   = eris.New("municipality catalog unavailable")
	ErrMunicipalityNotFound = eris.New("municipality not found")
	ErrDataUnavailable      = eris.New("epidemiological data unavailable")
	ErrInsufficientData     = eris.New("insufficient data for training")
	ErrModelTrainingFailed  = eris.New("model training failed")
	ErrInvalidDisease       = eris.New("invalid disease")
	ErrInvalidModel         = eris.New("invalid model kind")
)

// DataError reports a failed fetch for one disease while keeping the
// transport or decode cause.
type DataError struct {
	Disease Disease
	Geocode int64
	Cause   error
}

// NewDataError wraps cause as a DataUnavailable condition.
func NewDataError(disease Disease, geocode int64, cause error) *DataError {
	return &DataError{Disease: disease, Geocode: geocode, Cause: cause}
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s for %s in %d: %v", ErrDataUnavailable.Error(), e.Disease, e.Geocode, e.Cause)
}

func (e *DataError) Unwrap() error {
	return e.Cause
}

// Is matches ErrDataUnavailable.
func (e *DataError) Is(target error) bool {
	return target == ErrDataUnavailable
}

// TrainingError reports a fit or predict failure with its underlying cause.
type TrainingError struct {
	Model ModelKind
	Stage string // "fit", "predict" or "validate"
	Cause error
}

// NewTrainingError wraps cause as a ModelTrainingFailed condition.
func NewTrainingError(kind ModelKind, stage string, cause error) *TrainingError {
	return &TrainingError{Model: kind, Stage: stage, Cause: cause}
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("%s (%s %s): %v", ErrModelTrainingFailed.Error(), e.Model, e.Stage, e.Cause)
}

func (e *TrainingError) Unwrap() error {
	return e.Cause
}

// Is matches ErrModelTrainingFailed.
func (e *TrainingError) Is(target error) bool {
	return target == ErrModelTrainingFailed
}
