package domain

import "errors"

// ErrProjectNotFound is returned when a project ID cannot be found in the store.
var ErrProjectNotFound = errors.New("project not found")

// ErrMediaNotFound is returned when a media ID does not belong to the project.
var ErrMediaNotFound = errors.New("media not found")

// ErrInvalidProject is returned when a project fails validation.
var ErrInvalidProject = errors.New("invalid project")

// ErrMissingFields is returned when required contact fields are empty.
var ErrMissingFields = errors.New("missing required fields")

// ErrInvalidEmail is returned when the contact email address is malformed.
var ErrInvalidEmail = errors.New("invalid email address")

// ErrInvalidInput is returned when user text is oversized or not valid UTF-8.
var ErrInvalidInput = errors.New("invalid input")
