package models

import apperrors "link-router/internal/common/errors"

var (
	errEmptyCode          = apperrors.ValidationError("code is required")
	errInvalidDestination = apperrors.ValidationError("destination must be an absolute http or https URL")
)
