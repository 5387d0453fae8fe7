package service

import "errors"

var (
	// ErrDuplicateBill is returned when a document with the same content hash
	// is already in the sheet
	ErrDuplicateBill = errors.New("bill already recorded")

	// ErrStorageUnavailable is returned when the sheet cannot be read or written
	ErrStorageUnavailable = errors.New("bill storage unavailable")

	// ErrInvalidDocument is returned for uploads that are not readable PDFs
	ErrInvalidDocument = errors.New("invalid bill document")

	// ErrSummaryDisabled is returned when no summarizer is configured
	ErrSummaryDisabled = errors.New("bill summary disabled")
)
