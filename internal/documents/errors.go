package documents

import "errors"

var (
	// ErrInvalidInput rejects a malformed upload before any storage I/O.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound reports a document that does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrForbidden reports a document owned by someone else. Handlers must
	// answer it with the same body as ErrNotFound so existence does not leak.
	ErrForbidden = errors.New("document not owned by requester")
	// ErrContentUnavailable reports that neither storage tier holds the
	// document's bytes.
	ErrContentUnavailable = errors.New("document content unavailable")
	// ErrExtractionFailed reports that the text extractor could not parse
	// the document's bytes.
	ErrExtractionFailed = errors.New("text extraction failed")
	// ErrAnalysisFailed reports a failed call to the analysis service.
	ErrAnalysisFailed = errors.New("analysis service failed")
)
