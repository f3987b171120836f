// Package models defines client-side data models used by the FormAI CLI.
package models

import "time"

// MaxHistory bounds the number of scans kept locally.
const MaxHistory = 20

// ScanAttempt is one successful analysis, kept in the local history.
// Attempts are never mutated after creation; old ones are evicted by truncation.
type ScanAttempt struct {
	// ID is a random identifier assigned at creation.
	ID string

	// Timestamp is when the analysis completed, in UTC.
	Timestamp time.Time

	// MachineName is the equipment name reported by the backend, if any.
	MachineName string

	// ImageRef points at the archived image ("" when archiving is disabled).
	ImageRef string

	// ResultText is the usage explanation shown to the user.
	ResultText string
}

// AnalysisResult is the decoded body of a successful /analyze call.
type AnalysisResult struct {
	Text        string
	MachineName string
}

// ScanOutcome is what the scan pipeline produced for one photo.
type ScanOutcome struct {
	Analysis      AnalysisResult
	Image         OptimizedImage
	// SizeReduction is original minus optimized bytes, negative when the
	// upload grew.
	SizeReduction int
	// Fallback names why optimization was skipped ("" when it ran).
	Fallback string
}
