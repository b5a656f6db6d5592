package pipeline

import "regexp"

// rejectionPattern is the cheap gate that short-circuits the model stages for
// obvious rejections. A hit labels the message immediately; the classifier
// and extractor are never invoked for it.
var rejectionPattern = regexp.MustCompile(`(?i)\b(rejection|declined|not selected|unfortunately|unable to proceed|` +
	`regret to inform|move forward|other (qualified )?candidates|` +
	`position (has been )?filled|rejected|not moving forward|candidate pool|` +
	`we('ve| have) decided|after careful consideration|` +
	`although we were impressed|pursue other candidates|` +
	`wish you (luck|success) in your (job )?search|` +
	`(does not|not) align (with|to) our needs)\b`)

// RejectionFilter scans subject+body text for rejection phrases.
type RejectionFilter struct {
	pattern *regexp.Regexp
}

// NewRejectionFilter returns the stock filter.
func NewRejectionFilter() *RejectionFilter {
	return &RejectionFilter{pattern: rejectionPattern}
}

// IsRejection reports whether the text matches a rejection phrase.
func (f *RejectionFilter) IsRejection(text string) bool {
	return f.pattern.MatchString(text)
}
