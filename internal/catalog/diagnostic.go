// SPDX-License-Identifier: MPL-2.0

package catalog

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"

	// CodeNotASlice marks a file whose content does not start with a keyword.
	CodeNotASlice = "not_a_slice"
	// CodeBucketSkipped marks a bucket dropped because a higher major exists.
	CodeBucketSkipped = "bucket_skipped"
	// CodeSliceReplaced marks a slice overridden by a same-named slice.
	CodeSliceReplaced = "slice_replaced"
)

type (
	// Severity is the level of a Diagnostic.
	Severity string

	// Diagnostic is a non-fatal finding produced while loading. The CLI
	// decides whether to show it.
	Diagnostic struct {
		Severity Severity
		Code     string
		Message  string
		Path     string
		Cause    error
	}
)
