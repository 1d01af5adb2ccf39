// Package sanitizer normalizes user-entered form values before they are
// validated and stored.
//
// All functions are idempotent and never fail: invalid input comes back as
// an empty string or an empty slice.
//
//   - Phone numbers: E.164 (+[country][number]) using the configured regions
//   - Free text: whitespace collapsed, leading and trailing space trimmed
//   - Search terms: free text, lowercased
//   - Slices: normalized, with duplicates and empty values removed
package sanitizer
