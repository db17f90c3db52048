// Package pipeline runs the membership card pipeline over a roster.
//
// Rows are processed one at a time in roster order: verify eligibility, write
// the member page, render and archive the QR code, then email the card. Each
// row ends with an Outcome collected in a Report. Email failures are recorded
// and the run continues; page or QR failures abort the run and return the
// partial Report with the error.
package pipeline
