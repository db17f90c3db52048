// Package cli implements the command-line interface for membercards.
//
// The cli package provides the Cobra-based CLI. Its process command loads a
// roster, wires the eligibility checker, page writer, QR generator, ledger and
// notifier into a pipeline run, and reports each row's outcome as text or JSON.
// Exit codes distinguish a clean run, a failed run and a run where some cards
// could not be emailed.
package cli
