// Package ledger records which members have already been emailed their card.
//
// The ledger is a single JSON file in the data directory (default
// ~/.local/share/membercards/ledger.json). It is rewritten after every
// successful send, so an interrupted run still remembers what it delivered
// and a rerun does not email those members twice. Recipient addresses are
// encrypted at rest when a ledger key is configured.
package ledger
