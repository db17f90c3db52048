// Package member provides the roster row type shared by every stage of the
// membership card pipeline.
//
// A Member is identified by its key, "<First>_<Last>", which names the
// generated page, the archived QR code, the ledger entry and the public card
// URL encoded in the QR code.
package member
