// Package roster loads the club roster exported from the membership form.
//
// The roster is a CSV file with one member per row. Columns are matched by
// header name through gocsv struct tags on member.Member; extra columns such
// as the form timestamp are ignored.
package roster
