// Package page writes the static member pages published by the club website.
//
// Each member gets "<First>_<Last>.md" with Jekyll front matter, the member's
// status, the card expiration date, a validity badge and the card images.
// Rendering is a pure function of PageData so reruns produce identical files.
package page

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clubmontagne/membercards/internal/expiry"
	"github.com/clubmontagne/membercards/internal/member"
)

const (
	// DefaultOutputDir is where the site keeps member pages, relative to the working directory
	DefaultOutputDir = "../../members"

	// SitePrefix is the URL path under which the site serves member assets
	SitePrefix = "/members/"

	// BannerImage is the decorative image shown under every card
	BannerImage = "img/bar.png"

	validBadge   = `<font color="green"> Verified</font> `
	invalidBadge = `<font color="red"> Not valid</font> `
)

// PageData holds everything shown on a member page
type PageData struct {
	FirstName string
	LastName  string
	Status    string
	Valid     bool
	ImagePath string // relative to SitePrefix, e.g. img/Ana_Lee.png
	Expires   time.Time
}

// Writer writes member pages into a directory
type Writer struct {
	dir string
}

// NewWriter creates a Writer for dir
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Path returns the page file path for a member
func (w *Writer) Path(firstName, lastName string) string {
	return filepath.Join(w.dir, firstName+"_"+lastName+".md")
}

// Write renders the page and replaces any existing file for the member.
// It returns the written path.
func (w *Writer) Write(data PageData) (string, error) {
	if err := member.CheckKey(data.FirstName + "_" + data.LastName); err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("creating page directory: %w", err)
	}

	path := w.Path(data.FirstName, data.LastName)
	if err := os.WriteFile(path, []byte(Render(data)), 0644); err != nil {
		return "", fmt.Errorf("writing member page: %w", err)
	}

	return path, nil
}

// Render returns the markdown document for a member
func Render(data PageData) string {
	var page strings.Builder

	// Front matter
	page.WriteString("---\nlayout: post\n")
	page.WriteString(fmt.Sprintf("title: %s %s\n---\n\n", data.FirstName, data.LastName))

	page.WriteString(fmt.Sprintf("Status: %s\n", data.Status))
	page.WriteString(fmt.Sprintf("\nExpiration date: %s\n", expiry.Format(data.Expires)))

	badge := invalidBadge
	if data.Valid {
		badge = validBadge
	}
	page.WriteString(fmt.Sprintf("\nValidity: %s\n", badge))

	page.WriteString(fmt.Sprintf("![](%s%s)\n", SitePrefix, data.ImagePath))
	page.WriteString(fmt.Sprintf("![](%s%s)\n", SitePrefix, BannerImage))

	return page.String()
}
