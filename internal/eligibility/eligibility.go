package eligibility

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/clubmontagne/membercards/internal/logger"
	"github.com/clubmontagne/membercards/internal/member"
)

const (
	UserAgent = "membercards/1.0 (+https://clubmontagne.epfl.ch)"
	Timeout   = 30 * time.Second

	// maxBodySize caps how much of a profile page is read
	maxBodySize = 5 << 20
	// maxEvidence caps the length of the evidence excerpt
	maxEvidence = 120
)

// StudentMarkers are the literal strings that identify a student profile page
var StudentMarkers = []string{"Student", "Etudiant"}

// Method names how a member was verified
type Method string

const (
	MethodPayment Method = "payment"
	MethodProfile Method = "profile"
)

// Result is the outcome of a verification
type Result struct {
	Valid    bool   `json:"valid"`
	Method   Method `json:"method"`
	Evidence string `json:"evidence,omitempty"`
	Err      error  `json:"-"`
}

// Checker verifies member eligibility
type Checker struct {
	client *http.Client
}

// New creates a Checker whose profile requests time out after timeout.
// A non-positive timeout uses the default.
func New(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = Timeout
	}
	return &Checker{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// VerifyMember returns whether the member is eligible.
// Non-student statuses are valid iff payment, uppercased, is exactly "TRUE".
// Students are valid iff their profile page contains a student marker.
func (c *Checker) VerifyMember(ctx context.Context, m *member.Member) Result {
	if !m.IsStudent() {
		return Result{
			Valid:  strings.ToUpper(m.Payment) == "TRUE",
			Method: MethodPayment,
		}
	}

	if !m.HasProfileLink() {
		return Result{Method: MethodProfile}
	}

	body, err := c.fetch(ctx, m.ProfileLink)
	if err != nil {
		logger.Warn("Profile request failed, member is not verified", logger.Fields{
			"profile_link": m.ProfileLink,
			"error":        err.Error(),
		})
		return Result{Method: MethodProfile, Err: err}
	}

	for _, marker := range StudentMarkers {
		if bytes.Contains(body, []byte(marker)) {
			return Result{
				Valid:    true,
				Method:   MethodProfile,
				Evidence: findEvidence(body, marker),
			}
		}
	}

	return Result{Method: MethodProfile}
}

// Verify checks a member described by the raw roster cells
func (c *Checker) Verify(ctx context.Context, profileLink, status, payment string) Result {
	return c.VerifyMember(ctx, &member.Member{
		Status:      status,
		Payment:     payment,
		ProfileLink: profileLink,
	})
}

// fetch downloads the profile page body
func (c *Checker) fetch(ctx context.Context, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	return body, nil
}

// findEvidence returns the text of the first element whose own text holds marker.
// Markers that only appear in attributes or scripts yield an empty string.
func findEvidence(body []byte, marker string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var evidence string
	doc.Find("body, body *").Not("script, style").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		own := sel.Contents().FilterFunction(func(_ int, c *goquery.Selection) bool {
			return goquery.NodeName(c) == "#text" && strings.Contains(c.Text(), marker)
		})
		if own.Length() == 0 {
			return true
		}
		evidence = strings.Join(strings.Fields(sel.Text()), " ")
		return false
	})

	if r := []rune(evidence); len(r) > maxEvidence {
		evidence = string(r[:maxEvidence-3]) + "..."
	}
	return evidence
}
