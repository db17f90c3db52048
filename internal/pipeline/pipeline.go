package pipeline

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/clubmontagne/membercards/internal/calendar"
	"github.com/clubmontagne/membercards/internal/eligibility"
	"github.com/clubmontagne/membercards/internal/expiry"
	"github.com/clubmontagne/membercards/internal/logger"
	"github.com/clubmontagne/membercards/internal/mailer"
	"github.com/clubmontagne/membercards/internal/member"
	"github.com/clubmontagne/membercards/internal/page"
	"github.com/clubmontagne/membercards/internal/qr"
)

// Verifier decides member eligibility
type Verifier interface {
	VerifyMember(ctx context.Context, m *member.Member) eligibility.Result
}

// PageWriter writes member pages
type PageWriter interface {
	Write(data page.PageData) (string, error)
}

// QRGenerator renders and archives QR codes
type QRGenerator interface {
	Generate(link string) ([]byte, error)
	Archive(name string, png []byte) (string, error)
}

// Ledger remembers delivered cards
type Ledger interface {
	Sent(memberKey, recipient, cardURL string) (bool, error)
	Record(memberKey, recipient, cardURL, runID string) error
}

// Deps are the stages of the pipeline. Notifier and Ledger are optional:
// without a Notifier no email is sent, without a Ledger every card is sent.
type Deps struct {
	Verifier Verifier
	Pages    PageWriter
	QR       QRGenerator
	Notifier mailer.Notifier
	Ledger   Ledger
}

// Options tune a run
type Options struct {
	BaseURL        string
	Policy         expiry.Policy
	Resend         bool // ignore the ledger and email everyone again
	DryRun         bool // consult the ledger but never record deliveries
	AttachCalendar bool
	Now            func() time.Time
}

// Processor runs the pipeline
type Processor struct {
	deps Deps
	opts Options
}

// New creates a Processor
func New(deps Deps, opts Options) *Processor {
	if opts.BaseURL == "" {
		opts.BaseURL = member.DefaultBaseURL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Processor{deps: deps, opts: opts}
}

// ProcessAll runs every member through the pipeline in order.
// The returned Report is never nil; on error it covers the rows processed so far.
func (p *Processor) ProcessAll(ctx context.Context, members []*member.Member) (*Report, error) {
	start := p.opts.Now()
	report := newReport(uuid.NewString(), start)
	metrics := logger.NewMetrics()

	logger.Info("Processing roster", logger.Fields{
		"run_id":  report.RunID,
		"members": len(members),
		"policy":  p.opts.Policy.String(),
	})

	err := p.processRows(ctx, report, metrics, members)

	elapsed := p.opts.Now().Sub(start)
	metrics.RecordTiming("run", elapsed)
	report.Elapsed = Duration(elapsed)
	report.Metrics = metrics.Snapshot()

	if err != nil {
		return report, err
	}

	logger.Info("Roster processed", logger.Fields{
		"run_id":     report.RunID,
		"elapsed":    elapsed.String(),
		"valid":      report.Valid(),
		"emailed":    report.Count(OutcomeSuccess),
		"failed":     report.Count(OutcomeEmailFailed),
		"skipped":    report.Count(OutcomeSkipped),
		"row_avg":    report.Metrics.Timings["row"].Average,
		"verify_avg": report.Metrics.Timings["verify"].Average,
		"email_avg":  report.Metrics.Timings["email"].Average,
	})

	return report, nil
}

func (p *Processor) processRows(ctx context.Context, report *Report, metrics *logger.Metrics, members []*member.Member) error {
	for i, m := range members {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run cancelled before row %d: %w", i, err)
		}

		logger.Info("Starting member", logger.Fields{"row": i, "member": m.Key()})

		row, err := p.processRow(ctx, metrics, report.RunID, i, m)
		report.add(row)
		metrics.IncrCounter("rows." + string(row.Outcome))
		metrics.RecordTiming("row", time.Duration(row.Duration))

		if err != nil {
			logger.Error("Row aborted the run", logger.Fields{"row": i, "member": m.Key()}, err)
			return fmt.Errorf("processing row %d (%s): %w", i, m.Key(), err)
		}

		logger.Info("Member done", logger.Fields{
			"row":     i,
			"member":  m.Key(),
			"valid":   row.Valid,
			"outcome": string(row.Outcome),
			"elapsed": time.Duration(row.Duration).String(),
		})
	}

	return nil
}

// processRow returns an error only when the run must stop
func (p *Processor) processRow(ctx context.Context, metrics *logger.Metrics, runID string, index int, m *member.Member) (row *RowResult, err error) {
	rowStart := p.opts.Now()
	row = &RowResult{
		Row:    index,
		Member: m.Key(),
		Email:  m.Email,
		Status: m.Status,
	}
	defer func() {
		row.FinishedAt = p.opts.Now().UTC()
		row.Duration = Duration(row.FinishedAt.Sub(rowStart))
	}()

	// 1. verify eligibility
	verifyStart := p.opts.Now()
	verdict := p.deps.Verifier.VerifyMember(ctx, m)
	metrics.RecordTiming("verify", p.opts.Now().Sub(verifyStart))

	row.Valid = verdict.Valid
	row.Method = string(verdict.Method)
	row.Evidence = verdict.Evidence
	if verdict.Err != nil {
		row.VerifyError = verdict.Err.Error()
	}

	// An interrupted fetch says nothing about eligibility; keep the published page
	if err := ctx.Err(); err != nil {
		return p.abort(row, err)
	}

	expires := p.opts.Policy.ExpiresAt(rowStart)
	row.Expires = expiry.Format(expires)

	// 2. member page
	pagePath, err := p.deps.Pages.Write(page.PageData{
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Status:    m.Status,
		Valid:     verdict.Valid,
		ImagePath: path.Join(qr.ImageDir, m.ImageName()),
		Expires:   expires,
	})
	if err != nil {
		return p.abort(row, err)
	}
	row.PagePath = pagePath

	// 3. QR code, for valid and invalid members alike
	row.CardURL = m.CardURL(p.opts.BaseURL)
	png, err := p.deps.QR.Generate(row.CardURL)
	if err != nil {
		return p.abort(row, err)
	}
	imagePath, err := p.deps.QR.Archive(m.ImageName(), png)
	if err != nil {
		return p.abort(row, err)
	}
	row.ImagePath = imagePath

	// 4. email
	if p.deps.Notifier == nil || !m.HasEmail() {
		row.Outcome = OutcomeVerificationOnly
		return row, nil
	}

	if p.deps.Ledger != nil && !p.opts.Resend {
		sent, err := p.deps.Ledger.Sent(m.Key(), m.Email, row.CardURL)
		if err != nil {
			logger.Warn("Ledger lookup failed, sending anyway", logger.Fields{
				"member": m.Key(),
				"error":  err.Error(),
			})
		}
		if sent {
			logger.Info("Card already delivered, skipping email", logger.Fields{"member": m.Key()})
			row.Outcome = OutcomeSkipped
			return row, nil
		}
	}

	card := &mailer.Card{
		To:        m.Email,
		Key:       m.Key(),
		FirstName: m.FirstName,
		LastName:  m.LastName,
		CardURL:   row.CardURL,
		QRCode:    png,
		Expires:   expires,
		Valid:     verdict.Valid,
	}
	if p.opts.AttachCalendar {
		card.Calendar = calendar.GenerateICS(calendar.ExpiryReminder(m.Key(), m.FullName(), row.CardURL, expires))
	}

	if err := ctx.Err(); err != nil {
		return p.abort(row, err)
	}

	logger.Info("Sending email", logger.Fields{"member": m.Key(), "to": m.Email})
	sendStart := p.opts.Now()
	err = p.deps.Notifier.Notify(ctx, card)
	metrics.RecordTiming("email", p.opts.Now().Sub(sendStart))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return p.abort(row, ctxErr)
		}
		logger.Error("Email failed", logger.Fields{"member": m.Key(), "to": m.Email}, err)
		row.Outcome = OutcomeEmailFailed
		row.Error = err.Error()
		return row, nil
	}

	row.Outcome = OutcomeSuccess

	if p.deps.Ledger != nil && !p.opts.DryRun {
		if err := p.deps.Ledger.Record(m.Key(), m.Email, row.CardURL, runID); err != nil {
			row.Error = err.Error()
			return row, fmt.Errorf("recording delivery: %w", err)
		}
	}

	return row, nil
}

func (p *Processor) abort(row *RowResult, err error) (*RowResult, error) {
	row.Outcome = OutcomeAborted
	row.Error = err.Error()
	return row, err
}
