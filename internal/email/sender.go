// Package email renders and delivers operator notifications.
package email

import (
	"context"

	"cog_mailing_sync/platform/config"
)

// ReviewFlagged describes one (parcel, role) sent to the review queue.
type ReviewFlagged struct {
	ParcelID     string
	Role         string
	Kind         string
	Message      string
	ReviewItemID string
	SnapshotKey  string
}

// RunSummary describes a finished batch run.
type RunSummary struct {
	RunID     string
	DryRun    bool
	Processed int
	Applied   int
	Unchanged int
	Skipped   int
	Flagged   int
	Failed    int
	Duration  string
}

type Sender interface {
	SendReviewFlaggedEmail(ctx context.Context, toEmail string, data ReviewFlagged) error
	SendRunSummaryEmail(ctx context.Context, toEmail string, data RunSummary) error
}

type NoopSender struct{}

func (NoopSender) SendReviewFlaggedEmail(ctx context.Context, toEmail string, data ReviewFlagged) error {
	return nil
}

func (NoopSender) SendRunSummaryEmail(ctx context.Context, toEmail string, data RunSummary) error {
	return nil
}

// NewSender returns an SMTP sender, or a NoopSender when SMTP is not configured.
func NewSender(cfg config.SMTPConfig) Sender {
	if !cfg.IsSMTPEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}
