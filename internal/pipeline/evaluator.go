// Package pipeline runs one message through classification, attachment
// scanning, fusion, persistence and side effects.
package pipeline

import (
	"context"

	"github.com/mikey/shortlist-watcher/internal/attachments"
	"github.com/mikey/shortlist-watcher/internal/core"
	"github.com/mikey/shortlist-watcher/internal/match"
	"github.com/mikey/shortlist-watcher/internal/signals"
	"github.com/mikey/shortlist-watcher/internal/whitelist"
	"go.uber.org/zap"
)

// AttachmentSource lazily loads a message's attachments
type AttachmentSource func(ctx context.Context) ([]core.AttachmentBlob, error)

// Evaluation is everything learned about one message
type Evaluation struct {
	MessageID   string                 `json:"message_id"`
	Sender      core.Sender            `json:"sender"`
	Subject     string                 `json:"subject"`
	Trusted     bool                   `json:"trusted"`
	Gated       bool                   `json:"gated"`
	Header      core.Verdict           `json:"header_verdict"`
	Content     core.Verdict           `json:"content_verdict"`
	Attachments *core.AttachmentReport `json:"attachments,omitempty"`
	Verdict     core.Verdict           `json:"verdict"`
}

// Evaluator classifies a fetched message without touching any store
type Evaluator struct {
	classifier      *match.Classifier
	scanner         *attachments.Scanner
	trusted         *whitelist.Checker
	gateAttachments bool
	logger          *zap.Logger
}

// NewEvaluator creates an evaluator. trusted may be nil to trust every sender.
func NewEvaluator(classifier *match.Classifier, scanner *attachments.Scanner, trusted *whitelist.Checker, gateAttachments bool, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		classifier:      classifier,
		scanner:         scanner,
		trusted:         trusted,
		gateAttachments: gateAttachments,
		logger:          logger,
	}
}

// Evaluate computes the header, content and attachment verdicts and fuses
// them. Attachments come from msg when present, otherwise from src.
func (e *Evaluator) Evaluate(ctx context.Context, p core.Profile, msg *core.Message, src AttachmentSource, observe core.PhaseObserver) *Evaluation {
	notify(observe, core.PhaseClassifying)

	ev := &Evaluation{
		MessageID: msg.ID,
		Sender:    signals.ParseSender(msg.From),
		Subject:   signals.DecodeHeader(msg.Subject),
		Header:    core.NoMatch,
		Content:   core.NoMatch,
		Verdict:   core.NoMatch,
	}
	ev.Trusted = e.trusted == nil || e.trusted.Allows(ev.Sender.Address)

	if ev.Trusted {
		ev.Header = e.classifier.ClassifySender(p, ev.Sender)
		ev.Content = e.classifier.ClassifyContent(p, ev.Subject, msg.Body)
	} else if e.gateAttachments {
		ev.Gated = true
		e.logger.Info("Sender is not trusted; skipping classification",
			zap.String("message_id", msg.ID),
			zap.String("from", ev.Sender.Address))
		return ev
	}

	notify(observe, core.PhaseAttachmentScan)
	blobs := msg.Attachments
	if blobs == nil && src != nil {
		var err error
		blobs, err = src(ctx)
		if err != nil {
			e.logger.Warn("Failed to list attachments",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			ev.Attachments = &core.AttachmentReport{Overall: core.NoMatch, ListError: err.Error()}
		}
	}
	if ev.Attachments == nil {
		ev.Attachments = e.scanner.Scan(ctx, p, blobs)
	}

	notify(observe, core.PhaseFusing)
	ev.Verdict = core.Fuse(ev.Header, ev.Content, ev.Attachments.Overall)

	e.logger.Info("Classified message",
		zap.String("message_id", msg.ID),
		zap.String("subject", ev.Subject),
		zap.String("header", ev.Header.String()),
		zap.String("content", ev.Content.String()),
		zap.String("attachments", ev.Attachments.Overall.String()),
		zap.Int("attachment_count", ev.Attachments.TotalAttachments),
		zap.String("verdict", ev.Verdict.String()))
	return ev
}

func notify(observe core.PhaseObserver, p core.Phase) {
	if observe != nil {
		observe(p)
	}
}
