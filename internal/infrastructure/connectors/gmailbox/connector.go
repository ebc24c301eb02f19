package gmailbox

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/gmail/v1"

	"github.com/intelforge/ai-bos/internal/core/domain"
	"github.com/intelforge/ai-bos/internal/infrastructure/anonymize"
)

const (
	errorTag          = "[MAIL_FETCH_ERROR]"
	defaultMaxResults = 25
)

// mailbox is the slice of the Gmail API the connector uses; the real
// implementation wraps *gmail.Service, tests stub it.
type mailbox interface {
	ListInboxIDs(ctx context.Context, max int64) ([]string, error)
	GetMessage(ctx context.Context, id string) (*gmail.Message, error)
}

// Connector pulls recent inbox messages, one document per message with
// subject and body merged into the content.
type Connector struct {
	open       func(ctx context.Context) (mailbox, error)
	maxResults int64
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// New builds a connector over stored OAuth credentials. The service is opened
// lazily on the first Fetch so a misconfigured mailbox degrades to a
// placeholder instead of failing startup.
func New(credentialsPath, tokenPath string, maxResults int, logger *slog.Logger) *Connector {
	return newWithOpener(func(ctx context.Context) (mailbox, error) {
		return openMailbox(ctx, credentialsPath, tokenPath)
	}, maxResults, logger)
}

func newWithOpener(open func(ctx context.Context) (mailbox, error), maxResults int, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}
	max := int64(maxResults)
	if max <= 0 {
		max = defaultMaxResults
	}
	return &Connector{
		open:       open,
		maxResults: max,
		// Well under the per-user Gmail API quota.
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		logger:  logger.With("connector", "mail"),
	}
}

func (c *Connector) Source() domain.Source {
	return domain.SourceMail
}

// Fetch never fails: auth, listing, or per-message errors yield exactly one
// placeholder document for the whole source.
func (c *Connector) Fetch(ctx context.Context) []domain.Document {
	docs, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("mail fetch failed, returning placeholder", "error", err)
		docs = []domain.Document{domain.NewPlaceholder(domain.SourceMail, errorTag, err)}
	} else {
		c.logger.Info("mail fetched", "documents", len(docs))
	}
	return anonymize.Documents(docs)
}

func (c *Connector) fetch(ctx context.Context) ([]domain.Document, error) {
	box, err := c.open(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.ErrAuth, "open mailbox", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	ids, err := box.ListInboxIDs(ctx, c.maxResults)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTransient, "list inbox", err)
	}

	docs := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		msg, err := box.GetMessage(ctx, id)
		if err != nil {
			return nil, domain.WrapError(domain.ErrTransient, "get message "+id, err)
		}
		docs = append(docs, messageDocument(msg))
	}
	return docs, nil
}

func messageDocument(msg *gmail.Message) domain.Document {
	subject := header(msg, "Subject")
	if subject == "" {
		subject = "(no subject)"
	}
	sender := header(msg, "From")
	if sender == "" {
		sender = "unknown"
	}

	body := plainTextBody(msg)
	content := "Subject: " + subject
	if body != "" {
		content += "\n\n" + body
	}

	ts := time.Now().UTC()
	if msg.InternalDate > 0 {
		ts = time.UnixMilli(msg.InternalDate).UTC()
	}
	return domain.Document{
		Content: content,
		Status:  domain.StatusIngested,
		Metadata: domain.Metadata{
			Source:    domain.SourceMail,
			Timestamp: ts,
			Sender:    sender,
			Subject:   subject,
		},
	}
}

func header(msg *gmail.Message, name string) string {
	if msg.Payload == nil {
		return ""
	}
	for _, h := range msg.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// plainTextBody prefers the first text/plain part, then the top-level body.
// An undecodable body degrades to empty rather than failing the message.
func plainTextBody(msg *gmail.Message) string {
	if msg.Payload == nil {
		return ""
	}
	for _, part := range msg.Payload.Parts {
		if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
			return decodeBody(part.Body.Data)
		}
	}
	if msg.Payload.Body != nil && msg.Payload.Body.Data != "" {
		return decodeBody(msg.Payload.Body.Data)
	}
	return ""
}

func decodeBody(data string) string {
	raw, err := decodeBase64URL(data)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}
