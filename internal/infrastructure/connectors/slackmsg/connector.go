package slackmsg

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"golang.org/x/time/rate"

	"github.com/intelforge/ai-bos/internal/core/domain"
	"github.com/intelforge/ai-bos/internal/infrastructure/anonymize"
)

const (
	errorTag     = "[MESSAGING_FETCH_ERROR]"
	defaultLimit = 100
)

// api is the subset of the Slack client the connector calls, extracted so
// tests can stub the workspace.
type api interface {
	JoinConversationContext(ctx context.Context, channelID string) (*slack.Channel, string, []string, error)
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
}

// Connector pulls recent messages from one Slack channel, one document per
// non-empty message. Calls are rate limited to stay under the web API tier.
type Connector struct {
	client    api
	channelID string
	limit     int
	limiter   *rate.Limiter
	logger    *slog.Logger
}

func New(token, channelID string, limit int, logger *slog.Logger) *Connector {
	var client api
	if strings.TrimSpace(token) != "" {
		client = slack.New(token)
	}
	return newWithAPI(client, channelID, limit, logger)
}

func newWithAPI(client api, channelID string, limit int, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Connector{
		client:    client,
		channelID: channelID,
		limit:     limit,
		// Tier 3 web API methods allow ~50 requests per minute.
		limiter: rate.NewLimiter(rate.Every(1200*time.Millisecond), 1),
		logger:  logger.With("connector", "messaging"),
	}
}

func (c *Connector) Source() domain.Source {
	return domain.SourceMessaging
}

// Fetch never fails: missing configuration or an API error yields exactly one
// placeholder document.
func (c *Connector) Fetch(ctx context.Context) []domain.Document {
	docs, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("messaging fetch failed, returning placeholder", "channel", c.channelID, "error", err)
		docs = []domain.Document{domain.NewPlaceholder(domain.SourceMessaging, errorTag, err)}
	} else {
		c.logger.Info("messages fetched", "channel", c.channelID, "documents", len(docs))
	}
	return anonymize.Documents(docs)
}

func (c *Connector) fetch(ctx context.Context) ([]domain.Document, error) {
	if c.client == nil {
		return nil, domain.WrapError(domain.ErrAuth, "fetch messages",
			errors.New("messaging bot token is not configured"))
	}
	if strings.TrimSpace(c.channelID) == "" {
		return nil, domain.WrapError(domain.ErrConfiguration, "fetch messages",
			errors.New("messaging channel id is not configured"))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if _, _, _, err := c.client.JoinConversationContext(ctx, c.channelID); err != nil && !joinSkippable(err) {
		c.logger.Warn("could not join channel, reading history anyway", "channel", c.channelID, "error", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	history, err := c.client.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: c.channelID,
		Limit:     c.limit,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrTransient, "fetch messages", err)
	}

	docs := make([]domain.Document, 0, len(history.Messages))
	for _, msg := range history.Messages {
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			continue
		}
		docs = append(docs, domain.Document{
			Content: text,
			Status:  domain.StatusIngested,
			Metadata: domain.Metadata{
				Source:    domain.SourceMessaging,
				Timestamp: slackTimestamp(msg.Timestamp),
				Channel:   c.channelID,
				User:      msg.User,
			},
		})
	}
	return docs, nil
}

// joinSkippable reports join errors that still allow reading history: the
// bot is already a member, or the channel type (DMs) cannot be joined at all.
func joinSkippable(err error) bool {
	var apiErr slack.SlackErrorResponse
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Err {
	case "already_in_channel", "method_not_supported_for_channel_type":
		return true
	}
	return false
}

// slackTimestamp converts a "seconds.fraction" message ts; an unparsable ts
// falls back to now so downstream ids stay unique.
func slackTimestamp(ts string) time.Time {
	seconds, err := strconv.ParseFloat(ts, 64)
	if err != nil || seconds <= 0 {
		return time.Now().UTC()
	}
	sec := int64(seconds)
	nsec := int64((seconds - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}
