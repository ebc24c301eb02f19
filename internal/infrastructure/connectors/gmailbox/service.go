package gmailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// gmailService adapts *gmail.Service to the mailbox interface.
type gmailService struct {
	svc *gmail.Service
}

func (g *gmailService) ListInboxIDs(ctx context.Context, max int64) ([]string, error) {
	resp, err := g.svc.Users.Messages.List("me").
		LabelIds("INBOX").
		MaxResults(max).
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(resp.Messages))
	for _, ref := range resp.Messages {
		ids = append(ids, ref.Id)
	}
	return ids, nil
}

func (g *gmailService) GetMessage(ctx context.Context, id string) (*gmail.Message, error) {
	return g.svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
}

// openMailbox builds a Gmail service from a stored OAuth client config and a
// previously issued token. There is no interactive consent flow here; the
// token must have been obtained out of band and carry a refresh token.
func openMailbox(ctx context.Context, credentialsPath, tokenPath string) (mailbox, error) {
	tok, err := readToken(tokenPath)
	if err != nil {
		return nil, err
	}

	var source oauth2.TokenSource
	if credentialsPath != "" {
		raw, err := os.ReadFile(credentialsPath)
		if err != nil {
			return nil, fmt.Errorf("read oauth client config: %w", err)
		}
		cfg, err := google.ConfigFromJSON(raw, gmail.GmailReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("parse oauth client config: %w", err)
		}
		source = cfg.TokenSource(ctx, tok)
	} else {
		// No client config means no refresh; the token is used as-is.
		source = oauth2.StaticTokenSource(tok)
	}

	svc, err := gmail.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("create mail service: %w", err)
	}
	return &gmailService{svc: svc}, nil
}

func readToken(tokenPath string) (*oauth2.Token, error) {
	raw, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("read oauth token (authorize out of band first): %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}
	return &tok, nil
}

// decodeBase64URL handles both padded and unpadded base64url payloads, which
// the mail API mixes freely.
func decodeBase64URL(data string) ([]byte, error) {
	if raw, err := base64.URLEncoding.DecodeString(data); err == nil {
		return raw, nil
	}
	return base64.RawURLEncoding.DecodeString(data)
}
