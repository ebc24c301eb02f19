package slackmsg

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/slack-go/slack"

	"github.com/intelforge/ai-bos/internal/core/domain"
	"github.com/intelforge/ai-bos/internal/infrastructure/anonymize"
)

type workspaceFake struct {
	joinErr    error
	historyErr error
	messages   []slack.Message

	joinCalls    int
	historyCalls int
}

func (f *workspaceFake) JoinConversationContext(context.Context, string) (*slack.Channel, string, []string, error) {
	f.joinCalls++
	return nil, "", nil, f.joinErr
}

func (f *workspaceFake) GetConversationHistoryContext(context.Context, *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error) {
	f.historyCalls++
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return &slack.GetConversationHistoryResponse{Messages: f.messages}, nil
}

func message(user, ts, text string) slack.Message {
	return slack.Message{Msg: slack.Msg{User: user, Timestamp: ts, Text: text}}
}

func TestFetchMissingTokenReturnsPlaceholder(t *testing.T) {
	docs := New("", "C123", 10, nil).Fetch(context.Background())
	if len(docs) != 1 || !docs[0].IsPlaceholder() {
		t.Fatalf("got %+v, want one placeholder", docs)
	}
	if docs[0].Metadata.Source != domain.SourceMessaging {
		t.Fatalf("placeholder source = %q", docs[0].Metadata.Source)
	}
	if !strings.Contains(docs[0].Content, errorTag) {
		t.Fatalf("placeholder missing tag: %q", docs[0].Content)
	}
}

func TestFetchMissingChannelReturnsPlaceholder(t *testing.T) {
	c := newWithAPI(&workspaceFake{}, "  ", 10, nil)
	docs := c.Fetch(context.Background())
	if len(docs) != 1 || !docs[0].IsPlaceholder() {
		t.Fatalf("got %+v, want one placeholder", docs)
	}
}

func TestFetchSkipsBlankMessagesAndAnonymizes(t *testing.T) {
	fake := &workspaceFake{messages: []slack.Message{
		message("U1", "1724500000.000100", "Ping ops@example.com about the outage"),
		message("U2", "1724500001.000200", "   "),
		message("U3", "1724500002.000300", "On it"),
	}}
	c := newWithAPI(fake, "C123", 10, nil)

	docs := c.Fetch(context.Background())
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2 (blank skipped)", len(docs))
	}
	if !strings.Contains(docs[0].Content, anonymize.TagEmail) {
		t.Errorf("email not anonymized: %q", docs[0].Content)
	}
	if docs[0].Metadata.User != "U1" || docs[0].Metadata.Channel != "C123" {
		t.Errorf("metadata not carried: %+v", docs[0].Metadata)
	}
	want := time.Unix(1724500000, 0).UTC()
	if docs[0].Metadata.Timestamp.Truncate(time.Second) != want {
		t.Errorf("timestamp = %v, want %v", docs[0].Metadata.Timestamp, want)
	}
}

func TestFetchToleratesAlreadyInChannel(t *testing.T) {
	fake := &workspaceFake{
		joinErr:  slack.SlackErrorResponse{Err: "already_in_channel"},
		messages: []slack.Message{message("U1", "1724500000.000100", "hello")},
	}
	c := newWithAPI(fake, "C123", 10, nil)

	docs := c.Fetch(context.Background())
	if len(docs) != 1 || docs[0].IsPlaceholder() {
		t.Fatalf("join tolerance broken: %+v", docs)
	}
	if fake.historyCalls != 1 {
		t.Fatalf("history calls = %d, want 1", fake.historyCalls)
	}
}

func TestJoinSkippable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{slack.SlackErrorResponse{Err: "already_in_channel"}, true},
		{slack.SlackErrorResponse{Err: "method_not_supported_for_channel_type"}, true},
		{slack.SlackErrorResponse{Err: "channel_not_found"}, false},
		{errors.New("already_in_channel"), false},
	}
	for _, tc := range cases {
		if got := joinSkippable(tc.err); got != tc.want {
			t.Errorf("joinSkippable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestFetchHistoryErrorReturnsPlaceholder(t *testing.T) {
	fake := &workspaceFake{historyErr: errors.New("rate_limited")}
	c := newWithAPI(fake, "C123", 10, nil)

	docs := c.Fetch(context.Background())
	if len(docs) != 1 || !docs[0].IsPlaceholder() {
		t.Fatalf("got %+v, want one placeholder", docs)
	}
	if !strings.Contains(docs[0].Metadata.Error, "rate_limited") {
		t.Fatalf("placeholder should carry the cause: %q", docs[0].Metadata.Error)
	}
}
