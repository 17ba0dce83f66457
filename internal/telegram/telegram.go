// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

// Package telegram posts job summaries to a Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/mcmod-info-mirror/mcim-sync/internal/httpx"
	"github.com/mcmod-info-mirror/mcim-sync/pkg/mirror"
	"github.com/pkg/errors"
)

// maxMessageLen is Telegram's hard limit on message text.
const maxMessageLen = 4096

// listBudget caps the project list inside a summary so the headline and
// footer always fit under maxMessageLen after escaping.
const listBudget = 3600

// Bot sends summaries through the Telegram bot API.
type Bot struct {
	Client httpx.BasicClient
	// BaseURL is the bot API prefix, normally https://api.telegram.org/bot.
	BaseURL string
	Token   string
	ChatID  string
}

var _ mirror.Notifier = (*Bot)(nil)

type sendResult struct {
	OK     bool `json:"ok"`
	Result struct {
		MessageID int `json:"message_id"`
	} `json:"result"`
}

// Notify formats the summary and posts it. Statistics summaries are pinned so
// the chat always surfaces the latest catalog totals.
func (b *Bot) Notify(ctx context.Context, s mirror.Summary) error {
	text := format(s)
	msgID, err := b.sendMessage(ctx, text)
	if err != nil {
		return err
	}
	if s.Kind == mirror.SummaryStatistics {
		return b.pinMessage(ctx, msgID)
	}
	return nil
}

func (b *Bot) sendMessage(ctx context.Context, text string) (int, error) {
	payload := map[string]any{
		"chat_id":    b.ChatID,
		"text":       text,
		"parse_mode": "MarkdownV2",
	}
	var res sendResult
	if err := httpx.PostJSON(ctx, b.Client, b.endpoint("sendMessage"), payload, &res); err != nil {
		return 0, errors.Wrap(err, "sending telegram message")
	}
	if !res.OK {
		return 0, errors.New("telegram rejected message")
	}
	return res.Result.MessageID, nil
}

func (b *Bot) pinMessage(ctx context.Context, messageID int) error {
	payload := map[string]any{
		"chat_id":    b.ChatID,
		"message_id": messageID,
	}
	var res sendResult
	if err := httpx.PostJSON(ctx, b.Client, b.endpoint("pinChatMessage"), payload, &res); err != nil {
		// A failed pin should not fail the job; the summary already went out.
		log.WithError(err).Warn("pinning statistics message failed")
	}
	return nil
}

func (b *Bot) endpoint(method string) string {
	return b.BaseURL + b.Token + "/" + method
}

// markdownV2Specials are the characters MarkdownV2 requires escaping outside
// of entities.
const markdownV2Specials = "_*[]()~`>#+-=|{}.!"

// Escape backslash-escapes MarkdownV2 special characters.
func Escape(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(markdownV2Specials, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func format(s mirror.Summary) string {
	switch s.Kind {
	case mirror.SummaryCategories:
		return fmt.Sprintf("*%s categories refreshed*\n%d entries", s.Platform, s.CategoriesCount)
	case mirror.SummaryTags:
		return fmt.Sprintf("*%s tags refreshed*\n%d categories, %d loaders, %d game versions",
			s.Platform, s.CategoriesCount, s.LoadersCount, s.GameVersionsCount)
	case mirror.SummaryStatistics:
		return formatStatistics(s)
	default:
		return formatProjects(s)
	}
}

func formatStatistics(s mirror.Summary) string {
	var sb strings.Builder
	sb.WriteString("*Mirror statistics*\n")
	for _, name := range sortedKeys(s.Counts) {
		fmt.Fprintf(&sb, "%s: %d\n", Escape(name), s.Counts[name])
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatProjects(s mirror.Summary) string {
	var title string
	switch s.Kind {
	case mirror.SummaryQueue:
		title = fmt.Sprintf("*%s queue drained*", s.Platform)
	case mirror.SummarySearch:
		title = fmt.Sprintf("*%s search discovery*", s.Platform)
	default:
		title = fmt.Sprintf("*%s refresh*", s.Platform)
	}
	head := fmt.Sprintf("%s\n%d synced, %d failed", title, len(s.Projects), s.FailedCount)
	if len(s.Projects) == 0 {
		return head
	}

	// Expandable blockquote keeps long project lists collapsed in chat.
	var list strings.Builder
	omitted := 0
	for i, p := range s.Projects {
		line := fmt.Sprintf(">%s \\(%s\\): %d versions\n", Escape(p.Name), Escape(p.ID), p.VersionCount)
		if list.Len()+len(line) > listBudget {
			omitted = len(s.Projects) - i
			break
		}
		list.WriteString(line)
	}
	msg := head + "\n**" + strings.TrimRight(list.String(), "\n") + "||"
	if omitted > 0 {
		msg += fmt.Sprintf("\nand %d more", omitted)
	}
	if len(msg) > maxMessageLen {
		msg = head
	}
	return msg
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
