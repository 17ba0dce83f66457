// Copyright 2025 The MCIM Authors
// SPDX-License-Identifier: Apache-2.0

package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/mcmod-info-mirror/mcim-sync/internal/httpx/httpxtest"
	"github.com/mcmod-info-mirror/mcim-sync/pkg/mirror"
)

func TestEscape(t *testing.T) {
	for _, tc := range []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a_b*c", `a\_b\*c`},
		{"v1.2.3-beta", `v1\.2\.3\-beta`},
		{"[link](x)", `\[link\]\(x\)`},
	} {
		if got := Escape(tc.in); got != tc.want {
			t.Errorf("Escape(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func newBot(client *httpxtest.MockClient) *Bot {
	return &Bot{
		Client:  client,
		BaseURL: "https://api.telegram.org/bot",
		Token:   "t0k3n",
		ChatID:  "-100",
	}
}

func TestNotifyRefresh(t *testing.T) {
	client := &httpxtest.MockClient{
		Calls: []httpxtest.Call{{
			Method:   http.MethodPost,
			URL:      "https://api.telegram.org/bott0k3n/sendMessage",
			Response: &http.Response{StatusCode: 200, Body: httpxtest.Body(`{"ok":true,"result":{"message_id":42}}`)},
		}},
		URLValidator: httpxtest.NewURLValidator(t),
	}
	bot := newBot(client)
	err := bot.Notify(context.Background(), mirror.Summary{
		Kind:     mirror.SummaryRefresh,
		Platform: mirror.Curseforge,
		Projects: []mirror.ProjectDetail{{ID: "30001", Name: "Example", VersionCount: 3}},
	})
	if err != nil {
		t.Fatalf("Notify() returned error: %v", err)
	}
	if client.CallCount() != 1 {
		t.Errorf("sent %d requests, want 1", client.CallCount())
	}
}

func TestNotifyStatisticsPins(t *testing.T) {
	client := &httpxtest.MockClient{
		Calls: []httpxtest.Call{
			{
				Method:   http.MethodPost,
				URL:      "https://api.telegram.org/bott0k3n/sendMessage",
				Response: &http.Response{StatusCode: 200, Body: httpxtest.Body(`{"ok":true,"result":{"message_id":42}}`)},
			},
			{
				Method:   http.MethodPost,
				URL:      "https://api.telegram.org/bott0k3n/pinChatMessage",
				Response: &http.Response{StatusCode: 200, Body: httpxtest.Body(`{"ok":true,"result":{}}`)},
			},
		},
		URLValidator: httpxtest.NewURLValidator(t),
	}
	bot := newBot(client)
	err := bot.Notify(context.Background(), mirror.Summary{
		Kind:   mirror.SummaryStatistics,
		Counts: map[string]int64{"curseforge_mods": 120000, "modrinth_projects": 45000},
	})
	if err != nil {
		t.Fatalf("Notify() returned error: %v", err)
	}
	if client.CallCount() != 2 {
		t.Errorf("sent %d requests, want send + pin", client.CallCount())
	}
}

func TestFormatProjectsTruncates(t *testing.T) {
	var projects []mirror.ProjectDetail
	for i := 0; i < 500; i++ {
		projects = append(projects, mirror.ProjectDetail{
			ID:           fmt.Sprintf("3%04d", i),
			Name:         fmt.Sprintf("Some Fairly Long Project Name %d", i),
			VersionCount: i,
		})
	}
	msg := format(mirror.Summary{
		Kind:     mirror.SummaryQueue,
		Platform: mirror.Modrinth,
		Projects: projects,
	})
	if len(msg) > maxMessageLen {
		t.Errorf("message length = %d, exceeds %d", len(msg), maxMessageLen)
	}
	if !strings.Contains(msg, "more") {
		t.Error("truncated message must mention omitted entries")
	}
}

func TestFormatTags(t *testing.T) {
	msg := format(mirror.Summary{
		Kind:              mirror.SummaryTags,
		Platform:          mirror.Modrinth,
		CategoriesCount:   10,
		LoadersCount:      5,
		GameVersionsCount: 80,
	})
	if !strings.Contains(msg, "10 categories") || !strings.Contains(msg, "5 loaders") || !strings.Contains(msg, "80 game versions") {
		t.Errorf("format() = %q", msg)
	}
}
