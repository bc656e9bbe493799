// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Token
	}{
		{
			name:    "plain text",
			content: "hello forest",
			want:    Token{Kind: KindNone},
		},
		{
			name:    "empty message",
			content: "",
			want:    Token{Kind: KindNone},
		},
		{
			name:    "whitespace only",
			content: "   \n",
			want:    Token{Kind: KindNone},
		},
		{
			name:    "leading evergreen",
			content: "🌲",
			want:    Token{Kind: KindUnicode, Literal: "🌲"},
		},
		{
			name:    "emoji with trailing text",
			content: "🌵 in the desert",
			want:    Token{Kind: KindUnicode, Literal: "🌵"},
		},
		{
			name:    "leading whitespace before emoji",
			content: "  🎍happy new year",
			want:    Token{Kind: KindUnicode, Literal: "🎍"},
		},
		{
			name:    "emoji with variation selector",
			content: "🌲️ planted",
			want:    Token{Kind: KindUnicode, Literal: "🌲️"},
		},
		{
			name:    "custom emoji",
			content: "<:bonsai:123456789012345678> look",
			want:    Token{Kind: KindCustom, Literal: "bonsai"},
		},
		{
			name:    "animated custom emoji",
			content: "<a:sway:123456789012345678>",
			want:    Token{Kind: KindCustom, Literal: "sway"},
		},
		{
			name:    "malformed custom emoji is text",
			content: "<:bonsai:> nope",
			want:    Token{Kind: KindNone},
		},
		{
			name:    "emoji mid-message does not trigger",
			content: "I like 🌲 trees",
			want:    Token{Kind: KindNone},
		},
		{
			name:    "shortcode text is not an emoji",
			content: ":evergreen_tree:",
			want:    Token{Kind: KindNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.content))
		})
	}
}
