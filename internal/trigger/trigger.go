// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

// Package trigger classifies message content that may start a plant action.
package trigger

import (
	"regexp"
	"strings"
)

// Kind discriminates the leading token of a message.
type Kind int

const (
	// KindNone means the message does not begin with an emoji.
	KindNone Kind = iota
	// KindUnicode is a plain unicode emoji.
	KindUnicode
	// KindCustom is a platform custom emoji of the form <:name:id> or
	// <a:name:id>.
	KindCustom
)

// Token is the classified leading emoji of a message.
type Token struct {
	Kind    Kind
	Literal string // the unicode emoji, or the custom emoji's name
}

// Variation Selector-16 forces emoji presentation; it travels with the
// base rune and must stay part of the literal for catalog lookup.
var unicodeRe = regexp.MustCompile(`^(\p{So}\x{FE0F}?)`)

var customRe = regexp.MustCompile(`^<a?:(\w+):\d{17,20}>`)

// Classify inspects the start of a message, after leading whitespace, and
// returns the emoji token that opens it. Messages that open with anything
// else classify as KindNone.
func Classify(content string) Token {
	s := strings.TrimLeft(content, " \t\n")
	if s == "" {
		return Token{Kind: KindNone}
	}

	if m := customRe.FindStringSubmatch(s); m != nil {
		return Token{Kind: KindCustom, Literal: m[1]}
	}
	if m := unicodeRe.FindStringSubmatch(s); m != nil {
		return Token{Kind: KindUnicode, Literal: m[1]}
	}
	return Token{Kind: KindNone}
}
