// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package command

import (
	"strings"

	"github.com/samber/oops"
)

// ParsedCommand represents a parsed command input.
type ParsedCommand struct {
	Name string // lowercased command name (first whitespace-delimited token)
	Args string // unparsed argument string (preserves internal whitespace)
	Raw  string // original input
}

// Parse splits raw input into command name and arguments. The command name
// is the first whitespace-delimited token, lowercased; arguments preserve
// internal whitespace.
func Parse(input string) (*ParsedCommand, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, oops.Code(CodeEmptyInput).Errorf("no command provided")
	}

	idx := strings.IndexAny(trimmed, " \t")
	if idx == -1 {
		return &ParsedCommand{
			Name: strings.ToLower(trimmed),
			Args: "",
			Raw:  input,
		}, nil
	}

	name := strings.ToLower(trimmed[:idx])
	args := strings.TrimLeft(trimmed[idx+1:], " \t")

	return &ParsedCommand{
		Name: name,
		Args: args,
		Raw:  input,
	}, nil
}
