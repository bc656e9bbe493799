// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand_Properties(t *testing.T) {
	cmd := NewRootCmd()

	if cmd.Use != "grove" {
		t.Errorf("Use = %q, want %q", cmd.Use, "grove")
	}
	if !strings.Contains(cmd.Short, "game") {
		t.Error("Short description should mention the game")
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	expected := []string{"serve", "migrate", "seed"}
	for _, name := range expected {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Missing subcommand %q", name)
		}
	}
}

func TestRootCommand_Help(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := buf.String()
	for _, phrase := range []string{"serve", "migrate", "seed", "--config"} {
		if !strings.Contains(output, phrase) {
			t.Errorf("Help missing phrase %q", phrase)
		}
	}
}
