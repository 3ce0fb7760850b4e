// Package migrations embeds the schema scripts so the migrate command and
// tests apply identical DDL.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"
)

//go:embed *.sql
var scripts embed.FS

// Direction selects which half of each migration runs.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ScriptExecer runs a multi-statement SQL script.
type ScriptExecer interface {
	ExecScript(ctx context.Context, script string) error
}

// Files lists the scripts for a direction in the order they must run.
func Files(dir Direction) ([]string, error) {
	if dir != Up && dir != Down {
		return nil, fmt.Errorf("unknown migration direction %q", dir)
	}

	names, err := fs.Glob(scripts, "*."+string(dir)+".sql")
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	if dir == Down {
		slices.Reverse(names)
	}
	return names, nil
}

// Apply runs every script for dir and returns the names applied.
func Apply(ctx context.Context, db ScriptExecer, dir Direction) ([]string, error) {
	names, err := Files(dir)
	if err != nil {
		return nil, err
	}

	for _, name := range names {
		content, err := scripts.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			continue
		}
		if err := db.ExecScript(ctx, string(content)); err != nil {
			return nil, fmt.Errorf("migration %s failed: %w", name, err)
		}
	}
	return names, nil
}
