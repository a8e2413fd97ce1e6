package db

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed sql/pre_automigrate.sql
var preAutoMigrateSQL string

//go:embed sql/post_automigrate.sql
var postAutoMigrateSQL string

// migrate creates the schema and enum, lets GORM shape the tables, then adds
// the indexes and constraints GORM tags cannot express.
func (p *Pool) migrate(ctx context.Context) error {
	if !p.ready() {
		return errPoolNotReady
	}

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{name: "pre-auto-migrate SQL", run: func(ctx context.Context) error { return p.execScript(ctx, preAutoMigrateSQL) }},
		{name: "auto-migrate models", run: func(ctx context.Context) error {
			return p.gdb.WithContext(ctx).AutoMigrate(autoMigrateModels()...)
		}},
		{name: "post-auto-migrate SQL", run: func(ctx context.Context) error { return p.execScript(ctx, postAutoMigrateSQL) }},
	}

	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

func (p *Pool) execScript(ctx context.Context, script string) error {
	trimmed := strings.TrimSpace(script)
	if trimmed == "" {
		return nil
	}
	return p.gdb.WithContext(ctx).Exec(trimmed).Error
}
