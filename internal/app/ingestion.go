package app

import (
	"context"
	"errors"

	"pantry-planner/internal/recipe"

	"go.uber.org/zap"
)

// ImportFailure is a draft that could not be imported.
type ImportFailure struct {
	Source string
	Name   string
	Err    error
}

// ImportReport summarizes a bulk import.
type ImportReport struct {
	Imported   []recipe.Recipe
	Duplicates []*DuplicateError
	Failures   []ImportFailure
}

// Merge appends the entries of other to r.
func (r *ImportReport) Merge(other ImportReport) {
	r.Imported = append(r.Imported, other.Imported...)
	r.Duplicates = append(r.Duplicates, other.Duplicates...)
	r.Failures = append(r.Failures, other.Failures...)
}

// ImportDrafts adds extracted recipes one by one through AddRecipe, so each goes
// through the exact and, when enabled, the AI duplicate check. Cancellation is
// checked between recipes; the partial report is returned with ctx.Err().
func (a *App) ImportDrafts(ctx context.Context, source string, drafts []recipe.Draft) (ImportReport, error) {
	var report ImportReport
	for _, d := range drafts {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		r, err := a.AddRecipe(ctx, d, AddOptions{})
		var dup *DuplicateError
		switch {
		case errors.As(err, &dup):
			report.Duplicates = append(report.Duplicates, dup)
		case err != nil:
			report.Failures = append(report.Failures, ImportFailure{Source: source, Name: d.Name, Err: err})
		default:
			report.Imported = append(report.Imported, r)
		}
	}

	a.logger.Info("import finished",
		zap.String("source", source),
		zap.Int("imported", len(report.Imported)),
		zap.Int("duplicates", len(report.Duplicates)),
		zap.Int("failed", len(report.Failures)),
	)
	return report, nil
}
