package pipeline

import (
	"errors"
	"fmt"

	"github.com/dgallion1/clausegest/internal/catalog"
	"github.com/dgallion1/clausegest/internal/config"
	"github.com/dgallion1/clausegest/internal/imagestore"
	"github.com/dgallion1/clausegest/internal/search"
	"github.com/dgallion1/clausegest/internal/validate"
)

// Open builds the shared stores named by cfg. Close releases them.
func Open(cfg config.Config) (Deps, error) {
	deps := Deps{
		Images: imagestore.NewFS(cfg.OutputDir),
		Stats:  NewStageStats(cfg.StatsAge),
		Paths:  PathsFrom(cfg),
	}
	if cfg.ValidateSchema {
		v, err := validate.New()
		if err != nil {
			return deps, fmt.Errorf("load document schema: %w", err)
		}
		deps.Validator = v
	}

	cat, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return deps, err
	}
	deps.Catalog = cat

	idx, err := search.Open(cfg.IndexDir)
	if err != nil {
		cat.Close()
		return deps, err
	}
	deps.Index = idx
	return deps, nil
}

// Close releases the catalog and the index.
func (d Deps) Close() error {
	var errs []error
	if d.Index != nil {
		errs = append(errs, d.Index.Close())
	}
	if d.Catalog != nil {
		errs = append(errs, d.Catalog.Close())
	}
	return errors.Join(errs...)
}
