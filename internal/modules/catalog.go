// Package modules assembles the built-in analysis modules into a catalog of
// pipeline templates.
package modules

import (
	"log/slog"

	"github.com/nao1215/fileingest/internal/blackboard"
	"github.com/nao1215/fileingest/internal/config"
	"github.com/nao1215/fileingest/internal/modules/emailaddr"
	"github.com/nao1215/fileingest/internal/modules/exifmeta"
	"github.com/nao1215/fileingest/internal/modules/hashlookup"
	"github.com/nao1215/fileingest/internal/modules/searchquery"
	"github.com/nao1215/fileingest/internal/modules/secretkey"
	"github.com/nao1215/fileingest/internal/pipeline"
)

// Deps holds the collaborators shared by the modules of one job.
type Deps struct {
	// Blackboard receives posted artifacts.
	Blackboard blackboard.Blackboard

	// Hashes stores computed file hashes. Nil skips storing them.
	Hashes hashlookup.HashStore

	// Logger is the base logger of the modules.
	Logger *slog.Logger
}

// Names returns the display names of the built-in modules in catalog order.
func Names() []string {
	return []string{
		hashlookup.Name,
		exifmeta.Name,
		searchquery.Name,
		emailaddr.Name,
		secretkey.Name,
	}
}

// Catalog returns one template per built-in module in catalog order.
// Modules disabled in cfg get templates that produce no module.
func Catalog(cfg *config.Config, deps Deps) []pipeline.ModuleTemplate {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	settings := cfg.Settings
	if settings == nil {
		settings = config.NewSettings()
	}
	maxSize := cfg.EffectiveMaxFileSize()

	setName := settings.HashLookup.SetName
	if setName == "" {
		setName = config.DefaultHashSetName
	}

	return []pipeline.ModuleTemplate{
		hashlookup.NewTemplate(hashlookup.Options{
			Blackboard:   deps.Blackboard,
			Store:        deps.Hashes,
			Logger:       deps.Logger,
			SetName:      setName,
			KnownBad:     settings.HashLookup.KnownBad,
			HashSetFiles: settings.HashLookup.HashSetFiles,
			Disabled:     cfg.IsDisabled(hashlookup.Name),
		}),
		exifmeta.NewTemplate(exifmeta.Options{
			Blackboard:  deps.Blackboard,
			Logger:      deps.Logger,
			MaxFileSize: maxSize,
			Disabled:    cfg.IsDisabled(exifmeta.Name),
		}),
		searchquery.NewTemplate(searchquery.Options{
			Blackboard:  deps.Blackboard,
			Logger:      deps.Logger,
			RulesFile:   settings.SearchQuery.RulesFile,
			MaxFileSize: maxSize,
			Disabled:    cfg.IsDisabled(searchquery.Name),
		}),
		emailaddr.NewTemplate(emailaddr.Options{
			Blackboard:    deps.Blackboard,
			Logger:        deps.Logger,
			MaxFileSize:   maxSize,
			FreeProviders: settings.Email.FreeProviders,
			IgnoreDomains: settings.Email.IgnoreDomains,
			Disabled:      cfg.IsDisabled(emailaddr.Name),
		}),
		secretkey.NewTemplate(secretkey.Options{
			Blackboard:  deps.Blackboard,
			Logger:      deps.Logger,
			MaxFileSize: maxSize,
			Disabled:    cfg.IsDisabled(secretkey.Name),
		}),
	}
}
