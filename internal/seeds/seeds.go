// Package seeds loads the bootstrap data: the primary intake form, starter
// classifications with their follow-up forms, and asset types. The default
// set is embedded; SEEDS_PATH overrides it with a file on disk.
package seeds

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
	"github.com/Amsterdam/meldingen-sub000/internal/schema"
	"github.com/Amsterdam/meldingen-sub000/internal/services"
)

//go:embed seeds.yaml
var embedded []byte

type Component struct {
	Key         string             `yaml:"key"`
	Type        string             `yaml:"type"`
	Label       string             `yaml:"label"`
	Description string             `yaml:"description"`
	Required    bool               `yaml:"required"`
	Validate    string             `yaml:"validate"`
	Options     []schema.Option    `yaml:"options"`
	Data        *schema.SelectData `yaml:"data"`
	Components  []Component        `yaml:"components"`
}

type Form struct {
	Title      string      `yaml:"title"`
	Components []Component `yaml:"components"`
}

type Classification struct {
	Name      string `yaml:"name"`
	AssetType string `yaml:"asset_type"`
	Form      *Form  `yaml:"form"`
}

type AssetType struct {
	Name      string `yaml:"name"`
	MaxAssets int    `yaml:"max_assets"`
}

type Seeds struct {
	PrimaryForm     *Form            `yaml:"primary_form"`
	AssetTypes      []AssetType      `yaml:"asset_types"`
	Classifications []Classification `yaml:"classifications"`
}

// Load parses the seed set, from SEEDS_PATH when set.
func Load() (*Seeds, error) {
	raw := embedded
	if path := os.Getenv("SEEDS_PATH"); path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seeds: %w", err)
		}
	}
	var out Seeds
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse seeds: %w", err)
	}
	return &out, nil
}

func componentInputs(in []Component) ([]schema.ComponentInput, error) {
	out := make([]schema.ComponentInput, 0, len(in))
	for _, c := range in {
		ci := schema.ComponentInput{
			Key:         c.Key,
			Type:        c.Type,
			Label:       c.Label,
			Description: c.Description,
			Required:    c.Required,
			Options:     c.Options,
			Data:        c.Data,
		}
		if c.Validate != "" {
			if !json.Valid([]byte(c.Validate)) {
				return nil, fmt.Errorf("component %q: validate is not valid JSON", c.Key)
			}
			ci.Validate = json.RawMessage(c.Validate)
		}
		children, err := componentInputs(c.Components)
		if err != nil {
			return nil, err
		}
		ci.Components = children
		out = append(out, ci)
	}
	return out, nil
}

// Apply idempotently installs the seed set: asset types and classifications
// that already exist are left alone, forms are rebuilt to the seeded shape.
func Apply(
	ctx context.Context,
	log *logger.Logger,
	s *Seeds,
	formService services.FormService,
	clsService services.ClassificationService,
) error {
	assetTypeIDs := map[string]uuid.UUID{}
	existingTypes, err := clsService.ListAssetTypes(ctx)
	if err != nil {
		return err
	}
	for _, at := range existingTypes {
		assetTypeIDs[at.Name] = at.ID
	}
	for _, at := range s.AssetTypes {
		if _, ok := assetTypeIDs[at.Name]; ok {
			continue
		}
		created, err := clsService.CreateAssetType(ctx, at.Name, at.MaxAssets)
		if err != nil {
			return fmt.Errorf("asset type %q: %w", at.Name, err)
		}
		assetTypeIDs[at.Name] = created.ID
		log.Info("asset type seeded", "name", at.Name)
	}

	if s.PrimaryForm != nil {
		inputs, err := componentInputs(s.PrimaryForm.Components)
		if err != nil {
			return err
		}
		if _, err := formService.RebuildPrimary(ctx, s.PrimaryForm.Title, inputs); err != nil {
			return fmt.Errorf("primary form: %w", err)
		}
		log.Info("primary form seeded", "title", s.PrimaryForm.Title)
	}

	existing, err := clsService.List(ctx)
	if err != nil {
		return err
	}
	clsIDs := map[string]uuid.UUID{}
	for _, c := range existing {
		clsIDs[c.Name] = c.ID
	}
	for _, c := range s.Classifications {
		if _, ok := clsIDs[c.Name]; !ok {
			var assetTypeID *uuid.UUID
			if c.AssetType != "" {
				id, ok := assetTypeIDs[c.AssetType]
				if !ok {
					return fmt.Errorf("classification %q references unknown asset type %q", c.Name, c.AssetType)
				}
				assetTypeID = &id
			}
			created, err := clsService.Create(ctx, c.Name, assetTypeID)
			if err != nil {
				return fmt.Errorf("classification %q: %w", c.Name, err)
			}
			clsIDs[c.Name] = created.ID
			log.Info("classification seeded", "name", c.Name)
		}
		if c.Form != nil {
			inputs, err := componentInputs(c.Form.Components)
			if err != nil {
				return err
			}
			if _, err := formService.RebuildForClassification(ctx, clsIDs[c.Name], c.Form.Title, inputs); err != nil {
				return fmt.Errorf("form for %q: %w", c.Name, err)
			}
			log.Info("classification form seeded", "name", c.Name)
		}
	}
	return nil
}
