package shopsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mkrupp/nextshop/internal/domain"
	"github.com/mkrupp/nextshop/internal/infra/logging"
)

// catalogSeed is the JSON shape of a catalog fixture file.
type catalogSeed struct {
	Categories []domain.Category `json:"categories"`
	Products   []domain.Product  `json:"products"`
}

// SeedCatalog loads the configured fixture file into the catalog. A missing
// fixture file is not an error; the catalog keeps its current contents.
func (s *ShopService) SeedCatalog(ctx context.Context) error {
	if s.Config.SeedFile == "" {
		return nil
	}

	data, err := os.ReadFile(s.Config.SeedFile)
	if err != nil {
		if os.IsNotExist(err) {
			s.Log.DebugContext(ctx, "no catalog seed file",
				logging.Group("seed", "path", s.Config.SeedFile),
			)

			return nil
		}

		return fmt.Errorf("read seed file: %w", err)
	}

	var seed catalogSeed
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("unmarshal seed file: %w", err)
	}

	if err := s.CatalogRepo.Seed(ctx, seed.Categories, seed.Products); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	return nil
}
