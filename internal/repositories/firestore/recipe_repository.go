package firestore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	domain "github.com/pearlpos/api/internal/domain"
	pfirestore "github.com/pearlpos/api/internal/platform/firestore"
	"github.com/pearlpos/api/internal/repositories"
)

const recipesCollection = "recipes"

// RecipeRepository stores, per menu item, the ingredient lines the drink
// consumes. One document per menu item keeps replacement atomic.
type RecipeRepository struct {
	provider *pfirestore.Provider
	recipes  *pfirestore.Collection[recipeDocument]
}

// NewRecipeRepository constructs a Firestore-backed RecipeRepository.
func NewRecipeRepository(provider *pfirestore.Provider) (*RecipeRepository, error) {
	if provider == nil {
		return nil, errors.New("recipe repository requires firestore provider")
	}
	return &RecipeRepository{
		provider: provider,
		recipes:  pfirestore.NewCollection[recipeDocument](provider, recipesCollection, nil),
	}, nil
}

// ListByMenuItem returns the ingredient lines for one menu item. A missing
// recipe is an empty slice, not an error.
func (r *RecipeRepository) ListByMenuItem(ctx context.Context, menuItemID int) ([]domain.RecipeLine, error) {
	if r == nil || r.recipes == nil {
		return nil, errors.New("recipe repository not initialised")
	}
	if menuItemID <= 0 {
		return nil, errors.New("recipe list: menu item id is required")
	}

	doc, err := r.recipes.Get(ctx, strconv.Itoa(menuItemID))
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return doc.Data.toDomain(menuItemID), nil
}

// ListAll returns every recipe line across the catalog.
func (r *RecipeRepository) ListAll(ctx context.Context) ([]domain.RecipeLine, error) {
	if r == nil || r.recipes == nil {
		return nil, errors.New("recipe repository not initialised")
	}
	docs, err := r.recipes.Query(ctx, nil)
	if err != nil {
		return nil, err
	}

	var lines []domain.RecipeLine
	for _, doc := range docs {
		menuItemID, err := strconv.Atoi(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("recipe document %s has non-numeric id", doc.ID)
		}
		lines = append(lines, doc.Data.toDomain(menuItemID)...)
	}
	return lines, nil
}

// ReplaceForMenuItem swaps the complete ingredient list for the menu item.
func (r *RecipeRepository) ReplaceForMenuItem(ctx context.Context, menuItemID int, lines []domain.RecipeLine) error {
	if r == nil || r.recipes == nil {
		return errors.New("recipe repository not initialised")
	}
	if menuItemID <= 0 {
		return errors.New("recipe replace: menu item id is required")
	}

	doc := recipeDocument{Lines: make([]recipeLineDocument, 0, len(lines))}
	for _, line := range lines {
		if line.InventoryID <= 0 {
			return fmt.Errorf("recipe replace: invalid inventory id %d", line.InventoryID)
		}
		if line.QuantityUsed <= 0 {
			return fmt.Errorf("recipe replace: quantity for ingredient %d must be positive", line.InventoryID)
		}
		doc.Lines = append(doc.Lines, recipeLineDocument{
			InventoryID:  line.InventoryID,
			QuantityUsed: line.QuantityUsed,
		})
	}

	_, err := r.recipes.Set(ctx, strconv.Itoa(menuItemID), doc)
	return err
}

// DeleteForMenuItem removes the recipe document for the menu item.
func (r *RecipeRepository) DeleteForMenuItem(ctx context.Context, menuItemID int) error {
	if r == nil || r.recipes == nil {
		return errors.New("recipe repository not initialised")
	}
	if menuItemID <= 0 {
		return errors.New("recipe delete: menu item id is required")
	}
	return r.recipes.Delete(ctx, strconv.Itoa(menuItemID))
}

type recipeDocument struct {
	Lines []recipeLineDocument `firestore:"lines"`
}

type recipeLineDocument struct {
	InventoryID  int     `firestore:"inventoryId"`
	QuantityUsed float64 `firestore:"quantityUsed"`
}

func (d recipeDocument) toDomain(menuItemID int) []domain.RecipeLine {
	lines := make([]domain.RecipeLine, len(d.Lines))
	for i, line := range d.Lines {
		lines[i] = domain.RecipeLine{
			MenuItemID:   menuItemID,
			InventoryID:  line.InventoryID,
			QuantityUsed: line.QuantityUsed,
		}
	}
	return lines
}
