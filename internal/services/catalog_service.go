package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	domain "github.com/pearlpos/api/internal/domain"
	"github.com/pearlpos/api/internal/repositories"
)

var (
	// ErrMenuItemNotFound indicates the catalog item does not exist.
	ErrMenuItemNotFound = errors.New("catalog: menu item not found")
	// ErrCatalogInvalidInput signals the caller provided invalid arguments.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCatalogUnavailable indicates the backing store is unreachable.
	ErrCatalogUnavailable = errors.New("catalog: store unavailable")
)

// CatalogServiceDeps bundles the collaborators for the catalog service.
type CatalogServiceDeps struct {
	Menu    repositories.MenuRepository
	Recipes repositories.RecipeRepository
	Images  MenuImageStore
	Clock   func() time.Time
	Logger  func(ctx context.Context, event string, fields map[string]any)
}

type catalogService struct {
	menu     repositories.MenuRepository
	recipes  repositories.RecipeRepository
	images   MenuImageStore
	sanitize *bluemonday.Policy
	clock    func() time.Time
	logger   func(context.Context, string, map[string]any)
}

// NewCatalogService wires dependencies into a CatalogService.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Menu == nil {
		return nil, errors.New("catalog service: menu repository is required")
	}
	if deps.Recipes == nil {
		return nil, errors.New("catalog service: recipe repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &catalogService{
		menu:     deps.Menu,
		recipes:  deps.Recipes,
		images:   deps.Images,
		sanitize: bluemonday.StrictPolicy(),
		clock:    func() time.Time { return clock().UTC() },
		logger:   logger,
	}, nil
}

func (s *catalogService) ListMenu(ctx context.Context) ([]MenuItemView, error) {
	items, err := s.menu.List(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}
	return s.toViews(ctx, items, false), nil
}

func (s *catalogService) ListAvailable(ctx context.Context) ([]MenuItemView, error) {
	items, err := s.menu.List(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}
	return s.toViews(ctx, items, true), nil
}

func (s *catalogService) GetItem(ctx context.Context, id int) (MenuItemView, error) {
	if id <= 0 {
		return MenuItemView{}, fmt.Errorf("%w: item id is required", ErrCatalogInvalidInput)
	}
	item, err := s.menu.FindByID(ctx, id)
	if err != nil {
		return MenuItemView{}, s.mapError(err)
	}
	return s.toView(ctx, item), nil
}

func (s *catalogService) CreateItem(ctx context.Context, cmd MenuItemCommand) (MenuItemView, error) {
	item, err := s.buildItem(cmd)
	if err != nil {
		return MenuItemView{}, err
	}
	now := s.clock()
	item.CreatedAt = now
	item.UpdatedAt = now

	created, err := s.menu.Insert(ctx, item)
	if err != nil {
		return MenuItemView{}, s.mapError(err)
	}

	if len(cmd.Recipe) > 0 {
		if err := s.recipes.ReplaceForMenuItem(ctx, created.ID, recipeLines(created.ID, cmd.Recipe)); err != nil {
			return MenuItemView{}, s.mapError(err)
		}
	}

	s.logger(ctx, "catalog.item_created", map[string]any{"item_id": created.ID, "name": created.Name})
	return s.toView(ctx, created), nil
}

func (s *catalogService) UpdateItem(ctx context.Context, id int, cmd MenuItemCommand) (MenuItemView, error) {
	if id <= 0 {
		return MenuItemView{}, fmt.Errorf("%w: item id is required", ErrCatalogInvalidInput)
	}
	item, err := s.buildItem(cmd)
	if err != nil {
		return MenuItemView{}, err
	}

	existing, err := s.menu.FindByID(ctx, id)
	if err != nil {
		return MenuItemView{}, s.mapError(err)
	}
	item.ID = id
	item.ImageID = existing.ImageID
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = s.clock()

	updated, err := s.menu.Update(ctx, item)
	if err != nil {
		return MenuItemView{}, s.mapError(err)
	}

	if cmd.Recipe != nil {
		if err := s.recipes.ReplaceForMenuItem(ctx, id, recipeLines(id, cmd.Recipe)); err != nil {
			return MenuItemView{}, s.mapError(err)
		}
	}
	return s.toView(ctx, updated), nil
}

func (s *catalogService) DeleteItem(ctx context.Context, id int) error {
	if id <= 0 {
		return fmt.Errorf("%w: item id is required", ErrCatalogInvalidInput)
	}
	if _, err := s.menu.FindByID(ctx, id); err != nil {
		return s.mapError(err)
	}
	if err := s.menu.Delete(ctx, id); err != nil {
		return s.mapError(err)
	}
	if err := s.recipes.DeleteForMenuItem(ctx, id); err != nil && !repositories.IsNotFound(err) {
		return s.mapError(err)
	}
	s.logger(ctx, "catalog.item_deleted", map[string]any{"item_id": id})
	return nil
}

func (s *catalogService) ImageUploadURL(ctx context.Context, id int, contentType string) (ImageUploadView, error) {
	if s.images == nil {
		return ImageUploadView{}, errors.New("catalog service: image store not configured")
	}
	item, err := s.menu.FindByID(ctx, id)
	if err != nil {
		return ImageUploadView{}, s.mapError(err)
	}

	signed, err := s.images.UploadURL(ctx, imageObjectName(item.ID), contentType)
	if err != nil {
		return ImageUploadView{}, fmt.Errorf("%w: %v", ErrCatalogInvalidInput, err)
	}

	// The image object is keyed by item ID, so the first upload also pins the
	// item's image reference.
	if item.ImageID != item.ID {
		item.ImageID = item.ID
		item.UpdatedAt = s.clock()
		if _, err := s.menu.Update(ctx, item); err != nil {
			return ImageUploadView{}, s.mapError(err)
		}
	}

	return ImageUploadView{
		URL:       signed.URL,
		Method:    signed.Method,
		ExpiresAt: signed.ExpiresAt,
		Headers:   signed.Headers,
	}, nil
}

func (s *catalogService) buildItem(cmd MenuItemCommand) (domain.MenuItem, error) {
	name := strings.TrimSpace(s.sanitize.Sanitize(cmd.Name))
	if name == "" {
		return domain.MenuItem{}, fmt.Errorf("%w: name is required", ErrCatalogInvalidInput)
	}
	if !domain.ValidCategory(cmd.Category) {
		return domain.MenuItem{}, fmt.Errorf("%w: unknown category %q", ErrCatalogInvalidInput, cmd.Category)
	}
	if cmd.BasePrice <= 0 {
		return domain.MenuItem{}, fmt.Errorf("%w: base price must be positive", ErrCatalogInvalidInput)
	}
	if cmd.Season != nil {
		if !cmd.Season.Start.Valid() || !cmd.Season.End.Valid() {
			return domain.MenuItem{}, fmt.Errorf("%w: season window out of calendar bounds", ErrCatalogInvalidInput)
		}
	}
	for _, line := range cmd.Recipe {
		if line.InventoryID <= 0 || line.QuantityUsed <= 0 {
			return domain.MenuItem{}, fmt.Errorf("%w: recipe lines need an ingredient and a positive quantity", ErrCatalogInvalidInput)
		}
	}

	return domain.MenuItem{
		Name:        name,
		Category:    cmd.Category,
		BasePrice:   cmd.BasePrice,
		Description: strings.TrimSpace(s.sanitize.Sanitize(cmd.Description)),
		Season:      cmd.Season,
	}, nil
}

func (s *catalogService) toViews(ctx context.Context, items []domain.MenuItem, onlyAvailable bool) []MenuItemView {
	today := domain.MonthDayOf(s.clock())
	views := make([]MenuItemView, 0, len(items))
	for _, item := range items {
		available := domain.InSeason(item.Season, today)
		if onlyAvailable && !available {
			continue
		}
		views = append(views, MenuItemView{
			MenuItem:  item,
			Available: available,
			ImageURL:  s.imageURL(ctx, item),
		})
	}
	return views
}

func (s *catalogService) toView(ctx context.Context, item domain.MenuItem) MenuItemView {
	return MenuItemView{
		MenuItem:  item,
		Available: domain.InSeason(item.Season, domain.MonthDayOf(s.clock())),
		ImageURL:  s.imageURL(ctx, item),
	}
}

func (s *catalogService) imageURL(ctx context.Context, item domain.MenuItem) string {
	if s.images == nil {
		return ""
	}
	object := ""
	if item.ImageID > 0 {
		object = imageObjectName(item.ImageID)
	}
	signed, err := s.images.DownloadURL(ctx, object)
	if err != nil {
		s.logger(ctx, "catalog.image_url_failed", map[string]any{"item_id": item.ID, "error": err.Error()})
		return ""
	}
	return signed.URL
}

func (s *catalogService) mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case repositories.IsNotFound(err):
		return ErrMenuItemNotFound
	case repositories.IsUnavailable(err):
		return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	default:
		return err
	}
}

func imageObjectName(imageID int) string {
	return strconv.Itoa(imageID) + ".png"
}

func recipeLines(menuItemID int, inputs []RecipeLineInput) []domain.RecipeLine {
	lines := make([]domain.RecipeLine, len(inputs))
	for i, input := range inputs {
		lines[i] = domain.RecipeLine{
			MenuItemID:   menuItemID,
			InventoryID:  input.InventoryID,
			QuantityUsed: input.QuantityUsed,
		}
	}
	return lines
}
