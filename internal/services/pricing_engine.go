package services

import (
	"errors"
	"fmt"
	"strings"

	domain "github.com/pearlpos/api/internal/domain"
)

var (
	// ErrPricingInvalidInput signals the caller provided invalid arguments.
	ErrPricingInvalidInput = errors.New("pricing: invalid input")
	// ErrUnknownIngredient indicates a removal that is not a base ingredient.
	ErrUnknownIngredient = errors.New("pricing: unknown base ingredient")
	// ErrUnknownExtra indicates an add-on that is not in the extras catalog.
	ErrUnknownExtra = errors.New("pricing: unknown extra")
)

// ExtraOption is one paid add-on in the extras catalog.
type ExtraOption struct {
	Name      string
	Surcharge domain.Money
}

// PricingEngineDeps configures the customization catalogs.
type PricingEngineDeps struct {
	// BaseIngredients are the default components a customer may remove at no
	// charge.
	BaseIngredients []string
	// Extras are the paid add-ons with their per-unit surcharge.
	Extras []ExtraOption
}

// PricingEngine prices one drink line from its base item and customizations.
// The unit price is the item's base price plus the surcharge of every extra;
// removals never change the price. Descriptions render customizations in
// catalog order regardless of how the register sent them.
type PricingEngine struct {
	baseOrder  []string
	base       map[string]string
	extraOrder []string
	surcharges map[string]ExtraOption
}

// NewPricingEngine validates the catalogs and builds the engine.
func NewPricingEngine(deps PricingEngineDeps) (*PricingEngine, error) {
	engine := &PricingEngine{
		base:       make(map[string]string, len(deps.BaseIngredients)),
		surcharges: make(map[string]ExtraOption, len(deps.Extras)),
	}

	for _, name := range deps.BaseIngredients {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: empty base ingredient name", ErrPricingInvalidInput)
		}
		key := strings.ToLower(trimmed)
		if _, exists := engine.base[key]; !exists {
			engine.baseOrder = append(engine.baseOrder, key)
		}
		engine.base[key] = trimmed
	}
	for _, extra := range deps.Extras {
		trimmed := strings.TrimSpace(extra.Name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: empty extra name", ErrPricingInvalidInput)
		}
		if extra.Surcharge < 0 {
			return nil, fmt.Errorf("%w: surcharge for %s is negative", ErrPricingInvalidInput, trimmed)
		}
		key := strings.ToLower(trimmed)
		if _, exists := engine.surcharges[key]; !exists {
			engine.extraOrder = append(engine.extraOrder, key)
		}
		engine.surcharges[key] = ExtraOption{Name: trimmed, Surcharge: extra.Surcharge}
	}
	return engine, nil
}

// PriceLine prices one drink with its customizations and renders the line
// description shown on receipts, e.g. "Milk Tea [-Ice +Pudding]".
func (e *PricingEngine) PriceLine(item domain.MenuItem, quantity int, removals, extras []string) (domain.OrderLine, error) {
	if e == nil {
		return domain.OrderLine{}, errors.New("pricing engine not initialised")
	}
	if quantity <= 0 {
		return domain.OrderLine{}, fmt.Errorf("%w: quantity must be positive", ErrPricingInvalidInput)
	}
	name := strings.TrimSpace(item.Name)
	if name == "" {
		return domain.OrderLine{}, fmt.Errorf("%w: item name is required", ErrPricingInvalidInput)
	}
	if item.BasePrice < 0 {
		return domain.OrderLine{}, fmt.Errorf("%w: base price is negative", ErrPricingInvalidInput)
	}

	// Selections are sets: duplicates collapse, and rendering follows the
	// catalog order, not the order the register sent them in.
	removed := make(map[string]struct{})
	for _, removal := range removals {
		key := strings.ToLower(strings.TrimSpace(removal))
		if key == "" {
			continue
		}
		if _, ok := e.base[key]; !ok {
			return domain.OrderLine{}, fmt.Errorf("%w: %s", ErrUnknownIngredient, strings.TrimSpace(removal))
		}
		removed[key] = struct{}{}
	}
	added := make(map[string]struct{})
	for _, extra := range extras {
		key := strings.ToLower(strings.TrimSpace(extra))
		if key == "" {
			continue
		}
		if _, ok := e.surcharges[key]; !ok {
			return domain.OrderLine{}, fmt.Errorf("%w: %s", ErrUnknownExtra, strings.TrimSpace(extra))
		}
		added[key] = struct{}{}
	}

	var parts []string
	for _, key := range e.baseOrder {
		if _, ok := removed[key]; ok {
			parts = append(parts, "-"+e.base[key])
		}
	}
	unitPrice := item.BasePrice
	for _, key := range e.extraOrder {
		if _, ok := added[key]; ok {
			option := e.surcharges[key]
			unitPrice = unitPrice.Add(option.Surcharge)
			parts = append(parts, "+"+option.Name)
		}
	}

	description := name
	if len(parts) > 0 {
		description = name + " [" + strings.Join(parts, " ") + "]"
	}

	return domain.OrderLine{
		MenuItemID:  item.ID,
		ItemName:    name,
		Description: description,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
	}, nil
}
