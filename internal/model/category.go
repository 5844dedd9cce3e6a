package model

import (
	"fmt"
	"strings"
)

// Category is one of the fixed spending categories an item can be assigned to.
// The numeric value doubles as the row id in the seeded categories table.
type Category int

// The closed category vocabulary.
const (
	CategoryProteins Category = iota + 1
	CategoryGrainsPasta
	CategoryFruitsVegetables
	CategoryDairy
	CategoryBeverages
	CategoryHygieneCleaning
	CategoryFrozenProcessed
	CategoryHouseholdItems
)

// CategoryFallback receives items that fit nowhere else.
const CategoryFallback = CategoryHouseholdItems

var categoryNames = map[Category]string{
	CategoryProteins:         "Proteins",
	CategoryGrainsPasta:      "Grains & Pasta",
	CategoryFruitsVegetables: "Fruits & Vegetables",
	CategoryDairy:            "Dairy",
	CategoryBeverages:        "Beverages",
	CategoryHygieneCleaning:  "Hygiene & Cleaning",
	CategoryFrozenProcessed:  "Frozen & Processed",
	CategoryHouseholdItems:   "Household Items",
}

var categoryDescriptions = map[Category]string{
	CategoryProteins:         "Meat, fish, eggs and other protein sources",
	CategoryGrainsPasta:      "Rice, beans, flour, pasta, bread and cereals",
	CategoryFruitsVegetables: "Fresh produce",
	CategoryDairy:            "Milk, cheese, yogurt and butter",
	CategoryBeverages:        "Water, juice, soda, coffee and alcohol",
	CategoryHygieneCleaning:  "Personal hygiene and cleaning products",
	CategoryFrozenProcessed:  "Frozen food, snacks, sweets and packaged goods",
	CategoryHouseholdItems:   "Everything else bought for the home",
}

// categoryAliases maps the labels used on the original Portuguese receipts.
var categoryAliases = map[string]Category{
	"proteínas":                     CategoryProteins,
	"grãos e massas":                CategoryGrainsPasta,
	"frutas e verduras":             CategoryFruitsVegetables,
	"laticínios":                    CategoryDairy,
	"bebidas":                       CategoryBeverages,
	"higiene e limpeza":             CategoryHygieneCleaning,
	"congelados e industrializados": CategoryFrozenProcessed,
	"itens para a casa":             CategoryHouseholdItems,
}

// AllCategories returns the vocabulary in id order.
func AllCategories() []Category {
	return []Category{
		CategoryProteins,
		CategoryGrainsPasta,
		CategoryFruitsVegetables,
		CategoryDairy,
		CategoryBeverages,
		CategoryHygieneCleaning,
		CategoryFrozenProcessed,
		CategoryHouseholdItems,
	}
}

// CategoryNames returns the canonical names in id order.
func CategoryNames() []string {
	all := AllCategories()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = c.String()
	}
	return names
}

// ParseCategory resolves a category name. Matching ignores case and
// surrounding whitespace and accepts the Portuguese receipt labels.
func ParseCategory(name string) (Category, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return 0, false
	}
	for c, n := range categoryNames {
		if strings.ToLower(n) == key {
			return c, true
		}
	}
	if c, ok := categoryAliases[key]; ok {
		return c, true
	}
	return 0, false
}

// CategoryFromID converts a stored id back into a Category.
func CategoryFromID(id int) (Category, error) {
	c := Category(id)
	if !c.Valid() {
		return 0, fmt.Errorf("unknown category id %d", id)
	}
	return c, nil
}

// Valid reports whether c belongs to the vocabulary.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// ID returns the storage id.
func (c Category) ID() int {
	return int(c)
}

// Description returns a short human description.
func (c Category) Description() string {
	return categoryDescriptions[c]
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}
