package domain

import "time"

// Category is a product category offered on EcoMarket.
type Category string

// Known product categories.
const (
	CategoryFruits     Category = "frutas"
	CategoryVegetables Category = "verduras"
	CategoryDairy      Category = "lacteos"
	CategoryHoney      Category = "miel"
	CategoryPreserves  Category = "conservas"
)

// Categories lists every known category.
func Categories() []Category {
	return []Category{CategoryFruits, CategoryVegetables, CategoryDairy, CategoryHoney, CategoryPreserves}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}

	return false
}

// Product is an item sold by a producer.
// This is a domain entity - it has no knowledge of the upstream wire format.
type Product struct {
	ID          int
	Name        string
	Price       float64
	Category    Category
	Available   bool
	Description string
	ProducerID  int
	CreatedAt   time.Time
}

// ProductPatch carries a partial product update. Nil fields are left unchanged.
type ProductPatch struct {
	Name        *string
	Price       *float64
	Category    *Category
	Available   *bool
	Description *string
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Price == nil && p.Category == nil && p.Available == nil && p.Description == nil
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	Category Category
	// Order is an upstream sort key such as "precio" or "-precio".
	Order string
}

// Producer is a farm or artisan selling on EcoMarket.
type Producer struct {
	ID       int
	Name     string
	Location string
	Email    string
}

// ProducerDetail is a producer together with its catalog.
type ProducerDetail struct {
	Producer Producer
	Products []Product
}

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID int
	Quantity  int
}

// Order is a purchase placed against the catalog.
type Order struct {
	ID     int
	Items  []OrderItem
	Status string
	Total  float64
}
