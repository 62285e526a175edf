package inventory

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AnimalType identifies the source animal of a product.
type AnimalType string

const (
	AnimalCow     AnimalType = "Cow"
	AnimalGoat    AnimalType = "Goat"
	AnimalSheep   AnimalType = "Sheep"
	AnimalPig     AnimalType = "Pig"
	AnimalChicken AnimalType = "Chicken"
)

// AnimalTypes lists the accepted animal choices in form order.
var AnimalTypes = []AnimalType{AnimalCow, AnimalGoat, AnimalSheep, AnimalPig, AnimalChicken}

// MeatCut identifies the prepared cut of a product.
type MeatCut string

const (
	CutWhole    MeatCut = "Whole"
	CutBeef     MeatCut = "Beef"
	CutMutton   MeatCut = "Mutton"
	CutGoatMeat MeatCut = "Goat Meat"
	CutPork     MeatCut = "Pork"
	CutChicken  MeatCut = "Chicken"
)

// MeatCuts lists the accepted cut choices in form order.
var MeatCuts = []MeatCut{CutWhole, CutBeef, CutMutton, CutGoatMeat, CutPork, CutChicken}

// ValidAnimalType reports whether v is an accepted animal choice.
func ValidAnimalType(v AnimalType) bool {
	for _, a := range AnimalTypes {
		if a == v {
			return true
		}
	}
	return false
}

// ValidMeatCut reports whether v is an accepted cut choice.
func ValidMeatCut(v MeatCut) bool {
	for _, c := range MeatCuts {
		if c == v {
			return true
		}
	}
	return false
}

// Product is a sellable stock item. Prices are per kilogram.
type Product struct {
	ID           int64
	Code         string
	Animal       AnimalType
	Cut          MeatCut
	WeightKG     float64
	CostPrice    float64
	SellingPrice float64
	Stock        int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName renders the product name shown on documents,
// e.g. "Cow - Beef (12.5 kg)".
func (p Product) DisplayName() string {
	weight := strconv.FormatFloat(p.WeightKG, 'f', -1, 64)
	return fmt.Sprintf("%s - %s (%s kg)", p.Animal, p.Cut, weight)
}

// TotalCost is the cost of one pack at the per-kg cost price.
func (p Product) TotalCost() float64 {
	return p.WeightKG * p.CostPrice
}

// TotalSellingPrice is the sale value of one pack at the per-kg price.
func (p Product) TotalSellingPrice() float64 {
	return p.WeightKG * p.SellingPrice
}

// LabelFields carries exactly the values printed on a product label.
// Every field is explicit so the label template never reaches into the
// product for attributes that may not exist.
type LabelFields struct {
	Code         string
	Name         string
	Animal       string
	Cut          string
	WeightKG     float64
	SellingPrice float64
	PrintedAt    time.Time
}

// Label builds the printable label values for the product.
func (p Product) Label(now time.Time) LabelFields {
	return LabelFields{
		Code:         shortCode(p.Code),
		Name:         p.DisplayName(),
		Animal:       string(p.Animal),
		Cut:          string(p.Cut),
		WeightKG:     p.WeightKG,
		SellingPrice: p.SellingPrice,
		PrintedAt:    now,
	}
}

// shortCode trims a UUID code to its first block for label printing.
func shortCode(code string) string {
	if i := strings.IndexByte(code, '-'); i > 0 {
		return strings.ToUpper(code[:i])
	}
	return strings.ToUpper(code)
}

// ListRequest filters the product listing.
type ListRequest struct {
	Search   *string
	Animal   *AnimalType
	LowStock *int
	Limit    int
	Offset   int
}

// CreateInput carries validated fields for a new product.
type CreateInput struct {
	Animal       AnimalType
	Cut          MeatCut
	WeightKG     float64 `validate:"gt=0"`
	CostPrice    float64 `validate:"gte=0"`
	SellingPrice float64 `validate:"gte=0"`
	Stock        *int    `validate:"omitempty,gte=0"`
}

// UpdateInput carries optional field updates.
type UpdateInput struct {
	Animal       *AnimalType
	Cut          *MeatCut
	WeightKG     *float64 `validate:"omitempty,gt=0"`
	CostPrice    *float64 `validate:"omitempty,gte=0"`
	SellingPrice *float64 `validate:"omitempty,gte=0"`
	Stock        *int     `validate:"omitempty,gte=0"`
}
