package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the narrow catalog projection the transaction core consumes.
// Catalog management itself lives outside this module.
type Product struct {
	ID             uuid.UUID
	Name           string
	Slug           string
	ImageURL       string
	BasePrice      Money
	CompareAtPrice decimal.NullDecimal
	Stock          int
	TrackInventory bool
	AllowBackorder bool
	HasVariants    bool
	CategoryIDs    []uuid.UUID
}

type Variant struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	SKU       string
	Price     Money
	Options   []VariantOption
	Stock     int
}

// UnitRef addresses a sellable unit: a product, or one of its variants when
// VariantID is set. Stock and price are tracked at this granularity.
type UnitRef struct {
	ProductID uuid.UUID
	VariantID uuid.NullUUID
}

func ProductRef(productID uuid.UUID) UnitRef {
	return UnitRef{ProductID: productID}
}

func VariantRef(productID, variantID uuid.UUID) UnitRef {
	return UnitRef{
		ProductID: productID,
		VariantID: uuid.NullUUID{UUID: variantID, Valid: true},
	}
}

func (r UnitRef) IsVariant() bool {
	return r.VariantID.Valid
}
