package domain

import (
	"fmt"
	"time"

	"pipeline_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleItem is one product line on a deal. ProductName, ProductDescription and
// UnitPrice are a snapshot of the catalog at the time the item was added.
type SaleItem struct {
	ID                 uuid.UUID       `json:"id"`
	SaleID             uuid.UUID       `json:"saleId"`
	ProductID          uuid.UUID       `json:"productId"`
	ProductName        string          `json:"productName"`
	ProductDescription string          `json:"productDescription"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
	Discount           decimal.Decimal `json:"discount"`
	Tax                decimal.Decimal `json:"tax"`
	LineTotal          decimal.Decimal `json:"lineTotal"`
}

// Product is the catalog view the calculator needs to add a line.
type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	UnitPrice   decimal.Decimal
}

// WarningNegativeTotal is reported when discounts push a line below zero.
const WarningNegativeTotal = "negative_total"

// Warning is a non-fatal calculator signal returned alongside a valid result.
type Warning struct {
	Code    string    `json:"code"`
	ItemID  uuid.UUID `json:"itemId"`
	Message string    `json:"message"`
}

// ComputeLineTotal returns unitPrice*quantity - discount + tax clamped at
// zero, and whether clamping happened.
func ComputeLineTotal(unitPrice decimal.Decimal, quantity int, discount, tax decimal.Decimal) (decimal.Decimal, bool) {
	raw := unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Sub(discount).Add(tax)
	if raw.IsNegative() {
		return decimal.Zero, true
	}
	return raw.Round(2), false
}

// TotalValue sums the line totals.
func TotalValue(items []SaleItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal)
	}
	return total
}

func recalc(item SaleItem) (SaleItem, *Warning) {
	total, clamped := ComputeLineTotal(item.UnitPrice, item.Quantity, item.Discount, item.Tax)
	item.LineTotal = total
	if !clamped {
		return item, nil
	}
	return item, &Warning{
		Code:    WarningNegativeTotal,
		ItemID:  item.ID,
		Message: fmt.Sprintf("discount exceeds the line amount for %s; line total set to 0", item.ProductName),
	}
}

// UpdateQuantity sets the quantity of an item.
func UpdateQuantity(item SaleItem, quantity int) (SaleItem, *Warning, error) {
	if quantity <= 0 {
		return item, nil, apperr.Validation(fmt.Sprintf("quantity must be greater than 0, got %d", quantity))
	}
	item.Quantity = quantity
	updated, warning := recalc(item)
	return updated, warning, nil
}

// UpdateDiscount sets the discount of an item. A discount larger than the line
// amount is accepted; the line total is clamped to 0 and a warning returned.
func UpdateDiscount(item SaleItem, discount decimal.Decimal) (SaleItem, *Warning, error) {
	if discount.IsNegative() {
		return item, nil, apperr.Validation("discount cannot be negative")
	}
	item.Discount = discount.Round(2)
	updated, warning := recalc(item)
	return updated, warning, nil
}

// UpdateTax sets the tax amount of an item.
func UpdateTax(item SaleItem, tax decimal.Decimal) (SaleItem, *Warning, error) {
	if tax.IsNegative() {
		return item, nil, apperr.Validation("tax cannot be negative")
	}
	item.Tax = tax.Round(2)
	updated, warning := recalc(item)
	return updated, warning, nil
}

// AddItem appends a line for product with quantity 1 and no discount or tax.
// A product can appear on a deal only once.
func AddItem(deal Deal, product Product, now time.Time) (Deal, error) {
	if deal.IsTerminal() {
		return deal, apperr.InvalidTransition("items of a closed deal cannot change")
	}
	if product.UnitPrice.IsNegative() {
		return deal, apperr.Validation("product unit price cannot be negative")
	}
	for _, existing := range deal.Items {
		if existing.ProductID == product.ID {
			return deal, apperr.Duplicate(fmt.Sprintf("product %s is already on this deal", product.Name)).
				WithDetails(map[string]string{"productId": product.ID.String(), "itemId": existing.ID.String()})
		}
	}

	item := SaleItem{
		ID:                 uuid.New(),
		SaleID:             deal.ID,
		ProductID:          product.ID,
		ProductName:        product.Name,
		ProductDescription: product.Description,
		Quantity:           1,
		UnitPrice:          product.UnitPrice.Round(2),
		Discount:           decimal.Zero,
		Tax:                decimal.Zero,
		LineTotal:          product.UnitPrice.Round(2),
	}

	items := make([]SaleItem, len(deal.Items), len(deal.Items)+1)
	copy(items, deal.Items)
	deal.Items = append(items, item)
	return syncValue(deal, now), nil
}

// ItemChange is a partial update of one line. Nil fields are left alone.
type ItemChange struct {
	Quantity *int
	Discount *decimal.Decimal
	Tax      *decimal.Decimal
}

// UpdateItem applies change to the item with itemID and resyncs the deal value.
func UpdateItem(deal Deal, itemID uuid.UUID, change ItemChange, now time.Time) (Deal, []Warning, error) {
	if deal.IsTerminal() {
		return deal, nil, apperr.InvalidTransition("items of a closed deal cannot change")
	}
	idx := indexOfItem(deal.Items, itemID)
	if idx < 0 {
		return deal, nil, apperr.NotFound("deal item not found")
	}

	item := deal.Items[idx]
	var warning *Warning
	var err error
	if change.Quantity != nil {
		if item, warning, err = UpdateQuantity(item, *change.Quantity); err != nil {
			return deal, nil, err
		}
	}
	if change.Discount != nil {
		if item, warning, err = UpdateDiscount(item, *change.Discount); err != nil {
			return deal, nil, err
		}
	}
	if change.Tax != nil {
		if item, warning, err = UpdateTax(item, *change.Tax); err != nil {
			return deal, nil, err
		}
	}

	items := make([]SaleItem, len(deal.Items))
	copy(items, deal.Items)
	items[idx] = item
	deal.Items = items

	var warnings []Warning
	if warning != nil {
		warnings = append(warnings, *warning)
	}
	return syncValue(deal, now), warnings, nil
}

// RemoveItem drops a line. Removing the last line keeps the current value,
// which becomes manually editable again.
func RemoveItem(deal Deal, itemID uuid.UUID, now time.Time) (Deal, error) {
	if deal.IsTerminal() {
		return deal, apperr.InvalidTransition("items of a closed deal cannot change")
	}
	idx := indexOfItem(deal.Items, itemID)
	if idx < 0 {
		return deal, apperr.NotFound("deal item not found")
	}

	items := make([]SaleItem, 0, len(deal.Items)-1)
	items = append(items, deal.Items[:idx]...)
	items = append(items, deal.Items[idx+1:]...)
	deal.Items = items
	return syncValue(deal, now), nil
}

// FindItem returns the item with itemID.
func FindItem(deal Deal, itemID uuid.UUID) (SaleItem, bool) {
	idx := indexOfItem(deal.Items, itemID)
	if idx < 0 {
		return SaleItem{}, false
	}
	return deal.Items[idx], true
}

func indexOfItem(items []SaleItem, id uuid.UUID) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func syncValue(deal Deal, now time.Time) Deal {
	if deal.HasItems() {
		deal.Value = TotalValue(deal.Items)
	}
	deal.UpdatedAt = now
	return deal
}
