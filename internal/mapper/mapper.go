// Package mapper turns Lengow feed orders into MWS fulfillment requests.
package mapper

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/RaikyD/lengow-mws-connector/internal/domain"
)

const (
	statusProcessing = "processing"

	// MWS rejects seller fulfillment order ids longer than this.
	maxOrderIDLen = 40
)

type Policy struct {
	DisallowedMarketplaces []string
	Comment                string
}

type Mapper struct {
	disallowed map[string]struct{}
	comment    string
}

func New(p Policy) *Mapper {
	m := &Mapper{
		disallowed: make(map[string]struct{}, len(p.DisallowedMarketplaces)),
		comment:    p.Comment,
	}
	for _, mp := range p.DisallowedMarketplaces {
		m.disallowed[strings.ToLower(mp)] = struct{}{}
	}
	return m
}

// BuildPreviewRequest builds a GetFulfillmentPreview request for the order.
func (m *Mapper) BuildPreviewRequest(o domain.Order) (domain.PreviewRequest, error) {
	items, err := previewItems(o)
	if err != nil {
		return domain.PreviewRequest{}, err
	}
	return domain.PreviewRequest{
		Address: buildAddress(o.DeliveryAddress),
		Items:   items,
	}, nil
}

// BuildCreateOrderRequest builds a CreateFulfillmentOrder request. ok is
// false, with a nil error, when the order must not be fulfilled: its
// marketplace is disallowed or Lengow does not report it as processing.
func (m *Mapper) BuildCreateOrderRequest(o domain.Order, orderID string) (req domain.CreateOrderRequest, ok bool, err error) {
	if m.Skips(o) {
		return domain.CreateOrderRequest{}, false, nil
	}
	if orderID == "" || len(orderID) > maxOrderIDLen {
		return domain.CreateOrderRequest{}, false,
			fmt.Errorf("%w: order id %q must be 1 to %d characters", domain.ErrMalformedOrder, orderID, maxOrderIDLen)
	}

	speed, err := shippingSpeed(o.Shipping)
	if err != nil {
		return domain.CreateOrderRequest{}, false, err
	}

	base, err := previewItems(o)
	if err != nil {
		return domain.CreateOrderRequest{}, false, err
	}
	items := make([]domain.OrderItem, 0, len(base))
	for i, it := range base {
		if _, err := parseDecimal("price_unit", o.Cart.Products[i].PriceUnit); err != nil {
			return domain.CreateOrderRequest{}, false, err
		}
		items = append(items, domain.OrderItem{
			PreviewItem: it,
			PerUnitDeclaredValue: domain.Money{
				Value:        strings.TrimSpace(o.Cart.Products[i].PriceUnit.String()),
				CurrencyCode: o.Currency,
			},
		})
	}

	return domain.CreateOrderRequest{
		SellerFulfillmentOrderID: orderID,
		DisplayableOrderID:       orderID,
		DisplayableOrderDateTime: o.PurchaseDate + "T" + o.PurchaseTime,
		DisplayableOrderComment:  m.comment,
		ShippingSpeedCategory:    speed,
		DestinationAddress:       buildAddress(o.DeliveryAddress),
		Items:                    items,
	}, true, nil
}

// Skips reports whether the business filter keeps the order out of
// fulfillment.
func (m *Mapper) Skips(o domain.Order) bool {
	if _, ok := m.disallowed[strings.ToLower(o.Marketplace)]; ok {
		return true
	}
	return o.Status.Lengow != statusProcessing
}

// BuildCancelRequest needs nothing but the seller order id.
func BuildCancelRequest(orderID string) domain.CancelRequest {
	return domain.CancelRequest{SellerFulfillmentOrderID: orderID}
}

// buildAddress title-cases the free-text lines. The zipcode doubles as state
// code since the feed has no state field, and City is dropped for Japanese
// destinations as MWS requires.
func buildAddress(a domain.DeliveryAddress) domain.Address {
	return domain.Address{
		Name:                titleCase(a.FirstName + " " + a.LastName),
		Line1:               titleCase(a.Line1.String()),
		Line2:               titleCase(a.Line2.String()),
		Line3:               titleCase(a.Complement.String()),
		City:                titleCase(a.City),
		OmitCity:            a.CountryISO == "JP",
		StateOrProvinceCode: a.Zipcode.String(),
		PostalCode:          a.Zipcode.String(),
		CountryCode:         a.CountryISO,
		PhoneNumber:         a.PhoneMobile.String(),
	}
}

func previewItems(o domain.Order) ([]domain.PreviewItem, error) {
	if len(o.Cart.Products) == 0 {
		return nil, fmt.Errorf("%w: order %s has no products", domain.ErrMalformedOrder, o.CompositeID())
	}
	items := make([]domain.PreviewItem, 0, len(o.Cart.Products))
	for _, p := range o.Cart.Products {
		qty, err := strconv.Atoi(strings.TrimSpace(p.Quantity.String()))
		if err != nil || qty <= 0 {
			return nil, fmt.Errorf("%w: quantity %q for sku %q", domain.ErrMalformedOrder, p.Quantity, p.SKU)
		}
		items = append(items, domain.PreviewItem{
			SellerSKU:                    p.SKU.String(),
			SellerFulfillmentOrderItemID: p.SKU.String(),
			Quantity:                     qty,
		})
	}
	return items, nil
}

func shippingSpeed(shipping domain.FlexString) (string, error) {
	d, err := parseDecimal("order_shipping", shipping)
	if err != nil {
		return "", err
	}
	if d.IsPositive() {
		return "Expedited", nil
	}
	return "Standard", nil
}

func parseDecimal(field string, v domain.FlexString) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v.String()))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s %q is not a number", domain.ErrMalformedOrder, field, v)
	}
	return d, nil
}

// titleCase upper-cases the first letter of every run of letters and
// lower-cases the rest. A letter following a digit or apostrophe starts a
// new run: "12b rue d'alesia" -> "12B Rue D'Alesia".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inWord := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if inWord {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToTitle(r))
			}
			inWord = true
			continue
		}
		inWord = false
		b.WriteRune(r)
	}
	return b.String()
}
