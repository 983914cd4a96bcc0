package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexString keeps a feed value as text whether the feed sent it as a JSON
// string or a JSON number. No coercion happens here; parsing is left to the
// mapper.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("flex string: %w", err)
	}
	*s = FlexString(n.String())
	return nil
}

func (s FlexString) String() string { return string(s) }

// Order is one record of the Lengow order feed.
type Order struct {
	Marketplace     string          `json:"marketplace"`
	OrderID         FlexString      `json:"order_id"`
	Status          OrderStatus     `json:"order_status"`
	PurchaseDate    string          `json:"order_purchase_date"`
	PurchaseTime    string          `json:"order_purchase_heure"`
	Currency        string          `json:"order_currency"`
	Shipping        FlexString      `json:"order_shipping"`
	DeliveryAddress DeliveryAddress `json:"delivery_address"`
	Cart            Cart            `json:"cart"`
}

type OrderStatus struct {
	Marketplace string `json:"marketplace"`
	Lengow      string `json:"lengow"`
}

// DeliveryAddress fields that the feed may send as numbers are FlexString.
type DeliveryAddress struct {
	FirstName   string     `json:"delivery_firstname"`
	LastName    string     `json:"delivery_lastname"`
	Line1       FlexString `json:"delivery_address"`
	Line2       FlexString `json:"delivery_address_2"`
	Complement  FlexString `json:"delivery_address_complement"`
	City        string     `json:"delivery_city"`
	Zipcode     FlexString `json:"delivery_zipcode"`
	CountryISO  string     `json:"delivery_country_iso"`
	PhoneMobile FlexString `json:"delivery_phone_mobile"`
	Email       string     `json:"delivery_email"`
}

type Cart struct {
	Products []Product `json:"products"`
}

type Product struct {
	SKU       FlexString `json:"sku"`
	Quantity  FlexString `json:"quantity"`
	PriceUnit FlexString `json:"price_unit"`
}

// CompositeID is the ledger key of the order: "{marketplace}_{order_id}".
func (o Order) CompositeID() string {
	return o.Marketplace + "_" + string(o.OrderID)
}

// RejectedOrder is a feed record that could not be decoded as an Order.
type RejectedOrder struct {
	Index int
	Raw   json.RawMessage
	Err   error
}

// FeedResponse is the top-level document returned by the order feed.
// Records that fail to decode land in Rejected instead of failing the feed.
type FeedResponse struct {
	Orders      []Order         `json:"orders"`
	OrdersCount int             `json:"orders_count"`
	Rejected    []RejectedOrder `json:"-"`
}
