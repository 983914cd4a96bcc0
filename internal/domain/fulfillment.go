package domain

// Fulfillment api actions.
const (
	ActionGetFulfillmentPreview  = "GetFulfillmentPreview"
	ActionCreateFulfillmentOrder = "CreateFulfillmentOrder"
	ActionCancelFulfillmentOrder = "CancelFulfillmentOrder"
)

// Address is the destination of a fulfillment order. City is dropped from
// the request tree when OmitCity is set (Japanese destinations).
type Address struct {
	Name                string
	Line1               string
	Line2               string
	Line3               string
	City                string
	OmitCity            bool
	StateOrProvinceCode string
	PostalCode          string
	CountryCode         string
	PhoneNumber         string
}

func (a Address) Tree() map[string]any {
	t := map[string]any{
		"Name":                a.Name,
		"Line1":               a.Line1,
		"Line2":               a.Line2,
		"Line3":               a.Line3,
		"StateOrProvinceCode": a.StateOrProvinceCode,
		"PostalCode":          a.PostalCode,
		"CountryCode":         a.CountryCode,
		"PhoneNumber":         a.PhoneNumber,
	}
	if !a.OmitCity {
		t["City"] = a.City
	}
	return t
}

type Money struct {
	Value        string
	CurrencyCode string
}

type PreviewItem struct {
	SellerSKU                    string
	SellerFulfillmentOrderItemID string
	Quantity                     int
}

func (i PreviewItem) Tree() map[string]any {
	return map[string]any{
		"SellerSKU":                    i.SellerSKU,
		"SellerFulfillmentOrderItemId": i.SellerFulfillmentOrderItemID,
		"Quantity":                     i.Quantity,
	}
}

type OrderItem struct {
	PreviewItem
	PerUnitDeclaredValue Money
}

func (i OrderItem) Tree() map[string]any {
	t := i.PreviewItem.Tree()
	t["PerUnitDeclaredValue"] = map[string]any{
		"Value":        i.PerUnitDeclaredValue.Value,
		"CurrencyCode": i.PerUnitDeclaredValue.CurrencyCode,
	}
	return t
}

// PreviewRequest is the body of GetFulfillmentPreview.
type PreviewRequest struct {
	Address Address
	Items   []PreviewItem
}

func (r PreviewRequest) Action() string { return ActionGetFulfillmentPreview }

func (r PreviewRequest) Tree() map[string]any {
	items := make([]any, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, it.Tree())
	}
	return map[string]any{
		"Address": r.Address.Tree(),
		"Items":   items,
	}
}

// CreateOrderRequest is the body of CreateFulfillmentOrder.
type CreateOrderRequest struct {
	SellerFulfillmentOrderID string
	DisplayableOrderID       string
	DisplayableOrderDateTime string
	DisplayableOrderComment  string
	ShippingSpeedCategory    string
	DestinationAddress       Address
	Items                    []OrderItem
}

func (r CreateOrderRequest) Action() string { return ActionCreateFulfillmentOrder }

func (r CreateOrderRequest) Tree() map[string]any {
	items := make([]any, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, it.Tree())
	}
	return map[string]any{
		"SellerFulfillmentOrderId": r.SellerFulfillmentOrderID,
		"DisplayableOrderId":       r.DisplayableOrderID,
		"DisplayableOrderDateTime": r.DisplayableOrderDateTime,
		"DisplayableOrderComment":  r.DisplayableOrderComment,
		"ShippingSpeedCategory":    r.ShippingSpeedCategory,
		"DestinationAddress":       r.DestinationAddress.Tree(),
		"Items":                    items,
	}
}

// CancelRequest is the body of CancelFulfillmentOrder. Only the identifier
// is needed.
type CancelRequest struct {
	SellerFulfillmentOrderID string
}

func (r CancelRequest) Action() string { return ActionCancelFulfillmentOrder }

func (r CancelRequest) Tree() map[string]any {
	return map[string]any{
		"Action":                   ActionCancelFulfillmentOrder,
		"SellerFulfillmentOrderId": r.SellerFulfillmentOrderID,
	}
}
