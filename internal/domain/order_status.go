package domain

type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "Order Placed"
	OrderStatusProcessing     OrderStatus = "Processing"
	OrderStatusPacked         OrderStatus = "Packed"
	OrderStatusDispatched     OrderStatus = "Dispatched"
	OrderStatusOutForDelivery OrderStatus = "Out for Delivery"
	OrderStatusDelivered      OrderStatus = "Delivered"
	OrderStatusCancelled      OrderStatus = "Cancelled"
	OrderStatusTrash          OrderStatus = "Trash"
)

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusPlaced:         {},
	OrderStatusProcessing:     {},
	OrderStatusPacked:         {},
	OrderStatusDispatched:     {},
	OrderStatusOutForDelivery: {},
	OrderStatusDelivered:      {},
	OrderStatusCancelled:      {},
	OrderStatusTrash:          {},
}

func (s OrderStatus) IsValid() bool {
	_, ok := validOrderStatuses[s]
	return ok
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}
