package domain

import "time"

// OrderAmounts is derived fresh for every pricing request.
type OrderAmounts struct {
	ItemTotal    Rupees `json:"itemTotal" bson:"amount"`
	DeliveryCost Rupees `json:"deliveryCost" bson:"deliveryCost"`
	TotalAmount  Rupees `json:"totalAmount" bson:"totalAmount"`
}

// NewOrderAmounts keeps TotalAmount = ItemTotal + DeliveryCost.
func NewOrderAmounts(itemTotal, deliveryCost Rupees) OrderAmounts {
	return OrderAmounts{
		ItemTotal:    itemTotal,
		DeliveryCost: deliveryCost,
		TotalAmount:  itemTotal + deliveryCost,
	}
}

// PaymentIntent is a gateway-side order sized to the order total.
type PaymentIntent struct {
	GatewayOrderID   string `json:"gatewayOrderId"`
	AmountMinorUnits int64  `json:"amountMinorUnits"`
	Currency         string `json:"currency"`
}

const PaymentTypeOnline = "Online"

type PaymentDetails struct {
	GatewayOrderID   string `bson:"razorpay_order_id" json:"razorpay_order_id"`
	GatewayPaymentID string `bson:"razorpay_payment_id" json:"razorpay_payment_id"`
	GatewaySignature string `bson:"razorpay_signature" json:"razorpay_signature"`
}

// Order is the persisted record of a paid checkout.
type Order struct {
	ID          string         `bson:"_id" json:"id"`
	UserRef     string         `bson:"userId" json:"userId"`
	Items       []CartLine     `bson:"items" json:"items"`
	Amounts     OrderAmounts   `bson:",inline" json:"amounts"`
	AddressRef  string         `bson:"address" json:"address"`
	Status      OrderStatus    `bson:"status" json:"status"`
	PaymentType string         `bson:"paymentType" json:"paymentType"`
	IsPaid      bool           `bson:"isPaid" json:"isPaid"`
	Payment     PaymentDetails `bson:"paymentDetails" json:"paymentDetails"`
	// Published is the outbox flag for the order-placed event.
	Published bool      `bson:"published" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// OrderPlacedEvent is published once per persisted order.
type OrderPlacedEvent struct {
	OrderID     string     `json:"order_id"`
	UserID      string     `json:"user_id"`
	Items       []CartLine `json:"items"`
	TotalAmount Rupees     `json:"total_amount"`
	Currency    string     `json:"currency"`
	PlacedAt    time.Time  `json:"placed_at"`
}

// PlacedEvent builds the outbox payload for o.
func (o *Order) PlacedEvent() OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:     o.ID,
		UserID:      o.UserRef,
		Items:       o.Items,
		TotalAmount: o.Amounts.TotalAmount,
		Currency:    CurrencyINR,
		PlacedAt:    o.CreatedAt,
	}
}
