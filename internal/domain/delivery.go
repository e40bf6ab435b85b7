package domain

// DeliveryTier is one row of the postal-code distance table.
type DeliveryTier struct {
	PostalCode  int     `bson:"pincode" json:"pincode"`
	DistanceKm  float64 `bson:"distance" json:"distance"`
	OriginLabel string  `bson:"postOffice" json:"postOffice"`
}

// DeliveryQuote is the priced result for one postal code.
type DeliveryQuote struct {
	DeliveryCost Rupees  `json:"deliveryCost"`
	DistanceKm   float64 `json:"distance"`
	OriginLabel  string  `json:"postOffice"`
	IsDefault    bool    `json:"isDefault"`
}
