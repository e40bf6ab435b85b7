package domain

// Product is the catalog view the pricing pipeline reads.
type Product struct {
	ID         string `bson:"_id" json:"id"`
	Name       string `bson:"name" json:"name"`
	OfferPrice Rupees `bson:"offerPrice" json:"offerPrice"`
	InStock    bool   `bson:"inStock" json:"inStock"`
}

// Address is only used for its postal code here.
type Address struct {
	ID         string `bson:"_id" json:"id"`
	UserID     string `bson:"userId" json:"userId"`
	PostalCode string `bson:"zipcode" json:"zipcode"`
}
