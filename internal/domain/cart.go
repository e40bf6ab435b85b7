package domain

import (
	"sort"
	"time"
)

// CartLine is one product-and-quantity pair submitted for pricing.
type CartLine struct {
	ProductRef string `json:"product" bson:"product"`
	Quantity   int    `json:"quantity" bson:"quantity"`
}

// Cart maps a product id to its quantity. A product is either present with
// a positive quantity or absent.
type Cart map[string]int

// Add increments the quantity of productID by one.
func (c Cart) Add(productID string) {
	c[productID]++
}

// Remove decrements the quantity of productID and drops the key at zero.
// Removing an absent product is a no-op.
func (c Cart) Remove(productID string) {
	q, ok := c[productID]
	if !ok {
		return
	}
	if q <= 1 {
		delete(c, productID)
		return
	}
	c[productID] = q - 1
}

// Set replaces the quantity; non-positive quantities remove the product.
func (c Cart) Set(productID string, quantity int) {
	if quantity <= 0 {
		delete(c, productID)
		return
	}
	c[productID] = quantity
}

// Lines returns the cart as cart lines ordered by product id.
func (c Cart) Lines() []CartLine {
	lines := make([]CartLine, 0, len(c))
	for id, q := range c {
		lines = append(lines, CartLine{ProductRef: id, Quantity: q})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductRef < lines[j].ProductRef })
	return lines
}

// MaxLineQuantity caps the quantity of a single product in a cart or order.
const MaxLineQuantity = 99

// CartDocument is the persisted shape of a user's cart.
type CartDocument struct {
	ID        string     `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	// Version guards read-modify-write updates; zero means never stored.
	Version int64 `bson:"version" json:"version,omitempty"`
}

type CartItem struct {
	ProductID string    `bson:"product_id" json:"product_id"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

// Cart converts the stored items to the mapping type.
func (d *CartDocument) Cart() Cart {
	c := make(Cart, len(d.Items))
	for _, item := range d.Items {
		c.Set(item.ProductID, item.Quantity)
	}
	return c
}
