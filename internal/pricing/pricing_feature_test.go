package pricing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/cucumber/godog"
	"github.com/fjod/go_grocery/internal/delivery"
	"github.com/fjod/go_grocery/internal/domain"
	"github.com/fjod/go_grocery/internal/repository"
)

type tierTable struct {
	m     sync.RWMutex
	tiers map[int]domain.DeliveryTier
}

func (t *tierTable) FindTier(_ context.Context, postalCode int) (*domain.DeliveryTier, error) {
	t.m.RLock()
	defer t.m.RUnlock()
	tier, ok := t.tiers[postalCode]
	if !ok {
		return nil, repository.ErrTierNotFound
	}
	return &tier, nil
}

type pricingTestContext struct {
	catalog *mockCatalog
	book    *mockAddressBook
	tiers   *tierTable
	amounts domain.OrderAmounts
	err     error
}

func (c *pricingTestContext) reset() {
	c.catalog = &mockCatalog{products: map[string]domain.Product{}}
	c.book = &mockAddressBook{addresses: map[string]domain.Address{}}
	c.tiers = &tierTable{tiers: map[int]domain.DeliveryTier{}}
	c.amounts = domain.OrderAmounts{}
	c.err = nil
}

func (c *pricingTestContext) calculator() *Calculator {
	return NewCalculator(c.catalog, c.book, delivery.NewResolver(c.tiers))
}

func (c *pricingTestContext) theCatalog(table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 {
			continue // skip header
		}
		price, err := strconv.ParseInt(row.Cells[2].Value, 10, 64)
		if err != nil {
			return err
		}
		inStock, err := strconv.ParseBool(row.Cells[3].Value)
		if err != nil {
			return err
		}
		id := row.Cells[0].Value
		c.catalog.products[id] = domain.Product{
			ID:         id,
			Name:       row.Cells[1].Value,
			OfferPrice: domain.Rupees(price),
			InStock:    inStock,
		}
	}
	return nil
}

func (c *pricingTestContext) postalCodeIsKmFrom(code string, km float64, origin string) error {
	n, err := strconv.Atoi(code)
	if err != nil {
		return err
	}
	c.tiers.tiers[n] = domain.DeliveryTier{PostalCode: n, DistanceKm: km, OriginLabel: origin}
	return nil
}

func (c *pricingTestContext) addressHasPostalCode(id, code string) error {
	c.book.addresses[id] = domain.Address{ID: id, PostalCode: code}
	return nil
}

func (c *pricingTestContext) iPriceOfForAddress(quantity int, productID, addressID string) error {
	c.amounts, c.err = c.calculator().ComputeAmounts(context.Background(),
		[]domain.CartLine{{ProductRef: productID, Quantity: quantity}}, addressID)
	return nil
}

func (c *pricingTestContext) iPriceTheCartForAddress(addressID string, table *godog.Table) error {
	var lines []domain.CartLine
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		q, err := strconv.Atoi(row.Cells[1].Value)
		if err != nil {
			return err
		}
		lines = append(lines, domain.CartLine{ProductRef: row.Cells[0].Value, Quantity: q})
	}
	c.amounts, c.err = c.calculator().ComputeAmounts(context.Background(), lines, addressID)
	return nil
}

func (c *pricingTestContext) thePriceOfChangesTo(productID string, price int) error {
	c.catalog.setPrice(productID, domain.Rupees(price))
	return nil
}

func (c *pricingTestContext) expect(name string, got domain.Rupees, want int) error {
	if c.err != nil {
		return fmt.Errorf("pricing failed: %w", c.err)
	}
	if got != domain.Rupees(want) {
		return fmt.Errorf("expected %s %d, got %d", name, want, got)
	}
	return nil
}

func (c *pricingTestContext) theItemTotalIs(want int) error {
	return c.expect("item total", c.amounts.ItemTotal, want)
}

func (c *pricingTestContext) theDeliveryCostIs(want int) error {
	return c.expect("delivery cost", c.amounts.DeliveryCost, want)
}

func (c *pricingTestContext) theTotalIs(want int) error {
	return c.expect("total", c.amounts.TotalAmount, want)
}

func (c *pricingTestContext) pricingFailsWithAValidationErrorMentioning(text string) error {
	if c.err == nil {
		return fmt.Errorf("expected a validation error, got amounts %+v", c.amounts)
	}
	if !domain.IsValidation(c.err) {
		return fmt.Errorf("expected a validation error, got %v", c.err)
	}
	if !strings.Contains(c.err.Error(), text) {
		return fmt.Errorf("expected error to mention %q, got %q", text, c.err.Error())
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &pricingTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the catalog:$`, tc.theCatalog)
	ctx.Step(`^postal code "([^"]*)" is (\d+(?:\.\d+)?) km from "([^"]*)"$`, tc.postalCodeIsKmFrom)
	ctx.Step(`^address "([^"]*)" has postal code "([^"]*)"$`, tc.addressHasPostalCode)

	// When steps
	ctx.Step(`^I price (\d+) of "([^"]*)" for address "([^"]*)"$`, tc.iPriceOfForAddress)
	ctx.Step(`^I price the cart for address "([^"]*)":$`, tc.iPriceTheCartForAddress)
	ctx.Step(`^the price of "([^"]*)" changes to (\d+)$`, tc.thePriceOfChangesTo)

	// Then steps
	ctx.Step(`^the item total is (\d+)$`, tc.theItemTotalIs)
	ctx.Step(`^the delivery cost is (\d+)$`, tc.theDeliveryCostIs)
	ctx.Step(`^the total is (\d+)$`, tc.theTotalIs)
	ctx.Step(`^pricing fails with a validation error mentioning "([^"]*)"$`, tc.pricingFailsWithAValidationErrorMentioning)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/pricing.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
