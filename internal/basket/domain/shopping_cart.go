package domain

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	sharedDomain "github.com/davicafu/hexashop/internal/shared/domain"
)

const ShoppingCartEntityName = "ShoppingCart"

// ShoppingCartItem es una línea del carrito. Precio y nombre vienen del catálogo.
type ShoppingCartItem struct {
	ID             uuid.UUID       `json:"id"`
	ShoppingCartID uuid.UUID       `json:"shopping_cart_id"`
	ProductID      uuid.UUID       `json:"product_id"`
	Quantity       int             `json:"quantity"`
	Color          string          `json:"color"`
	Price          decimal.Decimal `json:"price"`
	ProductName    string          `json:"product_name"`
}

func (i ShoppingCartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ShoppingCart es el carrito de un usuario. Las líneas solo cambian a través de sus métodos.
type ShoppingCart struct {
	sharedDomain.Aggregate
	UserName string

	items        []ShoppingCartItem
	itemsChanged bool
}

var _ sharedDomain.OwnedChangeReporter = (*ShoppingCart)(nil)

func (*ShoppingCart) EntityName() string { return ShoppingCartEntityName }

// NewShoppingCart crea el carrito vacío y emite ShoppingCartCreated.
func NewShoppingCart(id uuid.UUID, userName string) (*ShoppingCart, error) {
	if strings.TrimSpace(userName) == "" {
		return nil, sharedDomain.NewBadRequestError("user name is required")
	}
	if id == uuid.Nil {
		id = uuid.New()
	}

	c := &ShoppingCart{
		Aggregate: sharedDomain.Aggregate{Entity: sharedDomain.Entity{ID: id}},
		UserName:  userName,
	}
	c.RaiseEvent(ShoppingCartCreatedEvent{
		EventBase: sharedDomain.NewEventBase(ShoppingCartCreated, c.ID),
		Cart:      c.Snapshot(),
	})
	return c, nil
}

// RestoreShoppingCart reconstruye un carrito leído del almacén, sin eventos.
func RestoreShoppingCart(entity sharedDomain.Entity, userName string, items []ShoppingCartItem) *ShoppingCart {
	return &ShoppingCart{
		Aggregate: sharedDomain.Aggregate{Entity: entity},
		UserName:  userName,
		items:     append([]ShoppingCartItem(nil), items...),
	}
}

// --- Métodos de dominio ---

// AddItem suma la cantidad si el producto ya está en el carrito.
func (c *ShoppingCart) AddItem(productID uuid.UUID, quantity int, color string, price decimal.Decimal, productName string) error {
	if quantity <= 0 {
		return sharedDomain.NewBadRequestError("quantity must be greater than zero", "quantity: "+strconv.Itoa(quantity))
	}
	if !price.IsPositive() {
		return sharedDomain.NewBadRequestError("price must be greater than zero", "price: "+price.String())
	}

	c.itemsChanged = true
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity += quantity
			return nil
		}
	}
	c.items = append(c.items, ShoppingCartItem{
		ID:             uuid.New(),
		ShoppingCartID: c.ID,
		ProductID:      productID,
		Quantity:       quantity,
		Color:          color,
		Price:          price,
		ProductName:    productName,
	})
	return nil
}

// RemoveItem no hace nada si el producto no está en el carrito.
func (c *ShoppingCart) RemoveItem(productID uuid.UUID) {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			c.itemsChanged = true
			return
		}
	}
}

// UpdateItemPrice cambia el precio de la línea del producto. Devuelve false si no hay cambio.
func (c *ShoppingCart) UpdateItemPrice(productID uuid.UUID, price decimal.Decimal) bool {
	changed := false
	for i := range c.items {
		if c.items[i].ProductID == productID && !c.items[i].Price.Equal(price) {
			c.items[i].Price = price
			changed = true
		}
	}
	if changed {
		c.itemsChanged = true
	}
	return changed
}

// Checkout emite el evento de compra; el carrito se borra en el mismo commit.
func (c *ShoppingCart) Checkout(details CheckoutDetails) error {
	if len(c.items) == 0 {
		return sharedDomain.NewBadRequestError("cannot checkout an empty basket", "user: "+c.UserName)
	}
	c.RaiseEvent(ShoppingCartCheckedOutEvent{
		EventBase: sharedDomain.NewEventBase(ShoppingCartCheckedOut, c.ID),
		Cart:      c.Snapshot(),
		Details:   details,
	})
	return nil
}

func (c *ShoppingCart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, i := range c.items {
		total = total.Add(i.Subtotal())
	}
	return total
}

// Items devuelve una copia de las líneas.
func (c *ShoppingCart) Items() []ShoppingCartItem {
	return append([]ShoppingCartItem(nil), c.items...)
}

func (c *ShoppingCart) HasChangedOwnedEntities() bool { return c.itemsChanged }

func (c *ShoppingCart) AcceptOwnedChanges() { c.itemsChanged = false }

// ShoppingCartSnapshot es la copia por valor que viaja en los eventos.
type ShoppingCartSnapshot struct {
	ID         uuid.UUID          `json:"id"`
	UserName   string             `json:"user_name"`
	Items      []ShoppingCartItem `json:"items"`
	TotalPrice decimal.Decimal    `json:"total_price"`
}

func (c *ShoppingCart) Snapshot() ShoppingCartSnapshot {
	return ShoppingCartSnapshot{
		ID:         c.ID,
		UserName:   c.UserName,
		Items:      c.Items(),
		TotalPrice: c.TotalPrice(),
	}
}

// ---------------- JSON ----------------

// cartJSON es la forma persistida: las líneas son privadas y hay que exponerlas a mano.
type cartJSON struct {
	sharedDomain.Entity
	UserName string             `json:"user_name"`
	Items    []ShoppingCartItem `json:"items"`
}

func (c *ShoppingCart) MarshalJSON() ([]byte, error) {
	items := c.items
	if items == nil {
		items = []ShoppingCartItem{}
	}
	return json.Marshal(cartJSON{Entity: c.Entity, UserName: c.UserName, Items: items})
}

func (c *ShoppingCart) UnmarshalJSON(data []byte) error {
	var raw cartJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Entity = raw.Entity
	c.UserName = raw.UserName
	c.items = raw.Items
	return nil
}
