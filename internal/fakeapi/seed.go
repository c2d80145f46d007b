package fakeapi

import "github.com/shopspring/decimal"

// Demo account seeded by Seed.
const (
	DemoEmail    = "ada@example.com"
	DemoPassword = "margherita"
)

// Seed fills s with a small menu and the demo customer, returning the
// customer's id.
func Seed(s *Server) (string, error) {
	for _, p := range []Product{
		{ID: "pizza", Name: "Margherita", UnitPrice: decimal.RequireFromString("9.50"), ThumbnailRef: "img/margherita.jpg"},
		{ID: "salad", Name: "Greek salad", UnitPrice: decimal.RequireFromString("6.25"), ThumbnailRef: "img/greek-salad.jpg"},
		{ID: "soda", Name: "Lemon soda", UnitPrice: decimal.RequireFromString("2.00")},
		{ID: "tiramisu", Name: "Tiramisu", UnitPrice: decimal.RequireFromString("5.75")},
	} {
		s.AddProduct(p)
	}
	return s.AddUser(DemoEmail, DemoPassword, "Ada Lovelace", "customer")
}
