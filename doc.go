// Package storefront keeps the session and cart of a food storefront
// consistent across independently rendered surfaces and across browsing
// contexts that share durable storage.
//
// A Tab composes one browsing context from the packages under pkg/:
//
//	st := storage.NewMemoryBackend().Open()
//	tab, err := storefront.Open(ctx, "https://api.example.com", st,
//		storefront.WithPromos(promo.Default()),
//		storefront.WithBadgeHandler(func(n int) { fmt.Println("cart:", n) }),
//	)
//	if err != nil {
//		return err
//	}
//	defer tab.Close(ctx)
//
//	if _, err := tab.Login(ctx, "ada@example.com", "secret"); err != nil {
//		return err
//	}
//	if err := tab.Cart.Add(ctx, "pizza", 1); err != nil {
//		return err
//	}
//
// Surfaces never share state directly. Mutators publish auth-changed or
// cart-changed on the tab's bus and observers re-read the session store or
// the cart cache. Session writes made by another tab on the same storage
// arrive as auth-changed too, after which the tab reloads or empties its
// cart to match.
package storefront
