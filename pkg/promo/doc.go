// Package promo holds the static promo-code table used for cart discounts.
//
// Codes are looked up locally and never sent to the server, so a match only
// changes the displayed total; it is not part of the durable cart. A Table
// satisfies cart.Discounts.
package promo
