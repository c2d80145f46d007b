// Package cart keeps a responsive, eventually server-consistent copy of the
// shopping cart for one browsing context.
//
// A Cache applies every mutation to its local Snapshot first and then writes
// it through to the remote API:
//
//   - SetQuantity sends quantity and the current note together, because the
//     server only accepts whole-line updates. A quantity below 1 removes.
//   - SetNote is debounced per item: only the last edit within the quiet
//     period (800ms by default) is sent.
//   - Remove and Clear cancel any pending note writes they make pointless.
//   - Add goes to the server first and reloads, since the server owns names
//     and prices.
//
// When a write fails the cache does not try to merge. It reloads the whole
// cart from the server and returns a *MutationError whose Notice is fit for
// display. Reloads are collapsed with singleflight and retried on
// connectivity or server failures. Each reload bumps an epoch, and debounced
// writes scheduled under an older epoch are dropped.
//
// Every mutating call publishes cart-changed on the bus exactly once so
// surfaces such as the navigation badge can re-read Count.
//
// Totals are computed with shopspring/decimal. Promo codes are resolved by a
// local Discounts table and never reach the server.
package cart
