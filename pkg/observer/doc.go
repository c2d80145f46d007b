// Package observer provides the two observer surfaces every storefront page
// mounts: the cart item-count Badge and the AuthIndicator.
//
// Neither holds authoritative state. Each subscribes to a topic and re-reads
// the cart cache or session store when it fires.
package observer
