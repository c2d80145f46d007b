package cart

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrymomot/storefront/pkg/apiclient"
)

// API is the remote cart. The server is the source of truth; every method
// maps to one request.
type API interface {
	Fetch(ctx context.Context) ([]Item, error)
	Add(ctx context.Context, id string, quantity int) error
	// Update replaces quantity and note together; the server has no partial
	// update.
	Update(ctx context.Context, id string, quantity int, note string) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

// Remote endpoints.
const (
	PathCart     = "/cart"
	PathCartItem = "/cart/item"
)

// ItemWrite is the request body of POST and PUT /cart/item.
type ItemWrite struct {
	ID       string  `json:"id"`
	Quantity int     `json:"quantity"`
	Note     *string `json:"note,omitempty"`
}

// Contents is the response body of GET /cart.
type Contents struct {
	Items []Item `json:"items"`
}

// RemoteAPI implements API over the storefront HTTP API.
type RemoteAPI struct {
	client *apiclient.Client
}

// NewRemoteAPI wraps client. The client should carry the session credential.
func NewRemoteAPI(client *apiclient.Client) *RemoteAPI {
	return &RemoteAPI{client: client}
}

func (a *RemoteAPI) Fetch(ctx context.Context) ([]Item, error) {
	resp, err := apiclient.Do[Contents](ctx, a.client, http.MethodGet, PathCart, nil)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (a *RemoteAPI) Add(ctx context.Context, id string, quantity int) error {
	_, err := a.client.Post(ctx, PathCartItem, ItemWrite{ID: id, Quantity: quantity})
	return err
}

func (a *RemoteAPI) Update(ctx context.Context, id string, quantity int, note string) error {
	_, err := a.client.Put(ctx, PathCartItem, ItemWrite{ID: id, Quantity: quantity, Note: &note})
	return err
}

func (a *RemoteAPI) Delete(ctx context.Context, id string) error {
	_, err := a.client.Delete(ctx, PathCartItem+"/"+url.PathEscape(id))
	return err
}

func (a *RemoteAPI) DeleteAll(ctx context.Context) error {
	_, err := a.client.Delete(ctx, PathCart)
	return err
}
