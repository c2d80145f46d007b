package fakeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/session"
)

// Route keys accepted by FailNext.
const (
	RouteLogin      = "POST /login"
	RouteGetCart    = "GET /cart"
	RouteAddItem    = "POST /cart/item"
	RouteUpdateItem = "PUT /cart/item"
	RouteDeleteItem = "DELETE /cart/item/{id}"
	RouteClearCart  = "DELETE /cart"
)

// DefaultTokenTTL is the lifetime of issued credentials.
const DefaultTokenTTL = time.Hour

// ErrDuplicateUser is returned by AddUser for a known email.
var ErrDuplicateUser = errors.New("fakeapi.duplicate_user")

// Product is a catalog entry that can be added to carts.
type Product struct {
	ID           string
	Name         string
	UnitPrice    decimal.Decimal
	ThumbnailRef string
}

type account struct {
	user session.Session
	hash []byte
}

// Request is one handled call, for assertions.
type Request struct {
	Route  string
	UserID string
	Auth   string
}

// Server is the fake remote API. It implements http.Handler.
type Server struct {
	secret     []byte
	tokenTTL   time.Duration
	now        func() time.Time
	bcryptCost int
	logger     *slog.Logger
	router     chi.Router

	mu       sync.Mutex
	accounts map[string]*account
	catalog  map[string]Product
	carts    map[string][]cart.Item
	faults   map[string][]int
	requests []Request
}

// New creates a Server with an empty catalog and no users.
func New(opts ...Option) *Server {
	s := &Server{
		secret:     []byte(uuid.NewString()),
		tokenTTL:   DefaultTokenTTL,
		now:        time.Now,
		bcryptCost: bcrypt.MinCost,
		logger:     slog.Default(),
		accounts:   make(map[string]*account),
		catalog:    make(map[string]Product),
		carts:      make(map[string][]cart.Item),
		faults:     make(map[string][]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// AddUser registers an account and returns its id.
func (s *Server) AddUser(email, password, name string, roles ...string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("fakeapi: hash password: %w", err)
	}

	key := strings.ToLower(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[key]; ok {
		return "", ErrDuplicateUser
	}
	id := uuid.NewString()
	s.accounts[key] = &account{
		user: session.Session{UserID: id, DisplayName: name, Email: email, Roles: slices.Clone(roles)},
		hash: hash,
	}
	return id, nil
}

// AddProduct adds or replaces a catalog entry.
func (s *Server) AddProduct(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog[p.ID] = p
}

// Cart returns a copy of the user's server-side cart.
func (s *Server) Cart(userID string) cart.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(cart.Snapshot{}, s.carts[userID]...)
}

// FailNext makes the next call of route answer with status. Status 0 aborts
// the connection without a response. Calls queue up.
func (s *Server) FailNext(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[route] = append(s.faults[route], status)
}

// Requests returns the calls handled so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Count returns how many calls of route were handled.
func (s *Server) Count(route string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Route == route {
			n++
		}
	}
	return n
}

// Issue signs a credential for userID expiring after the configured TTL.
func (s *Server) Issue(userID string) (string, error) {
	now := s.now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}).SignedString(s.secret)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/login", s.handle(RouteLogin, s.login))
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/cart", s.handle(RouteGetCart, s.getCart))
		r.Post("/cart/item", s.handle(RouteAddItem, s.addItem))
		r.Put("/cart/item", s.handle(RouteUpdateItem, s.updateItem))
		r.Delete("/cart/item/{id}", s.handle(RouteDeleteItem, s.deleteItem))
		r.Delete("/cart", s.handle(RouteClearCart, s.clearCart))
	})
	return r
}

type userKey struct{}

func userID(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

// handle records the call and applies any injected fault before h.
func (s *Server) handle(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{Route: route, UserID: userID(r.Context()), Auth: r.Header.Get("Authorization")})
		fault, injected := -1, false
		if queue := s.faults[route]; len(queue) > 0 {
			fault, injected = queue[0], true
			s.faults[route] = queue[1:]
		}
		s.mu.Unlock()

		if injected {
			s.logger.DebugContext(r.Context(), "injected fault",
				logger.Component("fakeapi"),
				logger.Operation(route),
				logger.Status(fault),
			)
			if fault == 0 {
				panic(http.ErrAbortHandler)
			}
			writeError(w, fault, http.StatusText(fault))
			return
		}
		h(w, r)
	}
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "missing credential")
			return
		}

		var claims jwt.RegisteredClaims
		_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return s.secret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(s.now),
			jwt.WithExpirationRequired(),
		)
		if err != nil || claims.Subject == "" {
			writeError(w, http.StatusUnauthorized, "invalid credential")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, claims.Subject)))
	})
}

type loginResponse struct {
	Token string          `json:"token"`
	User  session.Session `json:"user"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds session.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[strings.ToLower(creds.Email)]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(creds.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := s.Issue(acc.user.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not issue credential")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: *acc.user.Clone()})
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cart.Contents{Items: s.Cart(userID(r.Context()))})
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var body cart.ItemWrite
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	if body.Quantity < 1 {
		writeError(w, http.StatusUnprocessableEntity, "quantity must be at least 1")
		return
	}

	uid := userID(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[uid]
	if i := slices.IndexFunc(items, func(it cart.Item) bool { return it.ID == body.ID }); i >= 0 {
		items[i].Quantity += body.Quantity
		writeJSON(w, http.StatusOK, items[i])
		return
	}
	p, ok := s.catalog[body.ID]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown product")
		return
	}
	item := cart.Item{ID: p.ID, Name: p.Name, UnitPrice: p.UnitPrice, ThumbnailRef: p.ThumbnailRef, Quantity: body.Quantity}
	s.carts[uid] = append(items, item)
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	var body cart.ItemWrite
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return
	}
	if body.Quantity < 1 || body.Note == nil {
		writeError(w, http.StatusUnprocessableEntity, "quantity and note are required")
		return
	}

	uid := userID(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[uid]
	i := slices.IndexFunc(items, func(it cart.Item) bool { return it.ID == body.ID })
	if i < 0 {
		writeError(w, http.StatusNotFound, "item not in cart")
		return
	}
	items[i].Quantity = body.Quantity
	items[i].Note = *body.Note
	writeJSON(w, http.StatusOK, items[i])
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	uid := userID(r.Context())

	s.mu.Lock()
	s.carts[uid] = slices.DeleteFunc(s.carts[uid], func(it cart.Item) bool { return it.ID == id })
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	delete(s.carts, userID(r.Context()))
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
