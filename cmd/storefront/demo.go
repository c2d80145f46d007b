package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/storefront"
	"github.com/dmitrymomot/storefront/internal/fakeapi"
	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/config"
	"github.com/dmitrymomot/storefront/pkg/httpserver"
	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/promo"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/storage"
)

// syncWait bounds how long the demo waits for the second tab to follow.
const syncWait = 2 * time.Second

func demo(ctx context.Context, cfg config.Storefront, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	local := fs.Bool("local", true, "serve the API in-process instead of using STOREFRONT_API_URL")
	email := fs.String("email", fakeapi.DemoEmail, "login email")
	password := fs.String("password", fakeapi.DemoPassword, "login password")
	code := fs.String("promo", "WELCOME10", "promo code applied to the total")
	if err := fs.Parse(args); err != nil {
		return err
	}

	apiURL := cfg.APIURL
	if *local {
		url, stop, err := serveLocal(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer stop()
		apiURL = url
	}

	promos := promo.Default()
	if cfg.PromoFile != "" {
		table, err := promo.LoadFile(cfg.PromoFile)
		if err != nil {
			return fail(log, "load promo codes", err)
		}
		promos = table
	}

	views, release, err := openStorages(ctx, cfg, log, 2)
	if err != nil {
		return fail(log, "open storage", err)
	}
	defer release()

	reg := prometheus.NewRegistry()
	open := func(name string, st storage.Storage) (*storefront.Tab, error) {
		tabLog := log.With(slog.String("tab", name))
		return storefront.Open(ctx, apiURL, st,
			storefront.WithName(name),
			storefront.WithLogger(log),
			storefront.WithTimeout(cfg.APITimeout),
			storefront.WithUserAgent(cfg.AppName),
			storefront.WithPromos(promos),
			storefront.WithMetrics(reg),
			storefront.WithBadgeHandler(func(n int) {
				tabLog.Info("badge updated", slog.Int("count", n))
			}),
			storefront.WithSessionHandler(func(s *session.Session) {
				if s == nil {
					tabLog.Info("signed out")
					return
				}
				tabLog.Info("signed in", slog.String("name", s.DisplayName))
			}),
			storefront.WithCartOptions(
				cart.WithNoteDelay(cfg.NoteDebounce),
				cart.WithFailureHandler(func(ctx context.Context, err *cart.MutationError) {
					tabLog.WarnContext(ctx, "note not saved", slog.String("notice", err.Notice()), logger.Error(err))
				}),
			),
		)
	}

	a, err := open("a", views[0])
	if err != nil {
		return fail(log, "open tab a", err)
	}
	defer a.Close(ctx)
	b, err := open("b", views[1])
	if err != nil {
		return fail(log, "open tab b", err)
	}
	defer b.Close(ctx)

	if _, err := a.Login(ctx, *email, *password); err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			log.Warn("check the email and password")
		}
		return fail(log, "login", err)
	}
	if err := shop(ctx, a); err != nil {
		return err
	}

	total, ok := a.Total(*code)
	log.Info("checkout",
		slog.String("subtotal", a.Cart.Subtotal().StringFixed(2)),
		slog.String("promo", *code),
		slog.Bool("promo_applied", ok),
		slog.String("total", total.StringFixed(2)),
	)

	if !waitFor(func() bool { return b.Auth.SignedIn() }) {
		log.Warn("tab b did not see the login; this storage does not notify other contexts",
			slog.String("storage", cfg.Storage))
	} else {
		log.Info("tab b follows", slog.Int("badge", b.Badge.Count()))
	}

	if err := a.Logout(ctx); err != nil {
		return fail(log, "logout", err)
	}
	if waitFor(func() bool { return !b.Auth.SignedIn() }) {
		log.Info("tab b signed out with tab a", slog.Int("badge", b.Badge.Count()))
	}

	reportMetrics(log, reg)
	return nil
}

// shop walks through the cart mutations of one checkout.
func shop(ctx context.Context, tab *storefront.Tab) error {
	ctx = tab.Context(ctx)
	steps := []struct {
		name string
		run  func() error
	}{
		{"add pizza", func() error { return tab.Cart.Add(ctx, "pizza", 2) }},
		{"add tiramisu", func() error { return tab.Cart.Add(ctx, "tiramisu", 1) }},
		{"note on pizza", func() error { return tab.Cart.SetNote(ctx, "pizza", "extra basil") }},
		{"more tiramisu", func() error { return tab.Cart.SetQuantity(ctx, "tiramisu", 2) }},
		{"add soda", func() error { return tab.Cart.Add(ctx, "soda", 1) }},
		{"drop soda", func() error { return tab.Cart.SetQuantity(ctx, "soda", 0) }},
		{"send notes", func() error { return tab.Cart.Flush(ctx) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			var merr *cart.MutationError
			if errors.As(err, &merr) {
				slog.WarnContext(ctx, merr.Notice(), logger.Operation(step.name))
				continue
			}
			return fail(slog.Default(), step.name, err)
		}
	}
	for _, it := range tab.Cart.Snapshot() {
		slog.InfoContext(ctx, "cart line",
			logger.ItemID(it.ID),
			slog.Int("quantity", it.Quantity),
			slog.String("note", it.Note),
			slog.String("line_total", it.LineTotal().StringFixed(2)),
		)
	}
	return nil
}

func serveLocal(ctx context.Context, cfg config.Storefront, log *slog.Logger) (string, func(), error) {
	router, cleanup, err := apiRouter(ctx, cfg, log, fakeapi.DefaultTokenTTL)
	if err != nil {
		return "", nil, err
	}

	srv := httpserver.New(httpserver.WithAddr("127.0.0.1:0"), httpserver.WithLogger(log))
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- srv.Run(runCtx, router) }()

	select {
	case <-srv.Ready():
	case err := <-done:
		cancel()
		cleanup()
		return "", nil, fail(log, "serve api", err)
	}

	stop := func() {
		cancel()
		<-done
		cleanup()
	}
	return "http://" + srv.Addr() + "/api", stop, nil
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(syncWait)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func reportMetrics(log *slog.Logger, reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		log.Warn("gather metrics", logger.Error(err))
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{slog.Float64("value", m.GetCounter().GetValue())}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, slog.String(lp.GetName(), lp.GetValue()))
			}
			log.Info(mf.GetName(), attrs...)
		}
	}
}
