// Package logger builds the structured *slog.Logger used across the storefront
// packages and provides attribute helpers so field names stay consistent
// (item_id, topic, status, op, ...).
//
// New applies Option values and picks a text or JSON handler. WithEnvironment
// selects defaults per deployment stage. A context tagged with WithTab adds
// the browsing tab to every record logged with it, so output from several
// tabs in one process can be told apart.
//
//	log := logger.New(logger.WithEnvironment(cfg.Env, cfg.AppName))
//	log.InfoContext(ctx, "cart reloaded", logger.Component("cart"), logger.ItemID(id))
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally.
package logger
