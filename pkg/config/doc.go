// Package config loads configuration from environment variables using
// struct tags, applying a local .env file first when one exists.
//
// Load works with any tagged struct; LoadStorefront returns the validated
// Storefront settings consumed by cmd/storefront and the root package.
//
//	cfg, err := config.LoadStorefront()
//	if err != nil {
//		return err
//	}
package config
