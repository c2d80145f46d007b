// Package apiclient is the transport layer of the storefront client: it sends
// JSON requests to the remote API, attaches the current bearer credential and
// normalizes every outcome into either a raw JSON payload or a *Failure.
//
// The package has no notion of sessions or carts. Credentials are pulled from
// a CredentialSource on each call, which keeps credential injection testable
// on its own.
//
// # Failures
//
// A *Failure carries Status, Message and the raw Body. Status 0 means the
// server was never reached (dial, DNS, timeout) or replied with something
// that is not JSON; callers treat that as a connectivity problem and may
// retry. Classify maps a failure to a Kind and UserMessage renders the notice
// a storefront surface shows.
//
//	raw, err := client.Get(ctx, "/cart")
//	switch apiclient.Classify(err) {
//	case apiclient.KindNone:
//		// use raw
//	case apiclient.KindConnectivity:
//		// offer retry
//	}
//
// Requests are bounded by DefaultTimeout unless WithTimeout says otherwise.
package apiclient
