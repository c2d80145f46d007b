// Package session owns "who is signed in" for one browsing context.
//
// A Store keeps the bearer credential and the Session snapshot in durable
// storage under two keys (see Keys) and is the only component allowed to
// write them. It moves between two states, Anonymous and Authenticated:
//
//   - Login asks an Authenticator, persists credential then session, and
//     publishes auth-changed. A 401 from the remote API surfaces as
//     ErrInvalidCredentials.
//   - Logout clears both keys and publishes auth-changed. It is idempotent.
//   - Current, HasCredential, HasRole and State read the in-memory copy,
//     rehydrating it from storage after start-up or after any auth-changed
//     publish. They never call the remote API.
//
// When the credential is a JWT carrying an exp claim, reads treat a past
// expiry as a logout: the keys are cleared and auth-changed is published.
//
// Usage:
//
//	store, err := session.New(storage, bus, session.NewRemoteAuthenticator(client))
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	if _, err := store.Login(ctx, session.Credentials{Email: email, Password: pw}); err != nil {
//	    if errors.Is(err, session.ErrInvalidCredentials) {
//	        // show a field-level error
//	    }
//	}
//
// The Store satisfies apiclient.CredentialSource, so the same client used by
// RemoteAuthenticator can carry the credential on later calls.
package session
