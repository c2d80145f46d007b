// Package storage is the durable client-side key/value store behind the
// session. It plays the role browser local storage plays for a web
// storefront: values survive reloads, and other browsing contexts sharing
// the same state are told when a key changes.
//
// Three backends are provided:
//
//   - MemoryBackend: process-wide state; Open returns one Storage per
//     browsing context and changes fan out to the other contexts.
//   - FileStorage: a JSON file, for state that must survive restarts of a
//     single process. It emits no cross-context changes.
//   - RedisStorage: Redis keys plus a pub/sub channel, for contexts spread
//     over several processes.
//
// Watch delivers only changes made by other contexts; a context never sees
// its own writes echoed back.
package storage
