// Package server provides HTTP routing, middleware, and the public API surface of the aggregation service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # API Handlers
//
// [API] registers the JSON endpoints: aggregated search (optionally streamed as
// NDJSON), URL resolution, artist and playlist lookups, plugin management,
// diagnostics and runtime configuration.
//
// # Media Relay
//
// [RelayHandler] streams upstream media through the service while attaching the
// referer and browser identity some CDNs require, forwarding Range requests so
// seeking works. Resolution rewrites referer-locked URLs through this endpoint
// before handing them to clients.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
