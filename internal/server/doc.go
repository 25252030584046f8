// Package server provides HTTP routing, middleware, handlers and OAuth handling for the API and the CLI.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] with method-qualified patterns ("GET /api/youtube/search").
// Requests no pattern matches fall through to [RouteNotFound].
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// [AuthHandler] serves sign-in, profile and watch history; [YouTubeHandler] serves search, stream resolution
// and suggestions. [NewAPI] wires both behind the middleware stack.
//
// # Responses
//
// Successful API responses are wrapped as {"success": true, "data": ...}. Errors are {"error": message} with the
// status taken from the error's [shared.Kind] by [StatusFor]; messages are never inspected.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the Google authorization code callback for `ytstream auth login`.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the ID token through a channel.
//
// It only processes one callback to prevent replay attacks.
package server
