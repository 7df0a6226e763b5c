// Package gateway wraps outgoing backend requests with the stored session's
// credentials and recovers from expired access tokens.
//
// Transport is an http.RoundTripper that:
//   - attaches "Authorization: <type> <token>" from the session store to every
//     request except the refresh call itself,
//   - reacts to a 401 by refreshing the token pair at most once per original
//     request and replaying that request with the new access token,
//   - shares a single in-flight refresh between concurrent 401s; requests that
//     fail while a refresh is running are parked and resumed in FIFO order
//     once it completes,
//   - expires the session (broadcasting through the store observers) when the
//     refresh token is missing, expired or rejected.
//
// The refresh call is made by RefreshClient on its own http.Client so that it
// never passes back through Transport.
package gateway
