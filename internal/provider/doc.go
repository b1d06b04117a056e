// Package provider is the ingestion fetcher: a client for a CoinGecko-compatible
// markets endpoint that maps the response into model.CoinRecord values.
//
// Endpoint:
//   - GET https://api.coingecko.com/api/v3/coins/markets
//     ?vs_currency=usd&order=market_cap_desc&per_page=10&page=1
//
// One request per fetch, no partial results. Every failure (transport, non-2xx
// status, malformed body) is returned as *Error.
package provider
