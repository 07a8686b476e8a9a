/*
Package network simulates the star network between a coordinator hub
and its sites. There is no real transport: remote calls are ordinary
function calls mediated by proxies, and this package only accounts
them, per directed channel and per endpoint.

Oneway endpoints accrue request bytes only; request/response endpoints
accrue both legs. Payload sizes come from each payload's ByteSize(),
so accounting is byte-exact against the wire formats of the protocol.
*/
package network
