// Package protocol implements the request and response frames exchanged between a lookup client and the server.
//
// # Request Frame
//
// A request is plain text terminated by a single '#' byte:
//
//	<artistLastName>;<recordShopCity>#
//
// There is no length prefix and no escaping, so a field value containing ';' or '#' cannot be sent.
// [EncodeRequest] rejects such values; [Decoder.Decode] cannot tell them apart from delimiters.
// A frame that does not split into exactly two fields decodes to an empty [models.Request]
// together with [shared.ErrMalformedRequest], so callers can continue with empty search terms.
//
// Reading stops only at the terminator. [Decoder.MaxBytes] optionally bounds the frame size;
// callers are expected to set a read deadline on the underlying connection.
//
// # Response Frame
//
// A response is a fixed 8-byte header followed by a JSON payload:
//
//	+-----+-----+-----+---------+--------------------------+
//	| 'R' | 'S' | 'X' | version | payload length (BE u32)  |
//	+-----+-----+-----+---------+--------------------------+
//	| {"version":1,"status":"ok","columns":[...],"rows":[...]} |
//	+------------------------------------------------------+
//
// The payload names its columns and carries a [Status], so a caller can tell an empty match
// from a failed query. Exactly one response is written per connection.
package protocol
