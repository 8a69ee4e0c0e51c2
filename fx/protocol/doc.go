// Package protocol defines the bus messages exchanged between the host and
// the DSP coprocessor.
//
// Every parameter update travels as a [Transaction] whose logical fields are,
// in order: effect type, instance ID, value type, parameter ID and payload.
// Payload bytes are the value's in-memory representation in host byte order;
// both ends of the bus are assumed to share it.
//
// Transactions and the topology messages sent during a full sync ([Declare],
// [RouteDecl], [Reset]) are wrapped in a [Frame]:
//
//	0xA5 | kind | length | body ... | crc16 (little-endian)
//
// The CRC is CRC-16/CCITT-FALSE over kind, length and body.
package protocol
