// Package relay rebroadcasts price updates to every connected websocket viewer.
//
// A client sends {"event":"priceUpdate","data":...}; the hub republishes the
// data untouched as {"event":"newPrice","data":...} to all clients, the sender
// included. Delivery is best-effort with no replay or acknowledgement.
package relay

import "encoding/json"

const (
	EventPriceUpdate = "priceUpdate"
	EventNewPrice    = "newPrice"
)

// Frame is the only message shape on the wire in either direction.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
