package sinks

import (
	"encoding/json"
	"fmt"

	"github.com/chrissnell/rfxweather/internal/types"
	"github.com/vmihailenco/msgpack/v5"
)

// Payload formats.
const (
	FormatJSON    = "json"
	FormatMsgPack = "msgpack"
)

// Encode renders e in the named format. An empty format means JSON.
func Encode(format string, e types.Event) ([]byte, error) {
	m := e.ToMap()
	switch format {
	case "", FormatJSON:
		return json.Marshal(m)
	case FormatMsgPack:
		return msgpack.Marshal(m)
	default:
		return nil, fmt.Errorf("unknown payload format %q", format)
	}
}
