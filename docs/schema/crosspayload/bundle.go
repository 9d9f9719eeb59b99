// Package crosspayload embeds the JSON Schema of the cross-simulation engine
// request body for runtime distribution.
package crosspayload

import _ "embed"

// Engine request payload schema embedded for runtime exposure.
//
//go:embed crosspayload.schema.json
var schemaJSON []byte

// Schema returns a defensive copy of the embedded payload schema.
func Schema() []byte {
	return append([]byte(nil), schemaJSON...)
}
