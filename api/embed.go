// Package api embeds the OpenAPI description of the HTTP API.
package api

import _ "embed"

// OpenAPI is the YAML document served at /api/openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPI []byte
