package appidentityassets

import _ "embed"

// YAML is the embedded copy of `.fulmen/app.yaml`, mirrored into a Go-embeddable
// location for standalone binary behavior.
//
// It is kept in sync with .fulmen/app.yaml by hand.
//
//go:embed app.yaml
var YAML []byte
