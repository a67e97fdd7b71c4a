// Package source switches the default JSON driver to go-json when imported
// for side effects.
package source

import (
	"github.com/reoring/polyskema"
	drvgojson "github.com/reoring/polyskema/source/gojson"
)

// init in a separate package to avoid import cycle in root. This sets go-json as default driver.
func init() { polyskema.SetJSONDriver(drvgojson.Driver()) }
