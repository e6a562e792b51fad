//go:build !embed_model

package provider

import "io/fs"

// embeddedModelFS is empty without the embed_model build tag; model
// files must exist on disk under the configured model directory.
var embeddedModelFS fs.FS

const hasEmbeddedModel = false
