// Package schemas embeds the JSON Schemas for the HTTP payloads exchanged
// between the summarizer client and server.
package schemas

import "embed"

// FS holds every *.schema.json file in this directory.
//
//go:embed *.schema.json
var FS embed.FS
