// Package server implements the MCP (Model Context Protocol) server for the
// tattoo studio.
//
// It exposes design generation, placement previews and artist handoff tools
// to MCP clients, so an assistant can generate a design, try it on a photo
// of the body area and refine size, position, rotation and opacity.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Design Generation:
//   - tattoo_styles: Styles, sizes and what is configured
//   - tattoo_generate: Generate a design from a prompt
//   - tattoo_designs: List remembered designs
//   - tattoo_design_export: Fetch a remembered design
//
// Placement:
//   - tattoo_resolve: Placement geometry without rendering
//   - tattoo_preview: Composite a design onto a background
//   - tattoo_zoom: Close-up of the placed design
//   - tattoo_placement_grid: Percentage guides on a background
//
// Image Inspection:
//   - image_load, image_dimensions: Metadata
//   - image_sample_color, image_sample_colors_multi: Pixel colors
//   - tattoo_palette: Ink colors of a design
//
// Artist Handoff:
//   - tattoo_stencil: Line-art stencil
//   - tattoo_lettering_check: OCR check of lettering
//
// Catalog:
//   - tattoo_studios: Studios and booking QR codes
//   - tattoo_gallery: Inspiration photos
//
// Designs are named by design_path or, when a library is configured, by
// design_id. Tools that produce images return base64 PNG unless an
// output_path is given.
//
// # Image Caching
//
// Backgrounds and designs loaded from disk are cached by path for the
// lifetime of the process. Rendered previews are kept in an LRU keyed by
// the image fingerprints and the placement controls, so repeating a
// preview does not composite again. The resampled and rotated design of
// recent image pairs is kept as well, so moving or fading a design skips
// the expensive stages.
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses:
//   - -32602: malformed arguments or out-of-range placement controls
//   - -32000: any other tool failure, such as an unreadable image or a
//     failed generation
//   - -32601: unknown method
//
// The error data carries the Go error string.
//
// # Usage
//
//	srv := server.New(server.WithGenerator(gen), server.WithDesigns(lib))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
