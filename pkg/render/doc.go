// Package render serialises dom trees to HTML.
//
// It produces the page shell served on first load and the inner HTML the
// session pushes to the browser after every change:
//
//   - text and attribute escaping
//   - void element handling (input, br, img, etc.)
//   - template content rendered inert inside <template>
//   - data-nid / data-on-<event> markers for elements with listeners
//
// # Basic Usage
//
//	renderer := render.NewRenderer(render.RendererConfig{NodeIDs: true})
//	html, err := renderer.RenderInner(document)
//
// # Security
//
// All text content is escaped. Raw nodes are written verbatim and should
// only carry trusted content, such as markdown rendered by the writ package.
package render
