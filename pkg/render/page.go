package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vango-dev/writdesk/pkg/dom"
)

// RootID is the id of the element the browser shim mirrors the session
// document into.
const RootID = "writdesk-root"

// PageData contains all data needed to render the page shell.
type PageData struct {
	// Body is the initial document, rendered inside the root element.
	// It may be nil; the session sends the live document on connect.
	Body *dom.Node

	// Title is the page title
	Title string

	// Lang is the language attribute for the html element.
	// Defaults to "en" if not specified.
	Lang string

	// StyleSheets contains paths to external stylesheets
	StyleSheets []string

	// Styles contains inline CSS styles
	Styles []string

	// SocketPath is the WebSocket endpoint the shim connects to.
	SocketPath string
}

// RenderPage renders a complete HTML document to the given writer.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}

	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"%s\">\n", escapeAttr(lang)); err != nil {
		return err
	}
	if err := r.renderHead(w, page); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "<body>\n<div id=\"%s\">", RootID); err != nil {
		return err
	}
	if page.Body != nil {
		if err := r.RenderToWriter(w, page.Body); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "</div>\n"); err != nil {
		return err
	}
	if err := r.renderClientScript(w, page); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}

// renderHead renders the document head section.
func (r *Renderer) renderHead(w io.Writer, page PageData) error {
	if _, err := io.WriteString(w, "<head>\n  <meta charset=\"utf-8\">\n"+
		"  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n"); err != nil {
		return err
	}
	if page.Title != "" {
		if _, err := fmt.Fprintf(w, "  <title>%s</title>\n", escapeHTML(page.Title)); err != nil {
			return err
		}
	}
	for _, href := range page.StyleSheets {
		if _, err := fmt.Fprintf(w, `  <link rel="stylesheet" href="%s">`+"\n", escapeAttr(href)); err != nil {
			return err
		}
	}
	for _, style := range page.Styles {
		if _, err := fmt.Fprintf(w, "  <style>%s</style>\n", style); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</head>\n")
	return err
}

// clientScript mirrors the session document and forwards hash changes,
// clicks and input changes. %s receives the JSON-encoded socket path.
const clientScript = `(function(){
var root=document.getElementById(%q);
var scheme=location.protocol==="https:"?"wss://":"ws://";
var ws=new WebSocket(scheme+location.host+%s);
function send(m){if(ws.readyState===1)ws.send(JSON.stringify(m));}
ws.onopen=function(){send({t:"hello",hash:location.hash});};
ws.onmessage=function(e){var m=JSON.parse(e.data);
if(m.t==="body"){root.innerHTML=m.html;}
else if(m.t==="hash"&&location.hash!==m.hash){location.hash=m.hash;}};
window.addEventListener("hashchange",function(){send({t:"hash",hash:location.hash});});
root.addEventListener("click",function(e){var el=e.target.closest("[data-on-click]");
if(!el)return;e.preventDefault();send({t:"click",id:el.getAttribute("data-nid")});});
root.addEventListener("change",function(e){var el=e.target.closest("[data-on-input]");
if(!el)return;send({t:"input",id:el.getAttribute("data-nid"),value:el.value});});
})();`

// renderClientScript injects the browser shim.
func (r *Renderer) renderClientScript(w io.Writer, page PageData) error {
	path := page.SocketPath
	if path == "" {
		path = "/ws"
	}
	encoded, err := json.Marshal(path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "<script>"+clientScript+"</script>\n", RootID, encoded)
	return err
}
