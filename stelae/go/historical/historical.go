// Package historical implements C7: rewriting HTML and JSON documents for
// archival browsing under /_date/{date}/..., per the element/attribute
// rule table and local-URL-prefix rule in spec §4.7.
package historical

import (
	"bytes"
	"encoding/json"
	"path"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/openlawlibrary/stelae-sub000/go/sklog"
)

// indexDocumentKeys are the index-document fields that carry local URLs
// and so need the /_date/{date} prefix; every other key (q, n, ...) is
// left alone.
var indexDocumentKeys = map[string]bool{
	"p":  true,
	"j":  true,
	"dj": true,
	"fh": true,
}

const metaTagChildIndex = 13

// RewriteHTML parses content permissively, rewrites its links and
// metadata per spec §4.7's rule table, and injects the historical-prefix
// meta tag into <head>. On any parse failure it logs and returns the
// original bytes verbatim, since a broken archival rewrite must never
// take down the document entirely.
func RewriteHTML(content []byte, docPath, versionDate string) []byte {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		sklog.Errorf("parsing historical HTML for %s: %v", docPath, err)
		return content
	}

	rewriteNode(doc, docPath, versionDate)
	injectHistoricalMetaTag(doc, versionDate)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		sklog.Errorf("rendering historical HTML for %s: %v", docPath, err)
		return content
	}
	return buf.Bytes()
}

func rewriteNode(n *html.Node, docPath, versionDate string) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Meta:
			rewriteMeta(n, docPath, versionDate)
		case atom.A:
			rewriteAttr(n, "href", docPath, versionDate, localURLPrefix)
		case atom.Span:
			rewriteAttr(n, "id", docPath, versionDate, localURLPrefix)
		case atom.Object:
			if attr(n, "type") == "application/pdf" {
				rewriteAttr(n, "data", docPath, versionDate, localURLPrefix)
			}
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			rewriteAttr(n, "id", docPath, versionDate, localURLPrefix)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c, docPath, versionDate)
	}
}

func rewriteMeta(n *html.Node, docPath, versionDate string) {
	switch attr(n, "property") {
	case "og:title":
		setAttr(n, "content", attr(n, "content")+" | Historical version from "+formatVersionDate(versionDate))
	case "og:url":
		content := attr(n, "content")
		setAttr(n, "content", strings.Replace(content, docPath, "/_date/"+versionDate+docPath, 1))
	}
	switch attr(n, "itemprop") {
	case "full-html", "toc-json":
		rewriteAttr(n, "content", docPath, versionDate, localURLPrefix)
	}
}

func rewriteAttr(n *html.Node, name, docPath, versionDate string, transform func(value, docPath, versionDate string) string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = transform(n.Attr[i].Val, docPath, versionDate)
			return
		}
	}
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// localURLPrefix implements spec §4.7's local-URL-prefix rule: a .pdf
// link is resolved relative to the serving document's own directory; an
// absolute ("/"-prefixed) link is prefixed with /_date/{date}; anything
// else (a relative, non-PDF link) is left untouched.
func localURLPrefix(value, docPath, versionDate string) string {
	if strings.HasSuffix(value, ".pdf") {
		base := strings.TrimSuffix(docPath, "/index.full.html")
		base = strings.TrimSuffix(base, "/index.html")
		base = "/" + strings.Trim(base, "/")
		return path.Join(base, value)
	}
	if strings.HasPrefix(value, "/") {
		return "/_date/" + versionDate + value
	}
	return value
}

func formatVersionDate(versionDate string) string {
	t, err := time.Parse("2006-01-02", versionDate)
	if err != nil {
		return versionDate
	}
	return t.Format("January 2, 2006")
}

// injectHistoricalMetaTag inserts <meta itemprop="historical-prefix"
// content="/_date/{date}"> into <head>, at child index 13 when the head
// has at least that many children (matching the original's own
// formatting), or appended otherwise.
func injectHistoricalMetaTag(doc *html.Node, versionDate string) {
	head := findHead(doc)
	if head == nil {
		return
	}

	meta := &html.Node{
		Type: html.ElementNode,
		Data: "meta",
		Attr: []html.Attribute{
			{Key: "itemprop", Val: "historical-prefix"},
			{Key: "content", Val: "/_date/" + versionDate},
		},
	}

	children := make([]*html.Node, 0)
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}

	if len(children) > metaTagChildIndex {
		head.InsertBefore(meta, children[metaTagChildIndex])
		return
	}
	head.AppendChild(meta)
}

// RewriteJSON rewrites a manifest.json or index-document JSON payload for
// archival browsing (spec §4.7). A manifest (identified by "manifest"
// appearing in docPath) has its start_url, scope, and icon sources
// prefixed; an index document is walked recursively, prefixing the p,
// j, dj, and fh keys and descending into c (children). Any value that
// does not already start with "/" is left untouched, matching the
// HTML-side local-URL-prefix rule. A parse failure returns the original
// bytes unchanged.
func RewriteJSON(content []byte, docPath, versionDate string) []byte {
	var doc interface{}
	if err := json.Unmarshal(content, &doc); err != nil {
		sklog.Errorf("parsing historical JSON for %s: %v", docPath, err)
		return content
	}

	if strings.Contains(docPath, "manifest") {
		rewriteManifest(doc, versionDate)
	} else {
		rewriteIndexDocument(doc, versionDate)
	}

	out, err := json.Marshal(doc)
	if err != nil {
		sklog.Errorf("rendering historical JSON for %s: %v", docPath, err)
		return content
	}
	return out
}

func rewriteManifest(doc interface{}, versionDate string) {
	obj, ok := doc.(map[string]interface{})
	if !ok {
		return
	}
	for _, key := range []string{"start_url", "scope"} {
		if v, ok := obj[key].(string); ok {
			obj[key] = datePrefix(v, versionDate)
		}
	}
	icons, ok := obj["icons"].([]interface{})
	if !ok {
		return
	}
	for _, icon := range icons {
		iconObj, ok := icon.(map[string]interface{})
		if !ok {
			continue
		}
		if src, ok := iconObj["src"].(string); ok {
			iconObj["src"] = datePrefix(src, versionDate)
		}
	}
}

func rewriteIndexDocument(doc interface{}, versionDate string) {
	switch v := doc.(type) {
	case map[string]interface{}:
		for key, val := range v {
			if indexDocumentKeys[key] {
				if s, ok := val.(string); ok {
					v[key] = datePrefix(s, versionDate)
					continue
				}
			}
			if key == "c" {
				rewriteIndexDocument(val, versionDate)
				continue
			}
		}
	case []interface{}:
		for _, item := range v {
			rewriteIndexDocument(item, versionDate)
		}
	}
}

func datePrefix(value, versionDate string) string {
	if strings.HasPrefix(value, "/") {
		return "/_date/" + versionDate + value
	}
	return value
}

func findHead(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Head {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if head := findHead(c); head != nil {
			return head
		}
	}
	return nil
}
