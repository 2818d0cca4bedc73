package historical_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openlawlibrary/stelae-sub000/stelae/go/historical"
)

const sampleDoc = `<html><head>` +
	`<meta property="og:title" content="Title">` +
	`<meta property="og:url" content="https://example.com/us/ca/code.html">` +
	`<meta itemprop="full-html" content="/us/ca/code/full.html">` +
	`</head><body>` +
	`<a href="/us/ca/code/index.html">link</a>` +
	`<a href="related.html">relative</a>` +
	`<span id="/us/ca/code/section-1"></span>` +
	`<object type="application/pdf" data="code.pdf"></object>` +
	`<h2 id="/us/ca/code/header"></h2>` +
	`</body></html>`

func TestRewriteHTML_RewritesOGTitle(t *testing.T) {
	out := historical.RewriteHTML([]byte(sampleDoc), "/us/ca/code.html", "2020-05-04")
	require.Contains(t, string(out), `content="Title | Historical version from May 4, 2020"`)
}

func TestRewriteHTML_RewritesOGURL(t *testing.T) {
	out := historical.RewriteHTML([]byte(sampleDoc), "/us/ca/code.html", "2020-05-04")
	require.Contains(t, string(out), `https://example.com/_date/2020-05-04/us/ca/code.html`)
}

func TestRewriteHTML_RewritesItemPropContent(t *testing.T) {
	out := historical.RewriteHTML([]byte(sampleDoc), "/us/ca/code.html", "2020-05-04")
	require.Contains(t, string(out), `content="/_date/2020-05-04/us/ca/code/full.html"`)
}

func TestRewriteHTML_RewritesAbsoluteHref(t *testing.T) {
	out := historical.RewriteHTML([]byte(sampleDoc), "/us/ca/code.html", "2020-05-04")
	require.Contains(t, string(out), `href="/_date/2020-05-04/us/ca/code/index.html"`)
}

func TestRewriteHTML_LeavesRelativeHrefUntouched(t *testing.T) {
	out := historical.RewriteHTML([]byte(sampleDoc), "/us/ca/code.html", "2020-05-04")
	require.Contains(t, string(out), `href="related.html"`)
}

func TestRewriteHTML_RewritesSpanID(t *testing.T) {
	out := historical.RewriteHTML([]byte(sampleDoc), "/us/ca/code.html", "2020-05-04")
	require.Contains(t, string(out), `id="/_date/2020-05-04/us/ca/code/section-1"`)
}

func TestRewriteHTML_RewritesPDFObjectDataRelativeToDocDir(t *testing.T) {
	out := historical.RewriteHTML([]byte(sampleDoc), "/us/ca/code/index.html", "2020-05-04")
	require.Contains(t, string(out), `data="/us/ca/code/code.pdf"`)
}

func TestRewriteHTML_RewritesHeadingID(t *testing.T) {
	out := historical.RewriteHTML([]byte(sampleDoc), "/us/ca/code.html", "2020-05-04")
	require.Contains(t, string(out), `id="/_date/2020-05-04/us/ca/code/header"`)
}

func TestRewriteHTML_InjectsHistoricalPrefixMetaTag(t *testing.T) {
	out := historical.RewriteHTML([]byte(sampleDoc), "/us/ca/code.html", "2020-05-04")
	require.Contains(t, string(out), `itemprop="historical-prefix"`)
	require.Contains(t, string(out), `content="/_date/2020-05-04"`)
}

func TestRewriteHTML_AppendsMetaTagWhenHeadHasFewerThan13Children(t *testing.T) {
	out := historical.RewriteHTML([]byte(sampleDoc), "/us/ca/code.html", "2020-05-04")
	headEnd := strings.Index(string(out), "</head>")
	metaIdx := strings.Index(string(out), `itemprop="historical-prefix"`)
	require.Greater(t, headEnd, 0)
	require.Greater(t, metaIdx, 0)
	require.Less(t, metaIdx, headEnd)
}

const sampleManifest = `{
  "start_url": "/us/ca/",
  "scope": "/us/ca/",
  "icons": [{"src": "/static/icon.png", "sizes": "192x192"}]
}`

func TestRewriteJSON_Manifest_PrefixesStartURLAndScope(t *testing.T) {
	out := historical.RewriteJSON([]byte(sampleManifest), "manifest.json", "2020-05-04")
	require.Contains(t, string(out), `/_date/2020-05-04/us/ca/`)
}

func TestRewriteJSON_Manifest_PrefixesIconSrc(t *testing.T) {
	out := historical.RewriteJSON([]byte(sampleManifest), "manifest.json", "2020-05-04")
	require.Contains(t, string(out), `/_date/2020-05-04/static/icon.png`)
}

const sampleIndexDocument = `{
  "p": "/us/ca/code",
  "j": "/us/ca/code.json",
  "q": "unrelated",
  "n": "California Code",
  "c": [
    {"p": "/us/ca/code/1", "n": "Section 1"},
    {"dj": "/us/ca/code/2.json", "fh": "/us/ca/code/2/full.html"}
  ]
}`

func TestRewriteJSON_IndexDocument_PrefixesTopLevelKeys(t *testing.T) {
	out := historical.RewriteJSON([]byte(sampleIndexDocument), "index.json", "2020-05-04")
	require.Contains(t, string(out), `/_date/2020-05-04/us/ca/code`)
	require.Contains(t, string(out), `/_date/2020-05-04/us/ca/code.json`)
}

func TestRewriteJSON_IndexDocument_LeavesQAndNUntouched(t *testing.T) {
	out := historical.RewriteJSON([]byte(sampleIndexDocument), "index.json", "2020-05-04")
	require.Contains(t, string(out), `"unrelated"`)
	require.Contains(t, string(out), `"California Code"`)
}

func TestRewriteJSON_IndexDocument_RecursesIntoChildren(t *testing.T) {
	out := historical.RewriteJSON([]byte(sampleIndexDocument), "index.json", "2020-05-04")
	require.Contains(t, string(out), `/_date/2020-05-04/us/ca/code/1`)
	require.Contains(t, string(out), `/_date/2020-05-04/us/ca/code/2.json`)
	require.Contains(t, string(out), `/_date/2020-05-04/us/ca/code/2/full.html`)
}

func TestRewriteJSON_MalformedInput_FallsBackToOriginalBytes(t *testing.T) {
	malformed := []byte(`{not valid json`)
	out := historical.RewriteJSON(malformed, "index.json", "2020-05-04")
	require.Equal(t, malformed, out)
}

