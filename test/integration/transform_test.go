package integration

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/rhuss/xsltfn/pkg/xslt"
)

func TestTransformDefaultContentType(t *testing.T) {
	resp := postTransform(t, "<a><b>1</b></a>", map[string]string{"XsltFileName": "rename.xslt"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, readBody(t, resp))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/xml" {
		t.Errorf("Content-Type = %q, want text/xml", ct)
	}
	if body := strings.TrimSpace(readBody(t, resp)); body != "<c>1</c>" {
		t.Errorf("body = %q, want <c>1</c>", body)
	}
}

func TestTransformCustomContentType(t *testing.T) {
	resp := postTransform(t, "<a><b>hello</b></a>", map[string]string{
		"XsltFileName":        "html.xslt",
		"Output-Content-Type": "text/html; charset=utf-8",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, readBody(t, resp))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q, want it verbatim", ct)
	}
	if body := readBody(t, resp); !strings.Contains(body, "<p>hello</p>") {
		t.Errorf("body = %q, want <p>hello</p>", body)
	}
}

func TestTransformJSONLabelKeepsHTMLSerialization(t *testing.T) {
	const input = "<a><b>x &lt; y</b></a>"

	xs, err := xslt.Compile([]byte(htmlXSLT))
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	defer xs.Close()
	doc, err := xslt.ParseDocument([]byte(input))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	want, err := xs.Apply(context.Background(), doc)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	resp := postTransform(t, input, map[string]string{
		"XsltFileName":        "html.xslt",
		"Output-Content-Type": "application/json",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if body := readBody(t, resp); body != string(want) {
		t.Errorf("body = %q, want HTML serialization %q", body, want)
	}
}

func TestTransformPicksUpNewStylesheets(t *testing.T) {
	testEnv.Store.Put(testContainer, "late.xslt", []byte(renameXSLT))
	defer testEnv.Store.Delete(testContainer, "late.xslt")

	resp := postTransform(t, "<a><b>2</b></a>", map[string]string{"XsltFileName": "late.xslt"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, readBody(t, resp))
	}
}

func TestTransformEchoesRequestID(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, testEnv.FunctionURL(), strings.NewReader("<a><b>1</b></a>"))
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("x-functions-key", testKey)
	req.Header.Set("XsltFileName", "rename.xslt")
	req.Header.Set("X-Request-ID", "req-42")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "req-42" {
		t.Errorf("X-Request-ID = %q, want req-42", got)
	}
}
