package api

// Request and response header names understood by the function.
const (
	HeaderXsltFileName      = "XsltFileName"
	HeaderOutputContentType = "Output-Content-Type"
	HeaderContentType       = "Content-Type"
	HeaderRequestID         = "X-Request-ID"
)

// DefaultOutputContentType labels the response when the caller does not
// send Output-Content-Type.
const DefaultOutputContentType = "text/xml"

// FunctionName identifies this function in error envelopes and routes.
const FunctionName = "ApplyXSLTTransformation"

// TransformResult is the outcome of a successful transformation. Output is
// serialized exactly as the stylesheet's xsl:output declares; ContentType only
// labels the HTTP response.
type TransformResult struct {
	Output      []byte
	ContentType string
}
