package transport

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rhuss/xsltfn/pkg/api"
	"github.com/rhuss/xsltfn/pkg/observability"
)

// WriteResult writes a successful transformation: HTTP 200, the caller's
// content type verbatim and the output bytes.
func WriteResult(w http.ResponseWriter, res *api.TransformResult) {
	w.Header().Set(api.HeaderContentType, res.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Output)))
	w.WriteHeader(http.StatusOK)
	w.Write(res.Output)
}

// WriteError writes err as the JSON error envelope with HTTP 400,
// whatever its kind. now supplies the envelope timestamps; nil means
// time.Now.
func WriteError(w http.ResponseWriter, err error, now func() time.Time) {
	observability.FailuresTotal.WithLabelValues(string(api.KindOf(err))).Inc()

	body, merr := api.NewErrorEnvelope(err, now).Marshal()
	if merr != nil {
		// Unreachable for string fields; keep the status contract anyway.
		slog.Error("marshaling error envelope", "error", merr)
		body = []byte("[]")
	}

	w.Header().Set(api.HeaderContentType, "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusBadRequest)
	w.Write(body)
}
