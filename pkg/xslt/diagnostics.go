package xslt

/*
#cgo pkg-config: libxml-2.0 libxslt

#include <stdarg.h>
#include <stdio.h>
#include <libxml/xmlerror.h>
#include <libxslt/xsltutils.h>

#define XSLTFN_DIAG_MAX 4096

static __thread char xsltfn_diag[XSLTFN_DIAG_MAX];
static __thread size_t xsltfn_diag_len;
static __thread int xsltfn_capturing;

// Threads that are not capturing keep the libxml2 default of stderr.
static void xsltfn_collect(void *ctx, const char *msg, ...) {
	va_list ap;
	va_start(ap, msg);
	if (!xsltfn_capturing) {
		vfprintf(stderr, msg, ap);
	} else if (xsltfn_diag_len < XSLTFN_DIAG_MAX - 1) {
		int n = vsnprintf(xsltfn_diag + xsltfn_diag_len,
			XSLTFN_DIAG_MAX - xsltfn_diag_len, msg, ap);
		if (n > 0) {
			xsltfn_diag_len += (size_t)n;
			if (xsltfn_diag_len > XSLTFN_DIAG_MAX - 1) {
				xsltfn_diag_len = XSLTFN_DIAG_MAX - 1;
			}
		}
	}
	va_end(ap);
}

static void xsltfn_capture_begin(void) {
	xmlResetLastError();
	xsltfn_diag_len = 0;
	xsltfn_diag[0] = '\0';
	xsltfn_capturing = 1;
	xmlSetGenericErrorFunc(NULL, xsltfn_collect);
	xsltSetGenericErrorFunc(NULL, xsltfn_collect);
}

static const char *xsltfn_capture_end(void) {
	xsltfn_capturing = 0;
	xmlResetLastError();
	return xsltfn_diag;
}
*/
import "C"

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/rhuss/xsltfn/pkg/debug"
)

// withLibxml runs fn pinned to one OS thread, with libxml2's thread-local
// last error cleared before and after. Messages libxml2 and libxslt emit
// while fn runs are returned instead of going to stderr.
func withLibxml(op string, fn func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	C.xsltfn_capture_begin()
	err := fn()
	diag := cleanDiagnostics(C.GoString(C.xsltfn_capture_end()))

	if diag != "" {
		debug.Log("transform", "libxslt diagnostics", "op", op, "message", diag)
	}
	if err != nil && diag != "" {
		return fmt.Errorf("%w: %s", err, diag)
	}
	return err
}

// cleanDiagnostics joins the non-empty lines of raw with "; ".
func cleanDiagnostics(raw string) string {
	var lines []string
	for _, l := range strings.Split(raw, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "; ")
}
