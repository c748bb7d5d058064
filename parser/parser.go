// Package parser turns raw NEMWEB report payloads into typed records. Each
// feed family has one entry point taking raw bytes and returning a slice of
// model rows. Malformed lines are skipped and counted, never fatal; a payload
// that yields zero usable rows returns ErrNoData so callers can tell an empty
// feed from a transport failure.
package parser

import (
	"bufio"
	"bytes"
	"errors"
)

// ErrNoData reports a structurally valid payload that contained no usable
// records after filtering and skipping.
var ErrNoData = errors.New("no usable records in payload")

// maxLineBytes bounds a single report line. Bid files carry wide rows but
// nothing close to this.
const maxLineBytes = 1024 * 1024

func lineScanner(raw []byte) *bufio.Scanner {
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return sc
}
