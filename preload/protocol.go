// Package preload implements the long-running, Unix-domain-socket-bound
// preloader server: component F of the pipeline engine. It keeps a pool of
// pre-initialised worker handlers per processor so expensive model loads
// happen once, and serves individual job requests over a framed binary
// protocol, per spec §4.F and §6 "Socket".
package preload

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gofrs/uuid/v5"
)

// Request is one job dispatch sent by the scheduler over the socket, per
// spec §4.F "Dispatch": "(processor_id, parameter_bindings, source_file)".
type Request struct {
	ID          string                 `json:"id"`
	ProcessorID string                 `json:"processor_id"`
	Bindings    map[string]interface{} `json:"bindings"`
	SourceFile  string                 `json:"source_file,omitempty"`
	Fingerprint string                 `json:"fingerprint"`
}

// NewRequest stamps a correlation ID onto a request, grounded on the
// teacher's use of gofrs/uuid for instance/request IDs.
func NewRequest(processorID string, bindings map[string]interface{}, sourceFile, fingerprint string) Request {
	id, _ := uuid.NewV4()
	return Request{
		ID:          id.String(),
		ProcessorID: processorID,
		Bindings:    bindings,
		SourceFile:  sourceFile,
		Fingerprint: fingerprint,
	}
}

// Outcome is a Response's terminal classification.
type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeRefusedBusy    Outcome = "refused_busy"
	OutcomeConfigMismatch Outcome = "config_mismatch"
	OutcomeError          Outcome = "error"
)

// Response answers one Request, correlated by ID.
type Response struct {
	ID      string  `json:"id"`
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error,omitempty"`
}

// writeFrame writes a length-prefixed JSON message, per spec §6 "Socket:
// Unix-domain stream; framed request/response messages (length-prefixed,
// binary payload)."
func writeFrame(w io.Writer, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if len(payload) > (1 << 30) {
		return fmt.Errorf("preload: frame too large (%d bytes)", len(payload))
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := bw.Write(payload); err != nil {
		return err
	}
	return bw.Flush()
}

// readFrame reads one length-prefixed JSON message into v.
func readFrame(r io.Reader, v interface{}) error {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > (1 << 30) {
		return fmt.Errorf("preload: frame too large (%d bytes)", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	return json.Unmarshal(buf, v)
}
