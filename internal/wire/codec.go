package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrShortFrame wraps any failure to read a complete length-prefixed frame
// (a partial header, a short body, or a read error), except a clean EOF
// before the first header byte, which is reported as io.EOF. It is a
// terminal condition: the caller must close the connection.
var ErrShortFrame = errors.New("wire: short frame, connection closed")

// ReadResponse reads exactly one length-prefixed frame from r and decodes
// it as a Response. A clean EOF reading the 4-byte length header is
// reported as io.EOF; any other truncation or decode failure is terminal
// and non-recoverable (the byte stream is desynchronised).
func ReadResponse(r io.Reader) (*Response, error) {
	resp, _, err := ReadResponseSize(r)
	return resp, err
}

// ReadResponseSize is ReadResponse plus the decoded payload's size in
// bytes, as used by the connection reader loop to update an instance's
// byte counter without re-marshalling the message.
func ReadResponseSize(r io.Reader) (*Response, int, error) {
	payload, err := readFrame(r)
	if err != nil {
		return nil, 0, err
	}
	resp := &Response{}
	if err := resp.Unmarshal(payload); err != nil {
		return nil, 0, fmt.Errorf("wire: decode response: %w", err)
	}
	return resp, len(payload), nil
}

// WriteResponse frames and writes a Response (used by the health-check
// probe and test harnesses that speak the local-client side of the
// protocol).
func WriteResponse(w io.Writer, msg *Response) error {
	return writeFrame(w, msg.Marshal())
}

// ReadRequest reads exactly one length-prefixed frame from r and decodes
// it as a Request (the bridge-to-local-client direction).
func ReadRequest(r io.Reader) (*Request, error) {
	payload, err := readFrame(r)
	if err != nil {
		return nil, err
	}
	req := &Request{}
	if err := req.Unmarshal(payload); err != nil {
		return nil, fmt.Errorf("wire: decode request: %w", err)
	}
	return req, nil
}

// WriteRequest frames and writes a Request to w.
func WriteRequest(w io.Writer, msg *Request) error {
	return writeFrame(w, msg.Marshal())
}

func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: %v", ErrShortFrame, err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShortFrame, err)
	}
	return payload, nil
}

func writeFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))

	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("wire: write length prefix: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("wire: write payload: %w", err)
	}
	return nil
}
