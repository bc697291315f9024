package protocol

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrEmptyRequest indicates the client sent nothing but whitespace.
	ErrEmptyRequest = errors.New("empty request")

	// ErrRequestTooLarge indicates the request exceeded the configured size limit.
	ErrRequestTooLarge = errors.New("request too large")
)

const requestTerminator = "</request>"

// xmlDecl is xml.Header without its trailing newline so the response stays on one line.
var xmlDecl = strings.TrimSuffix(xml.Header, "\n")

// ReadRequest reads lines from r until a line whose trimmed text ends with
// </request>, or EOF. At most maxBytes are consumed when maxBytes > 0.
func ReadRequest(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	br := bufio.NewReader(r)

	var buf bytes.Buffer
	for {
		line, err := br.ReadString('\n')
		buf.WriteString(line)
		if maxBytes > 0 && int64(buf.Len()) > maxBytes {
			return nil, ErrRequestTooLarge
		}
		if strings.HasSuffix(strings.TrimSpace(line), requestTerminator) {
			break
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	if len(bytes.TrimSpace(buf.Bytes())) == 0 {
		return nil, ErrEmptyRequest
	}
	return buf.Bytes(), nil
}

// ParseRequest decodes a request envelope. Action and username are trimmed.
func ParseRequest(raw []byte) (*Request, error) {
	var req Request
	if err := xml.Unmarshal(raw, &req); err != nil {
		return nil, err
	}
	req.Action = strings.TrimSpace(req.Action)
	req.Username = strings.TrimSpace(req.Username)
	return &req, nil
}

// EncodeRequest writes req on a single line terminated by a newline.
func EncodeRequest(w io.Writer, req *Request) error {
	out, err := xml.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}

// EncodeResponse writes the XML declaration and resp on a single line
// terminated by a newline.
func EncodeResponse(w io.Writer, resp *Response) error {
	out, err := MarshalResponse(resp)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// MarshalResponse returns the wire form of resp.
func MarshalResponse(resp *Response) ([]byte, error) {
	body, err := xml.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	out := make([]byte, 0, len(xmlDecl)+len(body)+1)
	out = append(out, xmlDecl...)
	out = append(out, body...)
	return append(out, '\n'), nil
}

// DecodeResponse parses a response envelope.
func DecodeResponse(raw []byte) (*Response, error) {
	var resp Response
	if err := xml.Unmarshal(bytes.TrimSpace(raw), &resp); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	return &resp, nil
}
