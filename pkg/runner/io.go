package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Reply is what the runner hands to the handler after each question.
type Reply struct {
	RequestID string   `json:"request_id,omitempty"`
	Question  string   `json:"question"`
	Answer    string   `json:"answer"`
	Path      []string `json:"path,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// IOHandler defines how questions are read and replies presented.
type IOHandler interface {
	Output(ctx context.Context, reply Reply) error
	// Input returns io.EOF when the stream ends.
	Input(ctx context.Context) (string, error)
}

// ContentRenderer transforms an answer before it is printed, e.g. markdown
// to ANSI, without coupling this package to a terminal library.
type ContentRenderer func(string) (string, error)

// TextHandler implements the interactive text interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	Prompt   string
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
		Prompt: "> ",
	}
}

func (h *TextHandler) Output(ctx context.Context, reply Reply) error {
	if reply.Error != "" {
		_, err := fmt.Fprintf(h.Writer, "Erro: %s\n", reply.Error)
		return err
	}
	out := reply.Answer
	if h.Renderer != nil {
		if rendered, err := h.Renderer(out); err == nil {
			out = rendered
		}
	}
	_, err := fmt.Fprintln(h.Writer, strings.TrimSpace(out))
	return err
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	fmt.Fprint(h.Writer, h.Prompt)
	return readLine(h.Reader)
}

// JSONHandler implements JSON Lines communication. Each input line is either
// a JSON string, an object with a "question" field, or raw text.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: enc,
	}
}

func (h *JSONHandler) Output(ctx context.Context, reply Reply) error {
	return h.Encoder.Encode(reply)
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := readLine(h.Reader)
	if err != nil {
		return "", err
	}

	var s string
	if err := json.Unmarshal([]byte(text), &s); err == nil {
		return s, nil
	}
	var obj struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		return obj.Question, nil
	}
	return text, nil
}

// readLine returns the last unterminated line before reporting io.EOF.
func readLine(r *bufio.Reader) (string, error) {
	text, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && text != "" {
			return strings.TrimSpace(text), nil
		}
		return "", err
	}
	return strings.TrimSpace(text), nil
}
