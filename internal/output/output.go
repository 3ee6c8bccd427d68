// Package output prints control plane results for humans.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	builderr "github.com/alexjbarnes/build-cli/internal/errors"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json or yaml, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", builderr.Invalid("output format", s, "expected json or yaml")
	}
}

// Printer writes values in a fixed format.
type Printer struct {
	out    io.Writer
	format Format
}

// NewPrinter creates a printer. An empty format means JSON.
func NewPrinter(w io.Writer, format Format) *Printer {
	if format == "" {
		format = FormatJSON
	}

	return &Printer{out: w, format: format}
}

// Print encodes v followed by a newline. A nil v prints null.
func (p *Printer) Print(v any) error {
	switch p.format {
	case FormatYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}

		return enc.Close()
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}

		_, err = fmt.Fprintln(p.out, string(data))
		return err
	}
}

// Line prints a plain message.
func (p *Printer) Line(msg string) {
	fmt.Fprintln(p.out, msg)
}

// Writer exposes the destination for callers that stream text.
func (p *Printer) Writer() io.Writer {
	return p.out
}
