package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Record is one flat row keyed by column name.
type Record map[string]string

// Table is a titled list of records sharing the schema in Columns.
type Table struct {
	Title   string
	Columns []string
	Records []Record
}

// Artifact is a rendered, shareable file.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Sink turns a table into a file in the requested format.
type Sink interface {
	Export(ctx context.Context, table Table, format Format) (*Artifact, error)
}

type fileSink struct{}

// NewSink returns a Sink rendering spreadsheets and printable documents.
func NewSink() Sink {
	return fileSink{}
}

func (fileSink) Export(ctx context.Context, table Table, format Format) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(table.Columns) == 0 {
		return nil, errors.New("export table has no columns")
	}

	var (
		data        []byte
		err         error
		contentType string
	)
	switch format {
	case FormatXLSX:
		data, err = renderXLSX(table)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		data, err = renderPDF(table, true)
		contentType = "application/pdf"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", format, err)
	}
	return &Artifact{
		Filename:    Filename(table.Title, format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// Filename derives a filesystem-safe name from a title.
func Filename(title string, format Format) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			return r
		}
		return '_'
	}, strings.TrimSpace(title))
	name = strings.Trim(name, "_")
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	if name == "" {
		name = "report"
	}
	return name + "." + string(format)
}
