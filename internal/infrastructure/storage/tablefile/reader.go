package tablefile

import (
	"archive/zip"
	"bufio"
	"compress/bzip2"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/turtacn/patentsview-graph/internal/domain/patentsview"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
	"github.com/turtacn/patentsview-graph/pkg/types/common"
)

const readBufferSize = 1 << 20

// Item is the outcome of reading one data line.
type Item = common.Result[patentsview.Record]

// Reader opens table extracts. It is stateless; every Open starts a fresh
// pass over the file, which makes streams restartable.
type Reader struct {
	opts   patentsview.ParseOptions
	logger logging.Logger
}

// NewReader creates a Reader.
func NewReader(opts patentsview.ParseOptions, logger logging.Logger) *Reader {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Reader{opts: opts, logger: logger.Named("tablefile")}
}

// CheckHeader verifies that f exists, is readable and has every required
// column. Violations are ConfigErrors.
func (r *Reader) CheckHeader(f File) error {
	s, err := r.Open(f)
	if err != nil {
		return err
	}
	return s.Close()
}

// Open returns a Stream positioned after the header row.
func (r *Reader) Open(f File) (*Stream, error) {
	table, ok := patentsview.Lookup(f.Table)
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.ErrCodeConfig, "unknown table %q", f.Table)
	}

	raw, format, closers, err := openRaw(f)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeDataDir, "cannot open table file").WithDetail(f.Path)
	}
	decoded := transform.NewReader(raw, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	buffered := bufio.NewReaderSize(decoded, readBufferSize)

	var src lineSource
	if format == FormatCSV {
		src = newCSVSource(buffered)
	} else {
		src = &tsvSource{r: buffered}
	}

	s := &Stream{file: f, table: table, src: src, closers: closers, opts: r.opts}

	header, _, err := src.next()
	if err != nil {
		_ = s.Close()
		if errors.Is(err, io.EOF) {
			return nil, pkgerrors.New(pkgerrors.ErrCodeHeaderMismatch, "table file is empty").WithDetail(f.Path)
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeHeaderMismatch, "cannot read header row").WithDetail(f.Path)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if missing := table.MissingColumns(header); len(missing) > 0 {
		_ = s.Close()
		return nil, pkgerrors.New(pkgerrors.ErrCodeHeaderMismatch, "header lacks required columns").
			WithDetail(fmt.Sprintf("%s: %s", f.Path, strings.Join(missing, ", ")))
	}
	s.header = header
	s.index = patentsview.NewIndex(header)

	r.logger.Debug("table opened",
		logging.String(logging.FieldTable, string(f.Table)),
		logging.String(logging.FieldFile, f.Path),
		logging.String("format", format.String()),
		logging.Int("columns", len(header)))
	return s, nil
}

// Stream yields the typed records of one table file.
type Stream struct {
	file    File
	table   patentsview.Table
	header  []string
	index   map[string]int
	src     lineSource
	closers []io.Closer
	opts    patentsview.ParseOptions
}

// Header returns the trimmed header row.
func (s *Stream) Header() []string { return s.header }

// File returns the file being streamed.
func (s *Stream) File() File { return s.file }

// Next returns the next row outcome. A malformed row is a Skipped item with
// a RowParseError reason and reading continues with the following line.
// io.EOF signals the end of the file; any other error is an I/O failure.
func (s *Stream) Next() (Item, error) {
	fields, line, err := s.src.next()
	if err != nil {
		var re *rowError
		switch {
		case errors.As(err, &re):
			return common.Skipped[patentsview.Record](
				pkgerrors.RowParseError(re.msg).WithDetail(s.location(line))), nil
		case errors.Is(err, io.EOF):
			return Item{}, io.EOF
		default:
			return Item{}, pkgerrors.Wrap(err, pkgerrors.ErrCodeInternal, "read failed").WithDetail(s.location(line))
		}
	}

	if len(fields) != len(s.header) {
		return common.Skipped[patentsview.Record](
			pkgerrors.RowParseError(fmt.Sprintf("expected %d fields, got %d", len(s.header), len(fields))).
				WithDetail(s.location(line))), nil
	}

	rec, err := s.table.Parse(patentsview.Row{File: s.file.Path, Line: line, Fields: fields, Index: s.index}, s.opts)
	if err != nil {
		return common.Skipped[patentsview.Record](withLocation(err, s.location(line))), nil
	}
	return common.Ok(rec), nil
}

// Close releases the file and any decompressor.
func (s *Stream) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

func (s *Stream) location(line int64) string {
	return fmt.Sprintf("%s:%d", path.Base(s.file.Path), line)
}

func withLocation(err error, loc string) error {
	var ae *pkgerrors.AppError
	if errors.As(err, &ae) {
		return ae.WithDetail(loc)
	}
	return pkgerrors.RowParseError(err.Error()).WithDetail(loc)
}

// ─────────────────────────────────────────────────────────────────────────────
// Containers
// ─────────────────────────────────────────────────────────────────────────────

func openRaw(f File) (io.Reader, Format, []io.Closer, error) {
	switch f.Compression {
	case CompressionBzip2:
		fh, err := os.Open(f.Path)
		if err != nil {
			return nil, f.Format, nil, err
		}
		return bzip2.NewReader(fh), f.Format, []io.Closer{fh}, nil

	case CompressionZip:
		zr, err := zip.OpenReader(f.Path)
		if err != nil {
			return nil, f.Format, nil, err
		}
		entry := pickZipEntry(zr.File, string(f.Table))
		if entry == nil {
			_ = zr.Close()
			return nil, f.Format, nil, fmt.Errorf("zip archive has no entry for table %s", f.Table)
		}
		rc, err := entry.Open()
		if err != nil {
			_ = zr.Close()
			return nil, f.Format, nil, err
		}
		format := FormatTSV
		if strings.HasSuffix(strings.ToLower(entry.Name), ".csv") {
			format = FormatCSV
		}
		return rc, format, []io.Closer{zr, rc}, nil

	default:
		fh, err := os.Open(f.Path)
		if err != nil {
			return nil, f.Format, nil, err
		}
		return fh, f.Format, []io.Closer{fh}, nil
	}
}

// pickZipEntry prefers an entry named after the table and falls back to the
// only regular file in the archive.
func pickZipEntry(files []*zip.File, table string) *zip.File {
	var regular []*zip.File
	for _, zf := range files {
		if zf.FileInfo().IsDir() {
			continue
		}
		regular = append(regular, zf)
		base := strings.ToLower(path.Base(zf.Name))
		if base == table+".tsv" || base == table+".csv" {
			return zf
		}
	}
	if len(regular) == 1 {
		return regular[0]
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Line sources
// ─────────────────────────────────────────────────────────────────────────────

// rowError marks a line that could not be split into fields.
type rowError struct {
	msg string
}

func (e *rowError) Error() string { return e.msg }

type lineSource interface {
	// next returns the fields and 1-based line number of the next record.
	next() ([]string, int64, error)
}

// tsvSource splits lines on tabs without any quote handling. Blank lines are
// skipped.
type tsvSource struct {
	r    *bufio.Reader
	line int64
}

func (t *tsvSource) next() ([]string, int64, error) {
	for {
		s, err := t.r.ReadString('\n')
		if s == "" && err != nil {
			return nil, t.line, err
		}
		t.line++
		s = strings.TrimRight(s, "\r\n")
		if strings.TrimSpace(s) == "" {
			if err != nil {
				return nil, t.line, err
			}
			continue
		}
		return strings.Split(s, "\t"), t.line, nil
	}
}

type csvSource struct {
	r *csv.Reader
}

func newCSVSource(r io.Reader) *csvSource {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return &csvSource{r: cr}
}

func (c *csvSource) next() ([]string, int64, error) {
	rec, err := c.r.Read()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, int64(pe.StartLine), &rowError{msg: pe.Err.Error()}
		}
		return nil, 0, err
	}
	line, _ := c.r.FieldPos(0)
	return rec, int64(line), nil
}

//Personal.AI order the ending
