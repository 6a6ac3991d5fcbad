// Package tablefile locates PatentsView extracts in a data directory and
// streams their rows as typed records.
package tablefile

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/turtacn/patentsview-graph/internal/domain/patentsview"
	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
)

// Format is the delimiter convention of a file.
type Format int

const (
	// FormatTSV is PatentsView's tab-separated, unquoted convention.
	FormatTSV Format = iota
	// FormatCSV is comma-separated with standard double-quote quoting.
	FormatCSV
)

func (f Format) String() string {
	if f == FormatCSV {
		return "csv"
	}
	return "tsv"
}

// Compression is the container around a file.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionBzip2
	CompressionZip
)

// File is one discovered table extract.
type File struct {
	Table       patentsview.TableName
	Path        string
	Format      Format
	Compression Compression
}

// candidate suffixes in preference order.
var candidates = []struct {
	suffix      string
	format      Format
	compression Compression
}{
	{".tsv", FormatTSV, CompressionNone},
	{".tsv.bz2", FormatTSV, CompressionBzip2},
	{".tsv.zip", FormatTSV, CompressionZip},
	{".csv", FormatCSV, CompressionNone},
	{".csv.bz2", FormatCSV, CompressionBzip2},
	{".csv.zip", FormatCSV, CompressionZip},
	{".zip", FormatTSV, CompressionZip},
}

// IsTableFile reports whether name (a base name) would be picked up by
// Discover for some known table.
func IsTableFile(name string) bool {
	lower := strings.ToLower(name)
	for _, t := range patentsview.Tables() {
		for _, cand := range candidates {
			if lower == string(t.Name)+cand.suffix {
				return true
			}
		}
	}
	return false
}

// Catalog is the set of known tables present in a data directory.
type Catalog struct {
	Dir   string
	files map[patentsview.TableName]File
}

// Discover looks for every known table in dir. Absence is not an error here;
// CheckRequired decides which tables must exist.
func Discover(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeDataDir, "cannot list data directory").WithDetail(dir)
	}
	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names[strings.ToLower(e.Name())] = struct{}{}
		}
	}

	c := &Catalog{Dir: dir, files: make(map[patentsview.TableName]File)}
	for _, t := range patentsview.Tables() {
		for _, cand := range candidates {
			name := string(t.Name) + cand.suffix
			if _, ok := names[name]; !ok {
				continue
			}
			c.files[t.Name] = File{
				Table:       t.Name,
				Path:        filepath.Join(dir, actualName(entries, name)),
				Format:      cand.format,
				Compression: cand.compression,
			}
			break
		}
	}
	return c, nil
}

func actualName(entries []os.DirEntry, lower string) string {
	for _, e := range entries {
		if strings.ToLower(e.Name()) == lower {
			return e.Name()
		}
	}
	return lower
}

// File returns the extract of table, if present.
func (c *Catalog) File(table patentsview.TableName) (File, bool) {
	f, ok := c.files[table]
	return f, ok
}

// Present returns the names of the discovered tables, sorted.
func (c *Catalog) Present() []patentsview.TableName {
	out := make([]patentsview.TableName, 0, len(c.files))
	for name := range c.files {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CheckRequired fails with a ConfigError naming every required table that
// is unknown or absent.
func (c *Catalog) CheckRequired(required []string) error {
	var unknown, missing []string
	for _, r := range required {
		name := patentsview.TableName(strings.TrimSpace(r))
		if _, ok := patentsview.Lookup(name); !ok {
			unknown = append(unknown, string(name))
			continue
		}
		if _, ok := c.files[name]; !ok {
			missing = append(missing, string(name))
		}
	}
	if len(unknown) > 0 {
		return pkgerrors.New(pkgerrors.ErrCodeConfig, "unknown table names").
			WithDetail(strings.Join(unknown, ", ") + "; known: " + strings.Join(patentsview.KnownTableNames(), ", "))
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.ErrCodeMissingTable, "required tables not found in data directory").
			WithDetail(strings.Join(missing, ", ") + " in " + c.Dir)
	}
	return nil
}

//Personal.AI order the ending
