// Package ingest reads flat collections of designated objects from CSV and
// JSON sources.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/johnwards/rdstree/internal/designation"
	"github.com/johnwards/rdstree/internal/domain"
)

// ErrNoHeader is returned when a CSV source has no header row, or a header
// with neither a code column nor any aspect code column.
var ErrNoHeader = errors.New("csv header with a code column is required")

// Columns is the header written by exports and recognised by ReadCSV.
var Columns = []string{"id", "code", "parent_code", "name", "object_type"}

// RowError describes a CSV row that could not be read. Line is 1-based and
// counts the header.
type RowError struct {
	Line    int    `json:"line"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Row error kinds.
const (
	KindInvalidRow  = "INVALID_ROW"
	KindMissingCode = "MISSING_CODE"
	KindInvalidID   = "INVALID_ID"
)

// GeneratedType is the object type of the ancestors a spreadsheet import adds
// for codes that only appear as parents.
const GeneratedType = "system"

// aspectColumns are the code columns of a spreadsheet with one row per object,
// in the order their claims are emitted.
var aspectColumns = []struct {
	aspect  designation.Aspect
	headers []string
}{
	{designation.AspectFunction, []string{"functioncode", "function", "processfunction", "工艺功能"}},
	{designation.AspectLocation, []string{"locationcode", "location", "位置"}},
	{designation.AspectPower, []string{"powercode", "power", "powerfunction", "电源功能"}},
}

type aspectColumn struct {
	code, parent int
}

type columnMap struct {
	id, code, parent, name, objectType int
	aspects                            []aspectColumn
	extra                              map[int]string
}

func headerKey(h string) string {
	return strings.ToLower(strings.NewReplacer("_", "", " ", "", "-", "").Replace(h))
}

func mapHeader(header []string) (columnMap, error) {
	cm := columnMap{id: -1, code: -1, parent: -1, name: -1, objectType: -1, extra: map[int]string{}}
	cm.aspects = make([]aspectColumn, len(aspectColumns))
	for i := range cm.aspects {
		cm.aspects[i] = aspectColumn{code: -1, parent: -1}
	}

	for i, h := range header {
		key := strings.TrimSpace(h)
		if i == 0 {
			key = strings.TrimPrefix(key, "\ufeff")
		}
		switch headerKey(key) {
		case "id":
			cm.id = i
		case "code":
			cm.code = i
		case "parentcode":
			cm.parent = i
		case "name", "名称":
			cm.name = i
		case "objecttype":
			cm.objectType = i
		default:
			if key != "" {
				cm.extra[i] = key
			}
		}
	}

	// Aspect code columns only count when there is no single code column.
	if cm.code < 0 {
		for i, key := range cm.extra {
			if cm.mapAspect(headerKey(key), i) {
				delete(cm.extra, i)
			}
		}
	}

	if cm.code >= 0 || cm.sheet() {
		return cm, nil
	}
	return cm, ErrNoHeader
}

func (cm *columnMap) mapAspect(key string, i int) bool {
	for a, col := range aspectColumns {
		if key == string(col.aspect)+"parent" {
			cm.aspects[a].parent = i
			return true
		}
		if slices.Contains(col.headers, key) {
			cm.aspects[a].code = i
			return true
		}
	}
	return false
}

// sheet reports whether rows carry one code per aspect instead of a single
// code column.
func (cm columnMap) sheet() bool {
	if cm.code >= 0 {
		return false
	}
	for _, a := range cm.aspects {
		if a.code >= 0 {
			return true
		}
	}
	return false
}

// ReadCSV reads objects from r. Rows that cannot be read are reported as
// RowErrors and skipped; the returned error is only set when the source as a
// whole is unusable. Objects keep the order of their rows.
//
// A header with a code column yields one object per row. A header with
// function, location or power code columns instead yields one object per
// filled aspect column, all claims of the same object. Their parent comes
// from a matching function_parent, location_parent or power_parent column
// when there is one; otherwise it is derived from the code, and ancestors
// that no row names are added as generated objects after the rows.
func ReadCSV(r io.Reader) ([]domain.Object, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, ErrNoHeader
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	cm, err := mapHeader(header)
	if err != nil {
		return nil, nil, err
	}

	objects := []domain.Object{}
	rowErrs := []RowError{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				rowErrs = append(rowErrs, RowError{Line: perr.StartLine, Kind: KindInvalidRow, Message: perr.Err.Error()})
				continue
			}
			return nil, nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if blank(record) {
			continue
		}
		if len(record) != len(header) {
			rowErrs = append(rowErrs, RowError{
				Line:    line,
				Kind:    KindInvalidRow,
				Message: fmt.Sprintf("expected %d fields, got %d", len(header), len(record)),
			})
			continue
		}

		objs, rowErr := cm.objects(record)
		if rowErr != nil {
			rowErr.Line = line
			rowErrs = append(rowErrs, *rowErr)
			continue
		}
		for i := range objs {
			objs[i].Row = line
		}
		objects = append(objects, objs...)
	}

	if cm.sheet() {
		objects = append(objects, cm.ancestors(objects)...)
	}
	return objects, rowErrs, nil
}

func (cm columnMap) objects(record []string) ([]domain.Object, *RowError) {
	field := func(i int) string {
		if i < 0 {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	base := domain.Object{
		Name:       field(cm.name),
		ObjectType: field(cm.objectType),
	}
	if raw := field(cm.id); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return nil, &RowError{Kind: KindInvalidID, Message: "id must be a positive integer", Value: raw}
		}
		base.ID = id
	}
	for i, key := range cm.extra {
		if v := field(i); v != "" {
			if base.Attributes == nil {
				base.Attributes = make(map[string]string)
			}
			base.Attributes[key] = v
		}
	}

	if !cm.sheet() {
		base.Code = field(cm.code)
		if base.Code == "" {
			return nil, &RowError{Kind: KindMissingCode, Message: "code is required"}
		}
		if p := field(cm.parent); p != "" {
			base.ParentCode = &p
		}
		return []domain.Object{base}, nil
	}

	var objs []domain.Object
	for _, col := range cm.aspects {
		code := field(col.code)
		if code == "" {
			continue
		}
		obj := base.Clone()
		obj.Code = code
		switch {
		case col.parent >= 0:
			if p := field(col.parent); p != "" {
				obj.ParentCode = &p
			}
		default:
			if p, ok := designation.ParseLenient(code).DerivedParent(); ok {
				obj.ParentCode = &p
			}
		}
		objs = append(objs, obj)
	}
	if len(objs) == 0 {
		return nil, &RowError{Kind: KindMissingCode, Message: "at least one aspect code is required"}
	}
	return objs, nil
}

// ancestors returns a generated object for every code above a derived-parent
// claim that no row names, nearest the root first.
func (cm columnMap) ancestors(objects []domain.Object) []domain.Object {
	known := make(map[string]bool, len(objects))
	for _, o := range objects {
		known[o.Code] = true
	}

	var out []domain.Object
	for _, o := range objects {
		col, ok := cm.aspectOf(o.Code)
		if !ok || col.parent >= 0 {
			continue
		}
		chain, err := designation.Expand(o.Code)
		if err != nil {
			continue
		}
		for _, c := range chain[:len(chain)-1] {
			if known[c.Raw] {
				continue
			}
			known[c.Raw] = true
			gen := domain.Object{Code: c.Raw, Name: c.Raw, ObjectType: GeneratedType}
			if p, ok := c.DerivedParent(); ok {
				gen.ParentCode = &p
			}
			out = append(out, gen)
		}
	}
	return out
}

func (cm columnMap) aspectOf(code string) (aspectColumn, bool) {
	a := designation.Classify(code)
	for i, col := range aspectColumns {
		if col.aspect == a {
			return cm.aspects[i], true
		}
	}
	return aspectColumn{}, false
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// ReadJSON reads a JSON array of objects from r.
func ReadJSON(r io.Reader) ([]domain.Object, error) {
	var objects []domain.Object
	if err := json.NewDecoder(r).Decode(&objects); err != nil {
		return nil, fmt.Errorf("decode objects: %w", err)
	}
	if objects == nil {
		objects = []domain.Object{}
	}
	return objects, nil
}

// Source formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// FormatOf picks the source format from a file name: JSON for a .json
// extension, CSV otherwise.
func FormatOf(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return FormatJSON
	}
	return FormatCSV
}

// Read reads objects from r in the given format.
func Read(r io.Reader, format string) ([]domain.Object, []RowError, error) {
	if format == FormatJSON {
		objects, err := ReadJSON(r)
		return objects, nil, err
	}
	return ReadCSV(r)
}

// ReadFile reads objects from path in the format named by its extension.
func ReadFile(path string) ([]domain.Object, []RowError, error) {
	f, err := os.Open(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return Read(f, FormatOf(path))
}

// Inputs converts objects into store create inputs, keeping their order.
func Inputs(objects []domain.Object) []domain.CreateInput {
	inputs := make([]domain.CreateInput, len(objects))
	for i, o := range objects {
		inputs[i] = domain.CreateInput{
			Facility:   o.Facility,
			ID:         o.ID,
			Code:       o.Code,
			ParentCode: o.ParentCode,
			Name:       o.Name,
			ObjectType: o.ObjectType,
			Attributes: o.Attributes,
			Row:        o.Row,
		}
	}
	return inputs
}

// WriteCSV writes objects in the format ReadCSV accepts. Attribute keys
// become extra columns in the order given by attrKeys.
func WriteCSV(w io.Writer, objects []domain.Object, attrKeys []string) error {
	cw := csv.NewWriter(w)

	header := append(append([]string{}, Columns...), attrKeys...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, o := range objects {
		id := ""
		if o.ID > 0 {
			id = strconv.FormatInt(o.ID, 10)
		}
		row := []string{
			id,
			o.Code,
			o.Parent(),
			o.Name,
			o.ObjectType,
		}
		for _, k := range attrKeys {
			row = append(row, o.Attributes[k])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write object %d: %w", o.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// AttributeKeys returns the sorted union of attribute keys across objects.
func AttributeKeys(objects []domain.Object) []string {
	seen := make(map[string]struct{})
	for _, o := range objects {
		for k := range o.Attributes {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
