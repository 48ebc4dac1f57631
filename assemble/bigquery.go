package assemble

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/carbocation/pfx"
	"google.golang.org/api/googleapi"
)

// insertBatch is the number of rows sent per streaming insert request.
const insertBatch = 500

var invalidField = regexp.MustCompile(`[^A-Za-z0-9_]`)

// FieldName turns a statistic name into a valid BigQuery column name.
func FieldName(name string) string {
	name = invalidField.ReplaceAllString(name, "_")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "_" + name
	}
	return strings.ToLower(name)
}

// Schema is the BigQuery schema of the table: labels first, then one
// nullable FLOAT column per statistic.
func (t *Table) Schema() bigquery.Schema {
	schema := bigquery.Schema{
		{Name: "contig", Type: bigquery.StringFieldType, Required: true},
		{Name: "start", Type: bigquery.IntegerFieldType, Required: true},
		{Name: "stop", Type: bigquery.IntegerFieldType, Required: true},
		{Name: "start_index", Type: bigquery.IntegerFieldType, Required: true},
		{Name: "stop_index", Type: bigquery.IntegerFieldType, Required: true},
	}
	for _, col := range t.columns {
		schema = append(schema, &bigquery.FieldSchema{Name: FieldName(col), Type: bigquery.FloatFieldType})
	}
	return schema
}

type rowSaver struct {
	columns []string
	row     Row
	id      string
}

var _ bigquery.ValueSaver = (*rowSaver)(nil)

func (s *rowSaver) Save() (map[string]bigquery.Value, string, error) {
	out := map[string]bigquery.Value{
		"contig":      s.row.Contig,
		"start":       s.row.Start,
		"stop":        s.row.Stop,
		"start_index": s.row.StartIndex,
		"stop_index":  s.row.StopIndex,
	}
	for j, v := range s.row.Values {
		if v.Valid {
			out[FieldName(s.columns[j])] = v.Float64
		} else {
			out[FieldName(s.columns[j])] = nil
		}
	}
	return out, s.id, nil
}

// savers returns one ValueSaver per row. Insert IDs make retried requests
// idempotent within a load identified by prefix.
func (t *Table) savers(prefix string) []*rowSaver {
	rows := t.Rows()
	out := make([]*rowSaver, len(rows))
	for i, r := range rows {
		out[i] = &rowSaver{columns: t.columns, row: r, id: fmt.Sprintf("%s-%d", prefix, i)}
	}
	return out
}

// UploadBigQuery streams t into dataset.table. If create is set the table is
// created with t.Schema() first.
func UploadBigQuery(ctx context.Context, client *bigquery.Client, dataset, table string, t *Table, create bool) error {
	ref := client.Dataset(dataset).Table(table)

	if create {
		if err := ref.Create(ctx, &bigquery.TableMetadata{Schema: t.Schema()}); err != nil && !alreadyExists(err) {
			return pfx.Err(fmt.Errorf("creating %s.%s: %w", dataset, table, err))
		}
	}

	ins := ref.Inserter()
	savers := t.savers(fmt.Sprintf("%s.%s-%d", dataset, table, time.Now().UnixNano()))
	for start := 0; start < len(savers); start += insertBatch {
		stop := start + insertBatch
		if stop > len(savers) {
			stop = len(savers)
		}
		if err := ins.Put(ctx, savers[start:stop]); err != nil {
			return pfx.Err(fmt.Errorf("inserting rows %d-%d into %s.%s: %w", start, stop, dataset, table, err))
		}
	}

	return nil
}

// alreadyExists reports whether err is BigQuery refusing to create a table
// that is already there. Rows are then appended to it.
func alreadyExists(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict
}
