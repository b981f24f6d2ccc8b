package sqlsource

import (
	"bytes"
	"database/sql"
	"fmt"
	"strings"

	// Import of sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/tarstars/partitioned_trees/golang/partitioned_tree/pdt"
	"github.com/unixpickle/essentials"
)

/*
Table describes where the rows of a partitioned dataset live in an SQLite3
database: every distinct value of PartitionColumn is one partition, the label
of a row is in LabelColumn and its features are FeatureColumns in order.
*/
type Table struct {
	Name            string
	PartitionColumn string
	LabelColumn     string
	FeatureColumns  []string
}

func quote(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty column or table name")
	}
	if strings.ContainsAny(name, `"`) {
		return "", fmt.Errorf(`name '%s' contains invalid character '"'`, name)
	}
	return `"` + name + `"`, nil
}

func (t Table) query() (string, error) {
	var queryBuffer bytes.Buffer
	columns := append([]string{t.PartitionColumn, t.LabelColumn}, t.FeatureColumns...)
	queryBuffer.WriteString("SELECT ")
	for i, c := range columns {
		q, err := quote(c)
		if err != nil {
			return "", err
		}
		if i > 0 {
			queryBuffer.WriteString(", ")
		}
		queryBuffer.WriteString(q)
	}
	table, err := quote(t.Name)
	if err != nil {
		return "", err
	}
	partition, _ := quote(t.PartitionColumn)
	queryBuffer.WriteString(fmt.Sprintf(" FROM %s ORDER BY %s, rowid", table, partition))
	return queryBuffer.String(), nil
}

/*
Load reads the table from the SQLite3 database at path and returns one
partition per distinct partition value, ordered by that value. Rows with a
NULL label or feature are rejected.
*/
func Load(path string, t Table) (partitions []*pdt.Partition, err error) {
	defer essentials.AddCtxTo("load partitions from "+path, &err)

	if len(t.FeatureColumns) == 0 {
		return nil, fmt.Errorf("no feature columns")
	}
	query, err := t.query()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %v", t.Name, err)
	}
	defer rows.Close()

	var (
		current  interface{}
		started  bool
		features [][]float64
		labels   []float64
	)
	flush := func() error {
		if len(features) == 0 {
			return nil
		}
		part, err := pdt.NewPartitionFromRows(features, labels)
		if err != nil {
			return err
		}
		partitions = append(partitions, part)
		features, labels = nil, nil
		return nil
	}

	for j := 0; rows.Next(); j++ {
		var partition interface{}
		var label sql.NullFloat64
		values := make([]sql.NullFloat64, len(t.FeatureColumns))
		dest := make([]interface{}, 0, len(values)+2)
		dest = append(dest, &partition, &label)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err = rows.Scan(dest...); err != nil {
			return nil, err
		}

		if !started || fmt.Sprint(partition) != fmt.Sprint(current) {
			if err = flush(); err != nil {
				return nil, err
			}
			current, started = partition, true
		}

		if !label.Valid {
			return nil, fmt.Errorf("row %d: NULL label", j)
		}
		row := make([]float64, len(values))
		for i, v := range values {
			if !v.Valid {
				return nil, fmt.Errorf("row %d: NULL in column %s", j, t.FeatureColumns[i])
			}
			row[i] = v.Float64
		}
		features = append(features, row)
		labels = append(labels, label.Float64)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if err = flush(); err != nil {
		return nil, err
	}
	return partitions, nil
}
