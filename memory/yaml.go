// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package memory

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/types"
)

type catalogFile struct {
	Tables []tableDef `yaml:"tables"`
}

type tableDef struct {
	Name        string          `yaml:"name"`
	Rows        int64           `yaml:"rows"`
	Columns     []columnDef     `yaml:"columns"`
	Indexes     []indexDef      `yaml:"indexes"`
	Constraints []constraintDef `yaml:"constraints"`
	Triggers    []triggerDef    `yaml:"triggers"`
	ForeignKeys []foreignKeyDef `yaml:"foreign_keys"`
}

type columnDef struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Nullable *bool  `yaml:"nullable"`
}

type indexDef struct {
	Name       string   `yaml:"name"`
	Columns    []string `yaml:"columns"`
	Descending []bool   `yaml:"descending"`
	Unique     bool     `yaml:"unique"`
}

type constraintDef struct {
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind"`
	Columns []string `yaml:"columns"`
}

type triggerDef struct {
	Name    string   `yaml:"name"`
	Event   string   `yaml:"event"`
	Columns []string `yaml:"columns"`
}

type foreignKeyDef struct {
	Name       string   `yaml:"name"`
	Columns    []string `yaml:"columns"`
	References struct {
		Table   string   `yaml:"table"`
		Columns []string `yaml:"columns"`
	} `yaml:"references"`
	OnDelete string `yaml:"on_delete"`
}

// LoadCatalogFile reads a catalog from a YAML file.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCatalog(f)
}

// LoadCatalog reads a catalog from YAML of the form
//
//	tables:
//	  - name: t
//	    rows: 1000
//	    columns:
//	      - {name: a, type: INTEGER, nullable: false}
//	    indexes:
//	      - {name: t_a, columns: [a], descending: [false], unique: true}
//	    foreign_keys:
//	      - {name: fk, columns: [a], references: {table: u, columns: [b]}, on_delete: cascade}
//
// Columns are nullable unless stated otherwise.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var file catalogFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, err
	}

	c := NewCatalog()
	for _, def := range file.Tables {
		t, err := def.tableInfo()
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", def.Name, err)
		}
		c.AddTable(t)
	}
	return c, nil
}

func (d tableDef) tableInfo() (*sql.TableInfo, error) {
	t := &sql.TableInfo{Name: d.Name, RowCount: d.Rows}
	for i, cd := range d.Columns {
		typ, err := types.ParseType(cd.Type)
		if err != nil {
			return nil, err
		}
		nullable := cd.Nullable == nil || *cd.Nullable
		t.Columns = append(t.Columns, &sql.ColumnInfo{
			Name:     cd.Name,
			Position: i + 1,
			Type:     typ.WithNullable(nullable),
			Nullable: nullable,
		})
	}
	for _, id := range d.Indexes {
		for _, c := range id.Columns {
			if _, ok := t.Column(c); !ok {
				return nil, sql.ErrColumnNotFound.New(c)
			}
		}
		t.Indexes = append(t.Indexes, &sql.IndexInfo{
			Name:       id.Name,
			Table:      d.Name,
			Columns:    id.Columns,
			Descending: id.Descending,
			Unique:     id.Unique,
		})
	}
	for _, cd := range d.Constraints {
		kind, err := constraintKind(cd.Kind)
		if err != nil {
			return nil, err
		}
		t.Constraints = append(t.Constraints, &sql.ConstraintInfo{Name: cd.Name, Kind: kind, Columns: cd.Columns})
	}
	for _, td := range d.Triggers {
		event, err := triggerEvent(td.Event)
		if err != nil {
			return nil, err
		}
		t.Triggers = append(t.Triggers, &sql.TriggerInfo{Name: td.Name, Event: event, Columns: td.Columns})
	}
	for _, fd := range d.ForeignKeys {
		action, err := referentialAction(fd.OnDelete)
		if err != nil {
			return nil, err
		}
		t.ForeignKeys = append(t.ForeignKeys, &sql.ForeignKeyInfo{
			Name:              fd.Name,
			Table:             d.Name,
			Columns:           fd.Columns,
			ReferencedTable:   fd.References.Table,
			ReferencedColumns: fd.References.Columns,
			OnDelete:          action,
		})
	}
	return t, nil
}

func constraintKind(s string) (sql.ConstraintKind, error) {
	switch strings.ToLower(s) {
	case "check", "":
		return sql.CheckConstraint, nil
	case "primary key":
		return sql.PrimaryKeyConstraint, nil
	case "unique":
		return sql.UniqueConstraint, nil
	case "foreign key":
		return sql.ForeignKeyConstraint, nil
	}
	return 0, fmt.Errorf("unknown constraint kind %q", s)
}

func triggerEvent(s string) (sql.TriggerEvent, error) {
	switch strings.ToLower(s) {
	case "insert":
		return sql.InsertEvent, nil
	case "update":
		return sql.UpdateEvent, nil
	case "delete":
		return sql.DeleteEvent, nil
	}
	return 0, fmt.Errorf("unknown trigger event %q", s)
}

func referentialAction(s string) (sql.ReferentialAction, error) {
	switch strings.ToLower(s) {
	case "", "no action":
		return sql.NoAction, nil
	case "restrict":
		return sql.Restrict, nil
	case "cascade":
		return sql.Cascade, nil
	case "set null":
		return sql.SetNull, nil
	}
	return 0, fmt.Errorf("unknown referential action %q", s)
}
