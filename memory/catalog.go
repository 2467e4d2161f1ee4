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
	"sort"
	"strings"
	"sync"

	"github.com/dolthub/go-query-compiler/sql"
)

// Catalog is an in-memory sql.Catalog.
type Catalog struct {
	mu     sync.RWMutex
	tables map[string]*sql.TableInfo
}

var _ sql.Catalog = (*Catalog)(nil)

// NewCatalog creates a catalog holding the given tables.
func NewCatalog(tables ...*sql.TableInfo) *Catalog {
	c := &Catalog{tables: make(map[string]*sql.TableInfo)}
	for _, t := range tables {
		c.AddTable(t)
	}
	return c
}

// AddTable adds a table, replacing any table with the same name.
func (c *Catalog) AddTable(t *sql.TableInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[strings.ToLower(t.Name)] = t
}

// Table implements the sql.Catalog interface.
func (c *Catalog) Table(ctx *sql.Context, name string) (*sql.TableInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[strings.ToLower(name)]
	if !ok {
		return nil, sql.ErrTableNotFound.New(name)
	}
	return t, nil
}

// ReferencingForeignKeys implements the sql.Catalog interface.
func (c *Catalog) ReferencingForeignKeys(ctx *sql.Context, table string) ([]*sql.ForeignKeyInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var fks []*sql.ForeignKeyInfo
	for _, name := range c.tableNamesLocked() {
		for _, fk := range c.tables[name].ForeignKeys {
			if strings.EqualFold(fk.ReferencedTable, table) {
				fks = append(fks, fk)
			}
		}
	}
	return fks, nil
}

// TableNames returns the names of all tables, sorted.
func (c *Catalog) TableNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := c.tableNamesLocked()
	for i, n := range names {
		names[i] = c.tables[n].Name
	}
	return names
}

func (c *Catalog) tableNamesLocked() []string {
	names := make([]string, 0, len(c.tables))
	for n := range c.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
