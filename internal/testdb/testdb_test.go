package testdb

import (
	"bufio"
	"io/fs"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bizledger-backend/pkg/migrate"
)

var (
	createTableLine = regexp.MustCompile(`^CREATE TABLE IF NOT EXISTS ([a-z_]+) \($`)
	columnLine      = regexp.MustCompile(`^\s+([a-z_]+) [a-z]`)
)

// migrationColumns reads every CREATE TABLE block of the embedded migrations.
func migrationColumns(t *testing.T) map[string][]string {
	t.Helper()

	files, err := fs.Glob(migrate.Files(), "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	tables := map[string][]string{}
	for _, name := range files {
		raw, err := fs.ReadFile(migrate.Files(), name)
		require.NoError(t, err)

		current := ""
		scanner := bufio.NewScanner(strings.NewReader(string(raw)))
		for scanner.Scan() {
			line := scanner.Text()
			if m := createTableLine.FindStringSubmatch(line); m != nil {
				current = m[1]
				continue
			}
			if current == "" {
				continue
			}
			if strings.HasPrefix(line, ");") {
				current = ""
				continue
			}
			if m := columnLine.FindStringSubmatch(line); m != nil {
				tables[current] = append(tables[current], m[1])
			}
		}
		require.NoError(t, scanner.Err())
	}
	for table := range tables {
		sort.Strings(tables[table])
	}
	return tables
}

func TestSchemaMatchesMigrations(t *testing.T) {
	want := migrationColumns(t)
	conn := Open(t)

	var tables []string
	require.NoError(t, conn.Raw("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name").
		Scan(&tables).Error)

	wantTables := make([]string, 0, len(want))
	for table := range want {
		wantTables = append(wantTables, table)
	}
	sort.Strings(wantTables)
	require.Equal(t, wantTables, tables)

	for _, table := range tables {
		var columns []string
		require.NoError(t, conn.Raw("SELECT name FROM pragma_table_info(?)", table).Scan(&columns).Error)
		sort.Strings(columns)
		assert.Equal(t, want[table], columns, "columns of %s", table)
	}
}
