package database

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/quillpad/db/migrations"
)

// enumColumns lists the ENUM columns the Go code writes to and the values it
// uses. A value missing from the schema fails with Error 1265 at runtime.
var enumColumns = map[string][]string{
	"role":      {"user", "manager"},
	"like_type": {"like", "dislike"},
}

func readMigrations(t *testing.T, pattern string) map[string]string {
	t.Helper()
	files, err := fs.Glob(migrations.FS, pattern)
	require.NoError(t, err)
	require.NotEmpty(t, files, "no migration files found")

	out := make(map[string]string, len(files))
	for _, f := range files {
		data, err := fs.ReadFile(migrations.FS, f)
		require.NoError(t, err)
		out[f] = string(data)
	}
	return out
}

// TestMigrations_EnumValues checks that every ENUM column the application
// writes declares exactly the values the application uses.
func TestMigrations_EnumValues(t *testing.T) {
	files := readMigrations(t, "*.up.sql")

	for column, want := range enumColumns {
		pattern := regexp.MustCompile(`(?m)^\s*` + column + `\s+ENUM\(([^)]*)\)`)
		found := false
		for name, content := range files {
			m := pattern.FindStringSubmatch(content)
			if m == nil {
				continue
			}
			found = true

			var got []string
			for _, v := range strings.Split(m[1], ",") {
				got = append(got, strings.Trim(strings.TrimSpace(v), "'"))
			}
			assert.ElementsMatch(t, want, got, "%s: ENUM values for %s", name, column)
		}
		assert.True(t, found, "no ENUM definition for column %s", column)
	}
}

// TestMigrations_UpDownPairs ensures every .up.sql has a matching .down.sql.
func TestMigrations_UpDownPairs(t *testing.T) {
	for name := range readMigrations(t, "*.up.sql") {
		down := strings.Replace(name, ".up.sql", ".down.sql", 1)
		_, err := fs.Stat(migrations.FS, down)
		assert.NoError(t, err, "missing down migration for %s", name)
	}
}

// TestMigrations_SequentialVersions ensures versions start at 1 with no gaps,
// which golang-migrate needs to step down cleanly.
func TestMigrations_SequentialVersions(t *testing.T) {
	files := readMigrations(t, "*.up.sql")
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		assert.True(t, strings.HasPrefix(name, fmt.Sprintf("%06d_", i+1)),
			"migration %s out of sequence, expected version %d", name, i+1)
	}
}

// TestMigrations_LikeUniqueness guards the unique key the like coordinator
// relies on for its find-or-create.
func TestMigrations_LikeUniqueness(t *testing.T) {
	files := readMigrations(t, "*_create_post_likes.up.sql")
	for _, content := range files {
		assert.Contains(t, content, "UNIQUE KEY uniq_user_post_like (profile_id, post_id)")
	}
}

func TestErrNumHelpers(t *testing.T) {
	dup := fmt.Errorf("inserting: %w", &mysql.MySQLError{Number: ErrNumDuplicateEntry})
	fk := &mysql.MySQLError{Number: ErrNumNoReferencedRow}

	assert.True(t, IsDuplicateEntry(dup))
	assert.False(t, IsDuplicateEntry(fk))
	assert.True(t, IsMissingReference(fk))
	assert.False(t, IsMissingReference(errors.New("plain")))
}

// binaryColumns lists unique columns whose comparison must not fold accents
// or trailing spaces. tags.name_key already holds the lowered name, so tag
// uniqueness ignores case only.
var binaryColumns = []string{"username", "title", "name_key"}

func TestMigrations_UniqueColumnsUseBinaryCollation(t *testing.T) {
	files := readMigrations(t, "*.up.sql")

	for _, column := range binaryColumns {
		pattern := regexp.MustCompile(`(?m)^\s*` + column + `\s+VARCHAR\(\d+\)[^,\n]*`)
		found := false
		for name, content := range files {
			def := pattern.FindString(content)
			if def == "" {
				continue
			}
			found = true
			assert.Contains(t, def, "COLLATE utf8mb4_bin", "%s: column %s", name, column)
		}
		assert.True(t, found, "no migration defines column %s", column)
	}
}
