package queries

import (
	"io/fs"
	"reflect"
	"slices"
	"strings"
	"testing"
)

func TestQueryHelperMatchesEmbeddedFiles(t *testing.T) {
	var paths []string
	collectQueryPaths(reflect.ValueOf(QueryHelper), &paths)

	if len(paths) == 0 {
		t.Fatal("no query paths in QueryHelper found")
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			if content := strings.TrimSpace(Get(path)); content == "" {
				t.Errorf("query file %q is empty", path)
			}
		})
	}

	var embedded []string
	err := fs.WalkDir(Files, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".sql") {
			embedded = append(embedded, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("error walking embedded queries: %v", err)
	}

	// every .sql file must be reachable from QueryHelper and vice versa
	slices.Sort(paths)
	slices.Sort(embedded)
	if !slices.Equal(paths, embedded) {
		t.Fatalf("QueryHelper and embedded files differ:\n helper:   %v\n embedded: %v", paths, embedded)
	}
}

func TestNamedArgumentsUsePgxSyntax(t *testing.T) {
	for _, path := range []string{
		QueryHelper.Select.PriceSeriesData,
		QueryHelper.Insert.CapmRun,
		QueryHelper.Update.CapmRun,
	} {
		if !strings.Contains(Get(path), "@") {
			t.Errorf("query %q has no pgx named arguments", path)
		}
	}
}

// collectQueryPaths recursively walks v and appends every non empty string field to paths
func collectQueryPaths(v reflect.Value, paths *[]string) {
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)

		if field.Kind() == reflect.String {
			if s := field.String(); s != "" {
				*paths = append(*paths, s)
			}
		} else {
			collectQueryPaths(field, paths)
		}
	}
}
