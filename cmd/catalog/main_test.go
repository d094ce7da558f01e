package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/space-catalog/internal/config"
	"github.com/Sternrassler/space-catalog/internal/testutil"
	"github.com/Sternrassler/space-catalog/pkg/catalog"
)

// isolate clears the CATALOG_* environment and returns a config path that
// does not exist.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range []string{
		config.EnvBaseURL, config.EnvUserAgent, config.EnvTimeout, config.EnvRedisAddr,
		config.EnvRedisDB, config.EnvLogLevel, config.EnvLogPretty, config.EnvMetricsAddr,
	} {
		t.Setenv(key, "")
	}
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })
	return filepath.Join(t.TempDir(), "config.toml")
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(strings.NewReader(stdin), &out).execute(context.Background(), args)
	return out.String(), err
}

// runCmd executes args against mock with logging off.
func runCmd(t *testing.T, mock *testutil.MockCatalog, stdin string, args ...string) (string, error) {
	t.Helper()
	base := []string{"--config", isolate(t), "--base-url", mock.URL(), "--log-level", "disabled"}
	return execute(t, stdin, append(base, args...)...)
}

func seeded(t *testing.T, n int) *testutil.MockCatalog {
	t.Helper()
	mock := testutil.NewMockCatalog()
	mock.Seed(n)
	t.Cleanup(mock.Close)
	return mock
}

func TestListCmd_FirstPage(t *testing.T) {
	mock := seeded(t, 25)

	out, err := runCmd(t, mock, "", "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "Object 1 ") || !strings.Contains(out, "Object 10") {
		t.Errorf("first page missing objects:\n%s", out)
	}
	if strings.Contains(out, "Object 11") {
		t.Errorf("first page shows the second page:\n%s", out)
	}
	if !strings.Contains(out, "page 1, 10 objects of 25 (more with --page 2)") {
		t.Errorf("summary missing:\n%s", out)
	}
	if q := mock.LastQuery(); q["_page"] != "1" || q["_limit"] != "10" {
		t.Errorf("query = %v", q)
	}
}

func TestListCmd_LastPage(t *testing.T) {
	mock := seeded(t, 25)

	out, err := runCmd(t, mock, "", "list", "--page", "3")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "Object 25") {
		t.Errorf("last page missing object 25:\n%s", out)
	}
	if strings.Contains(out, "more with") {
		t.Errorf("short page should not offer more:\n%s", out)
	}
}

func TestListCmd_All(t *testing.T) {
	mock := seeded(t, 25)

	out, err := runCmd(t, mock, "", "list", "--all")
	if err != nil {
		t.Fatalf("list --all failed: %v", err)
	}
	if !strings.Contains(out, "25 objects") {
		t.Errorf("expected 25 objects:\n%s", out)
	}
	if mock.GetListCount() < 3 {
		t.Errorf("list requests = %d, want at least 3", mock.GetListCount())
	}
}

func TestListCmd_RejectsPageZero(t *testing.T) {
	mock := seeded(t, 1)

	if _, err := runCmd(t, mock, "", "list", "--page", "0"); err == nil {
		t.Fatal("expected an error for --page 0")
	}
	if mock.GetRequestCount() != 0 {
		t.Errorf("requests = %d, want 0", mock.GetRequestCount())
	}
}

func TestListCmd_Empty(t *testing.T) {
	mock := seeded(t, 0)

	out, err := runCmd(t, mock, "", "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "No space objects.") {
		t.Errorf("output:\n%s", out)
	}
}

func createArgs(name string) []string {
	return []string{
		"create",
		"--name", name,
		"--type", "Exoplanet",
		"--mass", "2.1e25",
		"--diameter", "30000",
		"--distance", "600",
		"--year", "2011",
		"--habitable",
		"--description", "First transiting planet in a habitable zone",
	}
}

func TestCreateCmd_Success(t *testing.T) {
	mock := seeded(t, 2)

	out, err := runCmd(t, mock, "", createArgs("Kepler-22b")...)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.Contains(out, "Space object added") || !strings.Contains(out, "id: 3") {
		t.Errorf("output:\n%s", out)
	}

	objs := mock.Objects()
	if len(objs) != 3 {
		t.Fatalf("objects = %d, want 3", len(objs))
	}
	if got := objs[2]; got.Name != "Kepler-22b" || !got.IsHabitable || got.DiscoveryYear != 2011 {
		t.Errorf("created = %+v", got)
	}
}

func TestCreateCmd_InvalidSendsNothing(t *testing.T) {
	mock := seeded(t, 0)

	out, err := runCmd(t, mock, "", "create", "--name", "X", "--type", "S", "--mass", "heavy")
	if err == nil {
		t.Fatal("expected a validation error")
	}
	for _, field := range []string{catalog.FieldName, catalog.FieldType, catalog.FieldMass, catalog.FieldDescription} {
		if !strings.Contains(out, field+":") {
			t.Errorf("output missing %s error:\n%s", field, out)
		}
	}
	if mock.GetCreateCount() != 0 {
		t.Errorf("creates = %d, want 0", mock.GetCreateCount())
	}
}

func TestCreateCmd_ServerFailure(t *testing.T) {
	mock := seeded(t, 0)
	mock.FailNext(http.MethodPost, http.StatusInternalServerError, 1)

	out, err := runCmd(t, mock, "", createArgs("Kepler-22b")...)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(out, "Failed to add space object") {
		t.Errorf("output:\n%s", out)
	}
	if mock.GetCreateCount() != 1 {
		t.Errorf("creates = %d, want 1 (no retry)", mock.GetCreateCount())
	}
}

func TestDeleteCmd(t *testing.T) {
	tests := []struct {
		name        string
		stdin       string
		args        []string
		wantDeletes int
		wantOutput  string
		wantErr     bool
	}{
		{"yes flag", "", []string{"delete", "2", "--yes"}, 1, "Space object deleted", false},
		{"prompt accepted", "y\n", []string{"delete", "2"}, 1, "Space object deleted", false},
		{"prompt declined", "n\n", []string{"delete", "2"}, 0, "Cancelled", false},
		{"prompt empty", "\n", []string{"delete", "2"}, 0, "Cancelled", false},
		{"missing object", "", []string{"delete", "99", "--yes"}, 1, "Failed to delete space object", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := seeded(t, 3)

			out, err := runCmd(t, mock, tt.stdin, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(out, tt.wantOutput) {
				t.Errorf("output missing %q:\n%s", tt.wantOutput, out)
			}
			if got := mock.GetDeleteCount(); got != tt.wantDeletes {
				t.Errorf("deletes = %d, want %d", got, tt.wantDeletes)
			}
		})
	}
}

func TestDeleteCmd_RequiresID(t *testing.T) {
	mock := seeded(t, 1)
	if _, err := runCmd(t, mock, "", "delete"); err == nil {
		t.Fatal("expected an error without an id")
	}
}

func TestExportCmd_File(t *testing.T) {
	mock := seeded(t, 23)
	path := filepath.Join(t.TempDir(), "export.json")

	if _, err := runCmd(t, mock, "", "export", "--out", path); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var items []catalog.SpaceObject
	if err := json.Unmarshal(data, &items); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(items) != 23 {
		t.Fatalf("items = %d, want 23", len(items))
	}
	for i, o := range items {
		if want := fmt.Sprint(i + 1); o.ID != want {
			t.Errorf("items[%d].ID = %s, want %s", i, o.ID, want)
		}
	}
}

func TestExportCmd_Stdout(t *testing.T) {
	mock := seeded(t, 4)

	out, err := runCmd(t, mock, "", "export")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	var items []catalog.SpaceObject
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("stdout is not a JSON array: %v\n%s", err, out)
	}
	if len(items) != 4 {
		t.Errorf("items = %d, want 4", len(items))
	}
}

func TestRootCmd_ConfigFile(t *testing.T) {
	mock := seeded(t, 3)
	path := isolate(t)
	content := fmt.Sprintf("base_url = %q\nlog_level = \"disabled\"\n", mock.URL())
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "", "--config", path, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "Object 3") {
		t.Errorf("output:\n%s", out)
	}
}

func TestRootCmd_FlagOverridesEnv(t *testing.T) {
	mock := seeded(t, 1)
	path := isolate(t)
	t.Setenv(config.EnvBaseURL, "http://127.0.0.1:1/api")

	out, err := execute(t, "", "--config", path, "--log-level", "disabled", "--base-url", mock.URL(), "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "Object 1") {
		t.Errorf("output:\n%s", out)
	}
}

func TestRootCmd_InvalidBaseURL(t *testing.T) {
	path := isolate(t)
	if _, err := execute(t, "", "--config", path, "--log-level", "disabled", "--base-url", "ftp://example.com", "list"); err == nil {
		t.Fatal("expected an error for a non-http base url")
	}
}

func TestRootCmd_MetricsServer(t *testing.T) {
	mock := seeded(t, 1)

	if _, err := runCmd(t, mock, "", "--metrics-addr", "127.0.0.1:0", "list"); err != nil {
		t.Fatalf("list with metrics failed: %v", err)
	}
}

func TestRootCmd_ReleasesResourcesOnFailure(t *testing.T) {
	mock := seeded(t, 1)
	path := isolate(t)

	var out bytes.Buffer
	a := newApp(strings.NewReader(""), &out)
	err := a.execute(context.Background(), []string{
		"--config", path, "--log-level", "disabled", "--base-url", mock.URL(),
		"--metrics-addr", "127.0.0.1:0", "list", "--page", "0",
	})
	if err == nil {
		t.Fatal("expected list --page 0 to fail")
	}
	if a.stopMetrics != nil {
		t.Error("metrics server still running after failed command")
	}
	if a.client != nil {
		t.Error("client not closed after failed command")
	}
	if a.redis != nil {
		t.Error("redis connection not closed after failed command")
	}
}
