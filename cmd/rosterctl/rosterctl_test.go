package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	docJan06 = `Inventory Services Weekly Schedule 06/Jan/2025
D101 07:00 15:00 Smith, John
E201 15:00 23:00 Doe, Jane
`
	docJan13 = `Inventory Services Weekly Schedule 13/Jan/2025
Exceptions Day Unit:
Off: Smith, John 07:00 - 15:00 Sick Relief: Doe, Jane
Scheduled Shifts
D101 07:00 15:00 Doe, Jane
`
)

// workspace 写入配置、名册与两份排班文档，返回 (配置路径, 文档目录)
func workspace(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	roster := write("roster.yaml", "names:\n  - \"Smith, John\"\n  - \"Doe, Jane\"\n")
	employees := write("employees.json", `["Smith, John", "Doe, Jane"]`)
	cfg := write("config.yaml", "log:\n  level: error\nroster:\n  roster_file: "+roster+
		"\n  employees_file: "+employees+"\nreport:\n  output_dir: "+filepath.Join(dir, "out")+"\n  workers: 2\n")
	write("docs/roster_2025-01-06.txt", docJan06)
	write("docs/roster_2025-01-13.txt", docJan13)
	return cfg, filepath.Join(dir, "docs")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReportCommand(t *testing.T) {
	cfg, docs := workspace(t)
	outDir := filepath.Join(t.TempDir(), "reports")

	out, err := run(t, "report", "-c", cfg, "-o", outDir, filepath.Join(docs, "*.txt"))
	require.NoError(t, err)

	path := filepath.Join(outDir, "ARGX_2025-01-06.xlsx")
	assert.Contains(t, out, "已写入 "+path)
	assert.Contains(t, out, "roster_2025-01-06.txt")
	assert.Contains(t, out, "最忙的一天: 2025-01-06")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))
}

func TestReportCommand_DefaultOutputDir(t *testing.T) {
	cfg, docs := workspace(t)

	_, err := run(t, "report", "--config", cfg, filepath.Join(docs, "roster_2025-01-13.txt"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(filepath.Dir(cfg), "out", "ARGX_2025-01-13.xlsx"))
	assert.NoError(t, err)
}

func TestHeatmapCommand_JSON(t *testing.T) {
	cfg, docs := workspace(t)

	out, err := run(t, "heatmap", "-c", cfg, "--format", "json", filepath.Join(docs, "*.txt"))
	require.NoError(t, err)

	var m struct {
		People []string    `json:"people"`
		Weeks  []string    `json:"weeks"`
		Values [][]float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, []string{"Doe, Jane", "Smith, John"}, m.People)
	assert.Equal(t, []string{"2025-01-06", "2025-01-13"}, m.Weeks)
	assert.Equal(t, [][]float64{{8, 8}, {8, 0}}, m.Values)
}

func TestHeatmapCommand_BadFormat(t *testing.T) {
	cfg, docs := workspace(t)

	_, err := run(t, "heatmap", "-c", cfg, "--format", "csv", filepath.Join(docs, "*.txt"))
	assert.ErrorContains(t, err, "csv")
}

func TestSwapsCommand(t *testing.T) {
	cfg, docs := workspace(t)

	out, err := run(t, "swaps", "-c", cfg, filepath.Join(docs, "*.txt"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2, "表头 + 1 条换班")
	assert.Contains(t, lines[1], "2025-01-13")
	assert.Contains(t, lines[1], "Smith, John")
	assert.Contains(t, lines[1], "Doe, Jane")
}

func TestCalendarCommand(t *testing.T) {
	cfg, docs := workspace(t)
	target := filepath.Join(t.TempDir(), "jane.ics")

	_, err := run(t, "calendar", "-c", cfg, "-p", "Doe, Jane", "-o", target, filepath.Join(docs, "*.txt"))
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "BEGIN:VEVENT"))

	out, err := run(t, "calendar", "-c", cfg, "-p", "Doe, Jane", filepath.Join(docs, "*.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
}

func TestCalendarCommand_RequiresPerson(t *testing.T) {
	cfg, docs := workspace(t)

	_, err := run(t, "calendar", "-c", cfg, filepath.Join(docs, "*.txt"))
	assert.ErrorContains(t, err, "person")
}

func TestFlagOverrides(t *testing.T) {
	cfg, docs := workspace(t)

	_, err := run(t, "swaps", "-c", cfg, "--dedup-mode", "bogus", filepath.Join(docs, "*.txt"))
	assert.ErrorContains(t, err, "dedup_mode")

	_, err = run(t, "swaps", "-c", cfg, "--roster", filepath.Join(docs, "missing.yaml"), filepath.Join(docs, "*.txt"))
	assert.Error(t, err)
}

func TestLoadDocuments(t *testing.T) {
	_, docs := workspace(t)

	got, err := loadDocuments([]string{
		filepath.Join(docs, "roster_2025-01-13.txt"),
		filepath.Join(docs, "*.txt"),
	})
	require.NoError(t, err)
	require.Len(t, got, 2, "重复路径只加载一次")
	assert.Equal(t, "roster_2025-01-06.txt", got[0].Name)

	_, err = loadDocuments([]string{filepath.Join(docs, "missing.txt")})
	assert.Error(t, err)
}
