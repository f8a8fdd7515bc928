package deltalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitewatch/pkg/domain"
)

func TestFormat(t *testing.T) {
	got := Format(domain.DeltaLog{
		Source:    "Blog",
		Timestamp: "2024-05-01_12-00-00",
		Count:     1,
		URLs:      []string{"C"},
	})

	assert.Equal(t, "网站: Blog\n检测时间: 2024-05-01_12-00-00\n新增页面数量: 1\n\nC\n", got)
}

func TestWrite_SetsPathAndCount(t *testing.T) {
	dir := t.TempDir()
	log := domain.DeltaLog{Source: "News", Timestamp: "2024-05-01_12-00-00", URLs: []string{"X", "Y"}}

	require.NoError(t, Write(dir, &log))

	assert.Equal(t, filepath.Join(dir, "News_2024-05-01_12-00-00.txt"), log.Path)
	assert.Equal(t, 2, log.Count)
	data, err := os.ReadFile(log.Path)
	require.NoError(t, err)
	assert.Equal(t, "网站: News\n检测时间: 2024-05-01_12-00-00\n新增页面数量: 2\n\nX\nY\n", string(data))
}

func TestWrite_RefusesEmpty(t *testing.T) {
	dir := t.TempDir()
	log := domain.DeltaLog{Source: "News", Timestamp: "2024-05-01_12-00-00"}

	require.Error(t, Write(dir, &log))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWrite_RefusesMultilineURL(t *testing.T) {
	dir := t.TempDir()
	log := domain.DeltaLog{Source: "News", Timestamp: "2024-05-01_12-00-00", URLs: []string{"https://example.com/a", "https://example.com/\nb"}}

	assert.ErrorIs(t, Write(dir, &log), ErrMultilineURL)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteParseRoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := domain.DeltaLog{
		Source:    "Blog",
		Timestamp: "2024-05-01_12-00-00",
		URLs:      []string{"https://example.com/a", "https://example.com/b?x=1: y"},
	}
	require.NoError(t, Write(dir, &original))

	parsed, err := ParseFile(original.Path)
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestParse_ValueContainingSeparator(t *testing.T) {
	log, err := Parse("网站: Blog: EN\n检测时间: t\n新增页面数量: 1\n\nu\n")
	require.NoError(t, err)
	assert.Equal(t, "Blog: EN", log.Source)
}

func TestParse_SkipsBlankURLLines(t *testing.T) {
	log, err := Parse("网站: Blog\n检测时间: t\n新增页面数量: 2\n\na\n\n   \nb\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, log.URLs)
}

func TestParse_Malformed(t *testing.T) {
	tests := map[string]string{
		"too short":       "网站: Blog\n",
		"missing value":   "网站 Blog\n检测时间: t\n新增页面数量: 1\n\nu\n",
		"count not a int": "网站: Blog\n检测时间: t\n新增页面数量: many\n\nu\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(content)
			assert.ErrorIs(t, err, ErrMalformedLog)
		})
	}
}

func TestFormatSummary_GroupsAndOrders(t *testing.T) {
	logs := []domain.DeltaLog{
		{Source: "News", Timestamp: "2024-05-01_12-00-00", Count: 1, URLs: []string{"X"}, Path: "logs/News_2024-05-01_12-00-00.txt"},
		{Source: "Blog", Timestamp: "2024-05-01_12-00-02", Count: 1, URLs: []string{"C"}, Path: "logs/Blog_2024-05-01_12-00-02.txt"},
		{Source: "Blog", Timestamp: "2024-05-01_12-00-01", Count: 1, URLs: []string{"B"}, Path: "logs/Blog_2024-05-01_12-00-01.txt"},
	}

	got := FormatSummary("2024-05-01_12-00-05", logs)

	want := "新增页面汇总\n" +
		"生成时间: 2024-05-01_12-00-05\n" +
		"日志数量: 3\n" +
		"\n## Blog\n" +
		"\n### Blog_2024-05-01_12-00-01.txt\n" +
		"网站: Blog\n检测时间: 2024-05-01_12-00-01\n新增页面数量: 1\n\nB\n" +
		"\n### Blog_2024-05-01_12-00-02.txt\n" +
		"网站: Blog\n检测时间: 2024-05-01_12-00-02\n新增页面数量: 1\n\nC\n" +
		"\n## News\n" +
		"\n### News_2024-05-01_12-00-00.txt\n" +
		"网站: News\n检测时间: 2024-05-01_12-00-00\n新增页面数量: 1\n\nX\n"
	assert.Equal(t, want, got)
	// input order is untouched
	assert.Equal(t, "News", logs[0].Source)
}

func TestWriteSummary(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteSummary(dir, "2024-05-01_12-00-05", nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = WriteSummary(dir, "2024-05-01_12-00-05", []domain.DeltaLog{
		{Source: "Blog", Timestamp: "2024-05-01_12-00-00", Count: 1, URLs: []string{"C"}},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "summary_2024-05-01_12-00-05.txt"), path)
	assert.True(t, IsSummary(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "### Blog_2024-05-01_12-00-00.txt\n")
}

func TestRecent(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	touch := func(name string, mtime time.Time) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		require.NoError(t, os.Chtimes(path, mtime, mtime))
		return path
	}

	fresh := touch("Blog_2024-05-01_12-00-00.txt", now.Add(-10*time.Second))
	touch("Old_2024-04-01_12-00-00.txt", now.Add(-2*time.Minute))
	touch("summary_2024-05-01_12-00-00.txt", now)
	touch("run_2024-05-01_12-00-00.yaml", now)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.txt"), 0o755))

	paths, err := Recent(dir, time.Minute, now)
	require.NoError(t, err)
	assert.Equal(t, []string{fresh}, paths)
}

func TestRecent_MissingDir(t *testing.T) {
	paths, err := Recent(filepath.Join(t.TempDir(), "none"), time.Minute, time.Now())
	require.NoError(t, err)
	assert.Empty(t, paths)
}
