package archive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
	failKey string
}

func newFakePutter() *fakePutter {
	return &fakePutter{objects: map[string]string{}, types: map[string]string{}}
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(in.Key)
	if key == f.failKey {
		return nil, errors.New("access denied")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+key] = string(body)
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func writeArtifacts(t *testing.T) (string, []string) {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"sitemaps/Blog_2024-05-01_12-00-01.xml": "<urlset/>",
		"logs/Blog_2024-05-01_12-00-01.txt":     "网站: Blog\n",
		"logs/run_2024-05-01_12-00-05.yaml":     "version: 1\n",
	}
	var paths []string
	for rel, content := range files {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		paths = append(paths, p)
	}
	return root, paths
}

func TestArchive_UploadsUnderRunPrefix(t *testing.T) {
	_, paths := writeArtifacts(t)
	putter := newFakePutter()
	a := NewWithClient(putter, "bucket", "/sitewatch/", nil)

	n, err := a.Archive(context.Background(), "2024-05-01_12-00-05", paths)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Equal(t, "<urlset/>", putter.objects["bucket/sitewatch/2024-05-01_12-00-05/sitemaps/Blog_2024-05-01_12-00-01.xml"])
	assert.Equal(t, "网站: Blog\n", putter.objects["bucket/sitewatch/2024-05-01_12-00-05/logs/Blog_2024-05-01_12-00-01.txt"])
	assert.Equal(t, "application/yaml", putter.types["sitewatch/2024-05-01_12-00-05/logs/run_2024-05-01_12-00-05.yaml"])
}

func TestArchive_ContinuesAfterFailure(t *testing.T) {
	_, paths := writeArtifacts(t)
	putter := newFakePutter()
	putter.failKey = "2024-05-01_12-00-05/logs/Blog_2024-05-01_12-00-01.txt"
	a := NewWithClient(putter, "bucket", "", nil)

	n, err := a.Archive(context.Background(), "2024-05-01_12-00-05", append(paths, "/does/not/exist.txt"))
	require.Error(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, putter.objects, 2)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/xml", contentType("a/b.XML"))
	assert.Equal(t, "text/plain; charset=utf-8", contentType("a/b.txt"))
}
