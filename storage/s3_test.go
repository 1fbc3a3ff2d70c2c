package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"civicwatch/config"
)

func TestArchiveKey(t *testing.T) {
	at := time.Date(2025, 3, 4, 10, 5, 6, 0, time.FixedZone("EST", -5*3600))
	require.Equal(t, "raw/assembl-e-nationale-du-qu-bec/officials/20250304T150506Z.html",
		ArchiveKey("Assemblée nationale du Québec", "officials", at))
	require.Equal(t, "raw/unknown/bills/20250304T150506Z.html", ArchiveKey("!!!", "bills", at))
}

func TestPutPageUsesPathStyle(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a, err := NewArchiver(&config.Config{
		ArchiveS3URL:    srv.URL,
		ArchiveS3Region: "ca-central-1",
		ArchiveS3Key:    "key",
		ArchiveS3Secret: "secret",
		ArchiveS3Bucket: "pages",
	})
	require.NoError(t, err)

	at := time.Date(2025, 3, 4, 15, 5, 6, 0, time.UTC)
	link, err := a.PutPage(context.Background(), "City of Toronto", "officials", at, []byte("<html></html>"))
	require.NoError(t, err)

	require.Equal(t, http.MethodPut, gotMethod)
	require.Equal(t, "/pages/raw/city-of-toronto/officials/20250304T150506Z.html", gotPath)
	require.Contains(t, string(gotBody), "<html></html>")
	require.Equal(t, srv.URL+"/pages/raw/city-of-toronto/officials/20250304T150506Z.html", link)
}

func TestObjectsAndDelete(t *testing.T) {
	var deleted string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			require.Equal(t, "backups/", r.URL.Query().Get("prefix"))
			w.Header().Set("Content-Type", "application/xml")
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>pages</Name><Prefix>backups/</Prefix><KeyCount>2</KeyCount><IsTruncated>false</IsTruncated>
  <Contents><Key>backups/a.sql.gz</Key><LastModified>2025-01-01T00:00:00.000Z</LastModified><Size>10</Size></Contents>
  <Contents><Key>backups/b.sql.gz</Key><LastModified>2025-02-01T00:00:00.000Z</LastModified><Size>20</Size></Contents>
</ListBucketResult>`)
		case http.MethodDelete:
			deleted = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	a, err := NewArchiver(&config.Config{
		ArchiveS3URL: srv.URL, ArchiveS3Region: "ca-central-1",
		ArchiveS3Key: "key", ArchiveS3Secret: "secret", ArchiveS3Bucket: "pages",
	})
	require.NoError(t, err)

	objs, err := a.Objects(context.Background(), "backups/")
	require.NoError(t, err)
	require.Equal(t, []Object{
		{Key: "backups/a.sql.gz", LastModified: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Size: 10},
		{Key: "backups/b.sql.gz", LastModified: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), Size: 20},
	}, objs)

	require.NoError(t, a.Delete(context.Background(), "backups/a.sql.gz"))
	require.Equal(t, "/pages/backups/a.sql.gz", deleted)
}
