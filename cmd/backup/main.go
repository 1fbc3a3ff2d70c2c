package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sort"
	"time"

	"github.com/kelseyhightower/envconfig"

	"civicwatch/config"
	"civicwatch/storage"
)

// BackupConfig nutzt dieselben Variablen wie der Dienst.
type BackupConfig struct {
	DatabaseURL  string `envconfig:"DATABASE_URL" required:"true"`
	S3URL        string `envconfig:"ARCHIVE_S3_URL" required:"true"`
	S3Region     string `envconfig:"ARCHIVE_S3_REGION" default:"ca-central-1"`
	S3Key        string `envconfig:"ARCHIVE_S3_KEY" required:"true"`
	S3Secret     string `envconfig:"ARCHIVE_S3_SECRET" required:"true"`
	S3Bucket     string `envconfig:"ARCHIVE_S3_BUCKET" required:"true"`
	BackupPrefix string `envconfig:"BACKUP_PREFIX" default:"backups/"`
	KeepBackups  int    `envconfig:"KEEP_BACKUPS" default:"4"`
}

func (c BackupConfig) archiveConfig() *config.Config {
	return &config.Config{
		ArchiveS3URL:    c.S3URL,
		ArchiveS3Region: c.S3Region,
		ArchiveS3Key:    c.S3Key,
		ArchiveS3Secret: c.S3Secret,
		ArchiveS3Bucket: c.S3Bucket,
	}
}

func main() {
	log.Println("Starte Backup-Prozess...")

	var cfg BackupConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Fehler beim Laden der Konfiguration: %v", err)
	}
	ctx := context.Background()

	// 1. Datenbank-Dump erstellen
	dumpData, err := createDump(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Fehler beim Erstellen des DB-Dumps: %v", err)
	}

	// 2. S3-Client erstellen
	archive, err := storage.NewArchiver(cfg.archiveConfig())
	if err != nil {
		log.Fatalf("Fehler beim Erstellen des S3-Clients: %v", err)
	}

	// 3. Backup nach S3 hochladen
	key := backupKey(cfg.BackupPrefix, time.Now())
	link, err := archive.Put(ctx, key, "application/gzip", dumpData)
	if err != nil {
		log.Fatalf("Fehler beim Hochladen nach S3: %v", err)
	}
	log.Printf("Backup %s erfolgreich hochgeladen (%d Bytes).", link, len(dumpData))

	// 4. Alte Backups rotieren
	if err := rotateBackups(ctx, archive, cfg.BackupPrefix, cfg.KeepBackups); err != nil {
		log.Fatalf("Fehler beim Rotieren der Backups: %v", err)
	}

	log.Println("Backup-Prozess erfolgreich abgeschlossen.")
}

func backupKey(prefix string, at time.Time) string {
	return fmt.Sprintf("%sbackup-%s.sql.gz", prefix, at.UTC().Format("2006-01-02T15-04-05Z"))
}

func createDump(ctx context.Context, databaseURL string) ([]byte, error) {
	log.Println("Erstelle Datenbank-Dump...")
	cmd := exec.CommandContext(ctx, "pg_dump", "--dbname="+databaseURL, "--no-owner", "--clean", "--if-exists")
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("pg_dump start: %w", err)
	}

	var buf bytes.Buffer
	if err := compress(&buf, stdout); err != nil {
		_ = cmd.Wait()
		return nil, err
	}
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("pg_dump: %w", err)
	}
	log.Printf("Dump erstellt (%d Bytes komprimiert).", buf.Len())
	return buf.Bytes(), nil
}

func compress(dst io.Writer, src io.Reader) error {
	gz := gzip.NewWriter(dst)
	if _, err := io.Copy(gz, src); err != nil {
		return fmt.Errorf("gzip: %w", err)
	}
	return gz.Close()
}

type backupStore interface {
	Objects(ctx context.Context, prefix string) ([]storage.Object, error)
	Delete(ctx context.Context, key string) error
}

func rotateBackups(ctx context.Context, store backupStore, prefix string, keep int) error {
	log.Printf("Rotiere Backups, behalte die neuesten %d...", keep)
	objects, err := store.Objects(ctx, prefix)
	if err != nil {
		return err
	}
	for _, key := range expired(objects, keep) {
		log.Printf("Lösche altes Backup: %s", key)
		if err := store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// expired returns the keys of everything but the newest keep objects.
func expired(objects []storage.Object, keep int) []string {
	if keep < 1 || len(objects) <= keep {
		return nil
	}
	sorted := append([]storage.Object(nil), objects...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LastModified.After(sorted[j].LastModified)
	})
	var out []string
	for _, o := range sorted[keep:] {
		out = append(out, o.Key)
	}
	return out
}
