package sqlite

import (
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/banshee-data/density.report/internal/monitoring"
)

// AttachAdminRoutes mounts the database debug surface on mux: a tailSQL
// console for ad hoc queries against the history database, and a backup
// endpoint that streams a gzipped VACUUM copy.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://"+db.Path, db.DB, &tailsql.DBOptions{
		Label: "Merge History DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(db.handleBackup))
}

// handleBackup snapshots the live database with VACUUM INTO and streams
// the copy back gzipped. The on-disk copy lasts only for the download.
func (db *DB) handleBackup(w http.ResponseWriter, r *http.Request) {
	name := fmt.Sprintf("merge-history-%d.db", time.Now().Unix())
	backupPath := filepath.Join(os.TempDir(), name)

	if _, err := db.Exec("VACUUM INTO ?", backupPath); err != nil {
		http.Error(w, fmt.Sprintf("backup failed: %v", err), http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := os.Remove(backupPath); err != nil {
			monitoring.Logf("[Storage] failed to remove backup %s: %v", backupPath, err)
		}
	}()

	f, err := os.Open(backupPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("open backup: %v", err), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.gz", name))
	w.Header().Set("Content-Type", "application/gzip")

	// Past this point the response is committed; stream errors go to the
	// log rather than a second status line.
	gz := gzip.NewWriter(w)
	if _, err := io.Copy(gz, f); err != nil {
		monitoring.Logf("[Storage] backup download interrupted: %v", err)
		return
	}
	if err := gz.Close(); err != nil {
		monitoring.Logf("[Storage] backup gzip flush: %v", err)
	}
}
