// Package main provides a browser for recorded merge runs. It lists
// recent runs as aligned text or JSON, or serves them over HTTP
// together with the database debugging routes.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/density.report/internal/httputil"
	"github.com/banshee-data/density.report/internal/storage/sqlite"
)

var (
	dbPath = flag.String("db", "merge_history.db", "Path to the merge history database")
	limit  = flag.Int("limit", 20, "Maximum number of runs to list")
	asJSON = flag.Bool("json", false, "Print the run list as JSON")
	listen = flag.String("listen", "", "Serve the run history over HTTP on this address instead of listing")
)

func main() {
	flag.Parse()

	db, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := db.MigrateUp(sqlite.Migrations()); err != nil {
		log.Fatalf("migrate db: %v", err)
	}

	store := sqlite.NewRunStore(db, nil)

	if *listen != "" {
		if err := serve(db, store, *listen); err != nil {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	runs, err := store.List(*limit)
	if err != nil {
		log.Fatalf("list runs: %v", err)
	}

	if *asJSON {
		data, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			log.Fatalf("marshal runs: %v", err)
		}
		fmt.Println(string(data))
		return
	}

	printRuns(os.Stdout, runs)
}

// printRuns writes one line per run, newest first, aligned in columns.
func printRuns(out io.Writer, runs []*sqlite.MergeRun) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No merge runs recorded")
		return
	}

	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tOUTPUT\tGRID\tFILES\tPOINTS\tMEAN\tDURATION")
	for _, r := range runs {
		created := time.Unix(0, r.CreatedAtNs).UTC().Format("2006-01-02 15:04:05")
		fmt.Fprintf(w, "%s\t%s\t%dx%dx%d\t%d\t%d\t%.4f\t%d ms\n",
			created, r.OutputPath, r.NX, r.NY, r.NZ, r.FileCount, r.PointCount, r.MeanValue, r.DurationMs)
	}
	w.Flush()
}

// server ties the run store to the HTTP routes.
type server struct {
	db           *sqlite.DB
	store        *sqlite.RunStore
	defaultLimit int
}

func (s *server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status": "ok", "service": "merge-history", "timestamp": "%s"}`, time.Now().UTC().Format(time.RFC3339))
	})

	mux.HandleFunc("/api/runs", s.listRuns)

	// tailsql browser and backup download for the history database
	s.db.AttachAdminRoutes(mux)

	return mux
}

func (s *server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	runs, err := s.store.List(s.queryLimit(r))
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []*sqlite.MergeRun{}
	}
	httputil.WriteJSONOK(w, runs)
}

// queryLimit reads the limit query parameter, falling back to the flag
// value for anything missing or unusable.
func (s *server) queryLimit(r *http.Request) int {
	q := r.URL.Query().Get("limit")
	if q == "" {
		return s.defaultLimit
	}
	n, err := strconv.Atoi(q)
	if err != nil || n <= 0 {
		return s.defaultLimit
	}
	return n
}

func serve(db *sqlite.DB, store *sqlite.RunStore, addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &server{db: db, store: store, defaultLimit: *limit}

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv.ServeMux(),
	}

	// Start server in a goroutine so it doesn't block
	go func() {
		log.Printf("Serving merge history on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for a signal to shut down
	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}
