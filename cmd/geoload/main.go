package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"geoload/internal/config"
	"geoload/internal/datasource/file"
	"geoload/internal/loader"
	"geoload/internal/metrics"
	"geoload/internal/metrics/prompush"
	csvparser "geoload/internal/parser/csv"
	"geoload/internal/record"
	"geoload/internal/reject"
	"geoload/internal/storage"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "geoload/internal/storage/all"
)

// main is the entry point for the geoload binary. It loads the job config,
// applies flag overrides, optionally initializes a metrics backend, and
// executes the load.
func main() {
	var (
		cfgPath           string
		sourceFlg         string
		dsnFlg            string
		tableFlg          string
		chunkFlg          int
		rejectLogFlg      string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/jobs/sample.json", "job config JSON path")
	flag.StringVar(&sourceFlg, "source", "", "CSV path (overrides source.file.path)")
	flag.StringVar(&dsnFlg, "dsn", "", "database DSN (overrides storage.db.dsn)")
	flag.StringVar(&tableFlg, "table", "", "destination table (overrides storage.db.table)")
	flag.IntVar(&chunkFlg, "chunk-size", 0, "rows per transaction window (overrides runtime.chunk_size)")
	flag.StringVar(&rejectLogFlg, "reject-log", "", "rejection log path (overrides reject_log)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "pushgateway", "metrics backend to use (e.g. pushgateway, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "http://localhost:9091", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	f, err := os.Open(cfgPath)
	if err != nil {
		fatalf("open config: %v", err)
	}
	var job config.Job
	err = json.NewDecoder(f).Decode(&job)
	f.Close()
	if err != nil {
		fatalf("decode config: %v", err)
	}

	// Flag overrides beat the file; handy for one-off loads.
	if sourceFlg != "" {
		job.Source.Kind = "file"
		job.Source.File.Path = sourceFlg
	}
	if dsnFlg != "" {
		job.Storage.DB.DSN = dsnFlg
	}
	if tableFlg != "" {
		job.Storage.DB.Table = tableFlg
	}
	if chunkFlg > 0 {
		job.Runtime.ChunkSize = chunkFlg
	}
	if rejectLogFlg != "" {
		job.RejectLog = rejectLogFlg
	}
	if job.RejectLog == "" {
		job.RejectLog = config.DefaultRejectLog
	}

	issues := config.ValidateJob(job)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("Configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("Configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	// Decide metrics backend: flag → env → default.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		// Decide Pushgateway URL: flag → env → default.
		gwURL := pushGatewayURLFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}

		jobName := job.Name
		if jobName == "" {
			jobName = "geoload_job"
		}

		b, err := prompush.NewBackend(jobName, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
		} else {
			log.Printf("metrics: url=%v, backend=%v, job_name=%v", gwURL, backendName, jobName)
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Printf("metrics: flush error: %v", err)
				}
			}()
		}

	case "", "none":
		// metrics disabled; nop backend remains
		if *verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}

	ctx := context.Background()
	start := time.Now()

	src := file.NewLocal(job.Source.File.Path)
	if *verbose {
		log.Printf("job: name=%s source=%s bytes=%d storage=%s table=%s chunk=%d",
			job.Name, src.Path(), src.Size(), job.Storage.Kind, job.Storage.DB.Table, job.Runtime.ChunkSize)
	}

	if err := run(ctx, job, src); err != nil {
		log.Fatalf("%v", err)
	}

	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// run wires the source, parser, storage, and rejection log together and
// executes the load.
func run(ctx context.Context, job config.Job, src *file.Local) error {
	rc, err := src.Open(ctx)
	if err != nil {
		return err
	}
	defer rc.Close()

	reader, err := csvparser.NewReader(rc, record.Columns, csvparser.Options{
		Comma:     job.Parser.Options.Rune("comma", ','),
		TrimSpace: job.Parser.Options.Bool("trim_space", true),
		HeaderMap: job.Parser.Options.StringMap("header_map"),
		OnRowErr: func(line int, err error) {
			log.Printf("csv: line=%d skipped: %v", line, err)
		},
	})
	if err != nil {
		return fmt.Errorf("csv header: %w", err)
	}

	repo, err := storage.New(ctx, storage.Config{
		Kind:  job.Storage.Kind,
		DSN:   job.Storage.DB.DSN,
		Table: job.Storage.DB.Table,
	})
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer repo.Close()

	rejects, err := reject.Open(job.RejectLog)
	if err != nil {
		return err
	}
	defer rejects.Close()

	_, err = loader.Run(ctx, loader.Config{
		Job:       job.Name,
		ChunkSize: job.Runtime.ChunkSize,
		Source:    reader,
		Repo:      repo,
		Rejects:   rejects,
	})
	return err
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
