package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"binroute/internal/config"
	"binroute/internal/fleet"
	"binroute/internal/loader"
	"binroute/internal/metrics"
	"binroute/internal/model"
	"binroute/internal/opt"
	"binroute/internal/pack"
	"binroute/internal/progress"
	"binroute/internal/report"
	"binroute/internal/store"
)

func main() {
	input := flag.String("input", "", "instance file or directory of .json/.txt instances")
	resultDir := flag.String("result-dir", "result", "directory for result files")
	cfgPath := flag.String("config", "", "solver config YAML (defaults when empty)")
	seed := flag.Int64("seed", 0, "RNG seed (0 picks one from the clock)")
	flag.Parse()

	if *input == "" {
		log.Fatalf("usage: solver -input <file|dir> [-result-dir dir] [-config file] [-seed n]")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	metrics.RegisterDefault()

	broker := newBroker()
	st := newStore()

	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		go serveMetrics(addr, broker)
	}

	files, err := collectInputs(*input)
	if err != nil {
		log.Fatalf("inputs: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("no instance files found in %s", *input)
	}
	log.Printf("found %d instance(s) to process", len(files))

	failures := 0
	for _, path := range files {
		if err := solveInstance(path, *resultDir, cfg, *seed, broker, st); err != nil {
			failures++
			log.Printf("error processing %s: %v", path, err)
		}
	}
	if failures > 0 {
		os.Exit(1)
	}
}

func newBroker() progress.EventBroker {
	if url := os.Getenv("REDIS_URL"); url != "" {
		b, err := progress.NewRedisBroker(url)
		if err != nil {
			log.Fatalf("redis broker: %v", err)
		}
		return b
	}
	return progress.NewBroker()
}

func newStore() store.Store {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		s, err := store.NewPostgres(dsn)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		return s
	}
	return store.NewMemory()
}

func serveMetrics(addr string, broker progress.EventBroker) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.Handle("/ws/progress", &progress.WSHandler{Broker: broker})
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Printf("metrics listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("metrics server: %v", err)
	}
}

func collectInputs(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{input}, nil
	}
	var files []string
	for _, pat := range []string{"*.txt", "*.json"} {
		matches, err := filepath.Glob(filepath.Join(input, pat))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

func solveInstance(path, resultDir string, cfg config.Config, seed int64, broker progress.EventBroker, st store.Store) error {
	log.Printf("==== processing %s ====", filepath.Base(path))

	prob, err := loader.LoadFile(path)
	if err != nil {
		return err
	}
	log.Printf("loaded %d customers and %d vehicle types", len(prob.Nodes)-2, len(prob.Vehicles))

	packer := pack.New(cfg.GridPrecision, cfg.SupportRatio, cfg.EnableCache)
	sel := fleet.NewSelector(prob, packer)
	engine, err := opt.New(prob, sel, cfg)
	if err != nil {
		return err
	}
	pub := progress.NewPublisher(broker, prob.Code, 10)
	engine.SetProgress(pub.Publish)

	start := time.Now()
	best, m, err := engine.Solve(seed)
	if err != nil {
		return err
	}
	log.Printf("finished in %.2fs: cost %.2f, %d routes, %d iterations (%d improvements)",
		m.DurationSeconds, best.Cost, len(best.Routes), m.Iterations, m.Improvements)

	if err := writeResults(resultDir, prob, best); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	run := store.Run{
		Instance:    prob.Code,
		Seed:        seed,
		Cost:        best.Cost,
		Distance:    best.TotalDistance(),
		AvgLoadRate: best.AvgLoadRate(),
		Vehicles:    len(best.Routes),
		Iterations:  m.Iterations,
		DurationSec: time.Since(start).Seconds(),
		Metrics: map[string]any{
			"improvements":  m.Improvements,
			"acceptedWorse": m.AcceptedWorse,
			"rejected":      m.Rejected,
			"bestCost":      m.BestCost,
			"finalCost":     m.FinalCost,
		},
	}
	if _, err := st.SaveRun(ctx, run); err != nil {
		// persistence is best effort: the result files already exist
		log.Printf("save run for %s: %v", prob.Code, err)
	}
	return nil
}

func writeResults(dir string, prob *model.Problem, best *opt.Solution) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	jsonPath := filepath.Join(dir, fmt.Sprintf("%s_result.json", prob.Code))
	jf, err := os.Create(jsonPath)
	if err != nil {
		return err
	}
	if err := report.Build(prob, best).WriteJSON(jf); err != nil {
		_ = jf.Close()
		return err
	}
	if err := jf.Close(); err != nil {
		return err
	}
	log.Printf("result saved to %s", jsonPath)

	txtPath := filepath.Join(dir, fmt.Sprintf("%s_result.txt", prob.Code))
	tf, err := os.Create(txtPath)
	if err != nil {
		return err
	}
	if err := report.WriteText(tf, prob, best); err != nil {
		_ = tf.Close()
		return err
	}
	if err := tf.Close(); err != nil {
		return err
	}
	log.Printf("report saved to %s", txtPath)
	return nil
}
