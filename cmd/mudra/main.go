package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/augment"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/dataset"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

const usage = `Usage: mudra [-config FILE] [command] [flags]

Commands:
  serve     run the recognizer, HTTP API and tray (default)
  dataset   build feature files from recorded samples
  train     fit a nearest-centroid model from feature files
`

func main() {
	fmt.Println("Mudra - Sign Language Recognition")

	configPath := flag.String("config", "", "YAML config file (default $"+config.PathEnv+")")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cmd, args := "serve", flag.Args()
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		err = runServe(cfg, args)
	case "dataset":
		err = runDataset(cfg, args)
	case "train":
		err = runTrain(cfg, args)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", cmd, err)
	}
}

func runDataset(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("dataset", flag.ExitOnError)
	out := fs.String("out", cfg.Dataset.Dir, "output directory")
	augmentations := fs.Int("augmentations", cfg.Dataset.Augmentations, "synthetic variants per sample")
	fs.Parse(args)

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	classes, err := dataset.FromStore(st)
	if err != nil {
		return err
	}

	ds, err := dataset.NewBuilder(augment.NewSeeded(cfg.Dataset.Seed), *augmentations).Build(classes)
	if err != nil {
		return err
	}
	for _, label := range ds.Skipped {
		log.Printf("Skipping sign %s: no samples", label)
	}
	if err := ds.Save(*out); err != nil {
		return err
	}

	log.Printf("Wrote %d rows for %d signs to %s", ds.Len(), ds.LabelMap.Len(), *out)
	return nil
}

func runTrain(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	data := fs.String("data", cfg.Dataset.Dir, "dataset directory")
	out := fs.String("out", cfg.Model.Dir, "model directory")
	fs.Parse(args)

	ds, err := dataset.Load(*data, cfg.Model.Family)
	if err != nil {
		return err
	}
	m, err := dataset.Train(ds, cfg.Model.Family)
	if err != nil {
		return err
	}
	if err := m.Save(*out); err != nil {
		return err
	}

	log.Printf("Trained %s model with %d classes in %s", cfg.Model.Family, m.LabelMap.Len(), *out)
	return nil
}

func runServe(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", cfg.Server.Addr, "listen address")
	noCamera := fs.Bool("no-camera", false, "serve the API without the live pipeline")
	withTray := fs.Bool("tray", false, "show the system tray menu")
	fs.Parse(args)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	// A missing model directory means nothing was trained yet. Anything
	// present must load cleanly.
	var model *gesture.Model
	if _, err := os.Stat(cfg.Model.Dir); os.IsNotExist(err) {
		log.Printf("No model in %s, prediction is disabled until one is trained", cfg.Model.Dir)
	} else {
		model, err = gesture.LoadModel(cfg.Model.Dir, cfg.Model.Family, cfg.Model.Classifier)
		if err != nil {
			return fmt.Errorf("load model: %w", err)
		}
		defer model.Close()
		log.Printf("Loaded %s model with %d signs from %s", cfg.Model.Family, model.Labels.Len(), cfg.Model.Dir)
	}

	srvCfg := server.Config{
		StaticDir: cfg.Server.StaticDir,
		Store:     st,
		Model:     model,
	}
	if srvCfg.StaticDir == "" {
		srvCfg.StaticDir = findWebDir(cfg.DataDir)
	}
	if srvCfg.StaticDir != "" {
		log.Printf("Serving static files from: %s", srvCfg.StaticDir)
	}

	var (
		live *app.App
		tr   *tray.Tray
	)
	if *withTray {
		tr = tray.New()
	}

	if !*noCamera {
		live = app.New(app.Config{
			Camera:          cfg.Camera,
			Detector:        cfg.Detector,
			Model:           model,
			Store:           st,
			PluginDir:       cfg.Plugins.Dir,
			PluginTimeoutMs: cfg.Plugins.TimeoutMs,
		})
		if err := live.DiscoverPlugins(); err != nil {
			log.Printf("Plugin discovery failed: %v", err)
		}
		if tr != nil {
			live.OnStable(func(r gesture.Result) { tr.SetLastSign(r.Label) })
			tr.OnToggle(live.SetEnabled)
		}
		if err := live.Start(); err != nil {
			log.Printf("Camera unavailable (%v), serving without the live pipeline", err)
			live.Stop()
		} else {
			defer live.Stop()
			srvCfg.Live = live
			srvCfg.Plugins = live.PluginManager()
		}
	}

	httpSrv := &http.Server{
		Addr:    *addr,
		Handler: server.New(srvCfg),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", *addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if tr != nil {
		tr.OnOpen(func() { openBrowser("http://localhost" + *addr) })
		tr.OnQuit(stop)
		go func() {
			<-ctx.Done()
			tr.Quit()
		}()
		// The tray owns the main goroutine until it quits.
		tr.Run()
		stop()
	}

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			return err
		}
	}

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// findWebDir searches for the web UI in "web", "../web" and <dataDir>/web.
// Returns an empty string if none exists.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}
