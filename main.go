package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"

	"map-editor/config"
	"map-editor/editor"
	"map-editor/logger"
	"map-editor/models"
	"map-editor/osm"
	"map-editor/repositories"
	"map-editor/script"
	"map-editor/server"
	"map-editor/services"
)

const MapEditorVersion = "1.0.0"

const usage = `Map editor.

Serves the map API and drives editing sessions against it.

Usage:
    map-editor serve [--addr=<addr>] [--debug-sql]
    map-editor edit <script> [--api=<api_url>] [--token=<token>]
    map-editor export [--api=<api_url>] [--out=<dir>]
    map-editor import-osm <relation_id>... [--api=<api_url>] [--token=<token>] [--color=<color>]
    map-editor token <subject> [--role=<role>]
    map-editor -h | --help
    map-editor --version

Options:
    -h --help          Show this screen.
    --version          Show version.
    --addr=<addr>      Listen address, overrides ADDR.
    --debug-sql        Log every SQL statement.
    --api=<api_url>    Map API base url, overrides MAP_API_URL.
    --token=<token>    Bearer token, overrides MAP_API_TOKEN.
    --out=<dir>        Output directory [default: .].
    --color=<color>    Fill color of imported areas [default: #3388ff].
    --role=<role>      Role claim of the token [default: admin].`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], MapEditorVersion)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	l := logger.SetupWith(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serve, _ := opts.Bool("serve"); serve {
		err = runServe(ctx, cfg, opts)
	} else if edit, _ := opts.Bool("edit"); edit {
		err = runEdit(ctx, cfg, opts)
	} else if export, _ := opts.Bool("export"); export {
		err = runExport(ctx, cfg, opts)
	} else if importOSM, _ := opts.Bool("import-osm"); importOSM {
		err = runImportOSM(ctx, cfg, opts)
	} else if token, _ := opts.Bool("token"); token {
		err = runToken(cfg, opts)
	}
	if err != nil {
		l.Error("command_failed", "err", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context, cfg *config.Config, opts docopt.Opts) error {
	l := logger.L()
	if addr, _ := opts.String("--addr"); addr != "" {
		cfg.Addr = addr
	}
	debugSQL, _ := opts.Bool("--debug-sql")

	db, err := repositories.Open(cfg.Database, debugSQL)
	if err != nil {
		return err
	}
	spatial, err := repositories.Migrate(db, cfg.Database.Driver)
	if err != nil {
		return err
	}
	l.Info("database_ready", "driver", cfg.Database.Driver, "spatial", spatial)

	base := repositories.NewBaseRepository(db, spatial)
	cache := services.NewMetadataCache(services.OpenRedis(cfg.Redis), cfg.Redis.TTL, cfg.Redis.Prefix)
	defer cache.Close()
	if cfg.Redis.Enabled() {
		l.Info("redis_cache_enabled", "ttl", cfg.Redis.TTL.String())
	}

	var images services.ImageUploader
	if cfg.Minio.Enabled() {
		store, err := services.NewImageStore(ctx, cfg.Minio)
		if err != nil {
			l.Warn("image_store_unavailable", "err", err)
		} else {
			images = store
		}
	}

	svc := services.NewMapService(
		repositories.NewAreaRepository(base),
		repositories.NewLandmarkRepository(base),
		base, cache, images,
	)
	api := server.New(svc, cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		l.Warn("auth_disabled", "reason", "JWT_SECRET is empty")
	}

	s := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Routes(cfg.APIBase),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	l.Info("listening", "addr", cfg.Addr, "api_base", cfg.APIBase)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newSession opens an editor session on the API named by --api and --token or the environment
func newSession(ctx context.Context, cfg *config.Config, opts docopt.Opts) (*editor.Session, error) {
	apiURL, _ := opts.String("--api")
	if apiURL == "" {
		apiURL = cfg.MapAPIURL
	}
	token, _ := opts.String("--token")
	if token == "" {
		token = cfg.MapAPIToken
	}
	session := editor.NewSession(models.NewMapApiClient(apiURL, token), editor.WithHistoryLimit(cfg.HistoryLimit))
	if err := session.Load(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

func runEdit(ctx context.Context, cfg *config.Config, opts docopt.Opts) error {
	path, _ := opts.String("<script>")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	steps, err := script.Parse(data)
	if err != nil {
		return err
	}
	session, err := newSession(ctx, cfg, opts)
	if err != nil {
		return err
	}

	report, err := script.NewRunner(session, filepath.Dir(path)).Run(ctx, steps)
	for i, save := range report.Saves {
		logger.L().Info("edit_save",
			"save", i+1,
			"created", len(save.Created),
			"updated_areas", save.UpdatedAreas,
			"updated_landmarks", save.UpdatedLandmarks,
		)
	}
	if err != nil {
		return err
	}
	if session.HasUnsavedChanges() {
		logger.L().Warn("edit_unsaved_changes", "records", session.Dirty().Len())
	}
	return printJSON(report.Refs)
}

func runExport(ctx context.Context, cfg *config.Config, opts docopt.Opts) error {
	session, err := newSession(ctx, cfg, opts)
	if err != nil {
		return err
	}
	out, _ := opts.String("--out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(out, "areas.json"), session.Areas()); err != nil {
		return err
	}
	if err := writeJSONFile(filepath.Join(out, "landmarks.json"), session.Landmarks()); err != nil {
		return err
	}
	logger.L().Info("export_complete", "dir", out, "areas", len(session.Areas()), "landmarks", len(session.Landmarks()))
	return nil
}

// runImportOSM draws each relation's outer boundary as a new area and saves them in one go
func runImportOSM(ctx context.Context, cfg *config.Config, opts docopt.Opts) error {
	l := logger.L()
	session, err := newSession(ctx, cfg, opts)
	if err != nil {
		return err
	}
	color, _ := opts.String("--color")
	rawIDs := opts["<relation_id>"].([]string)

	client := osm.NewClient()
	imported := 0
	for _, raw := range rawIDs {
		relationID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			l.Warn("osm_relation_skipped", "relation", raw, "err", err)
			continue
		}
		boundary, err := client.FetchBoundary(ctx, relationID)
		if err != nil {
			l.Error("osm_relation_failed", "relation", relationID, "err", err)
			continue
		}
		session.CreateArea(models.AreaRecord{
			Name:        boundary.Name,
			Description: fmt.Sprintf("OSM relation %d, admin level %d", relationID, boundary.AdminLevel),
			Boundary:    boundary.Ring,
			Color:       color,
			FillOpacity: 0.3,
		})
		imported++
		l.Info("osm_relation_imported", "relation", relationID, "name", boundary.Name, "positions", len(boundary.Ring))
	}
	if imported == 0 {
		return errors.New("no relation could be imported")
	}

	result, err := session.Save(ctx)
	if err != nil {
		return err
	}
	return printJSON(result.Created)
}

func runToken(cfg *config.Config, opts docopt.Opts) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	subject, _ := opts.String("<subject>")
	role, _ := opts.String("--role")
	token, err := server.NewAuthenticator(cfg.JWTSecret).Sign(subject, role)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
