package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"kioskcms/config"
	"kioskcms/controllers"
	"kioskcms/db"
	"kioskcms/internal/assets"
	"kioskcms/internal/changefeed"
	"kioskcms/internal/locks"
	"kioskcms/internal/logger"
	"kioskcms/internal/memstore"
	"kioskcms/internal/ratelimit"
	"kioskcms/routes"
	"kioskcms/services"
	"kioskcms/websocket"

	"github.com/gin-gonic/gin"
)

const memoryURI = "memory"

func main() {
	defaultPath := "./config/config.prod.yml"
	if env := os.Getenv("KIOSK_CONFIG"); env != "" {
		defaultPath = env
	}
	configPath := flag.String("config", defaultPath, "path to the YAML config file")
	flag.Parse()

	// Load the configuration from the specified YAML file
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer log.Sync()
	if cfg.Log.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("Invalid kiosk timezone", "timezone", cfg.Kiosk.Timezone, "error", err)
	}

	hub := websocket.NewKioskHub(cfg.Server.AllowedOrigins, log)

	repos, closeRepos := openRepositories(ctx, cfg, log)
	defer closeRepos()

	uploader, memoryAssets, closeUploader := openUploader(ctx, cfg, log)
	defer closeUploader()

	// Change events reach the kiosk hub and the media title cache.
	feed := changefeed.NewFanout(hub)
	shared, closeShared := openShared(ctx, cfg, feed, log)
	defer closeShared()

	auth, err := services.NewJWTAuthenticator(cfg.Admin.Email, cfg.Admin.PasswordHash, cfg.JWT.Secret,
		time.Duration(cfg.JWT.ExpiryMinutes)*time.Minute)
	if err != nil {
		log.Fatal("Failed to configure authentication", "error", err)
	}

	tree := services.NewBubbleTree(repos.bubbles, repos.media, shared.notifier, log)
	store := services.NewMediaStore(repos.media, uploader, shared.notifier, log)
	schedule := services.NewSpeakerSchedule(repos.speakers, uploader, shared.locker, shared.notifier, loc, log)
	home := services.NewHomeScreen(repos.home, uploader, shared.notifier, cfg.Kiosk.DefaultVideoURL, log)
	feed.Add(changefeed.SinkFunc(store.Invalidate))

	router, err := routes.NewRouter(routes.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		LoginLimiter:   shared.limiter,
	}, routes.Handlers{
		Bubbles:   controllers.NewBubbleController(tree),
		Media:     controllers.NewMediaController(store),
		Speakers:  controllers.NewSpeakerController(schedule),
		Home:      controllers.NewHomeController(home),
		Kiosk:     controllers.NewKioskController(services.NewKiosk(tree, schedule, home)),
		Auth:      controllers.NewAuthController(auth),
		KioskFeed: hub.Handler,
	}, auth, log)
	if err != nil {
		log.Fatal("Failed to build router", "error", err)
	}
	if memoryAssets != nil {
		router.GET("/assets/*key", serveMemoryAsset(memoryAssets))
	}

	port := strconv.Itoa(cfg.Server.Port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", port, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
}

type repositories struct {
	bubbles  services.BubbleRepository
	media    services.MediaRepository
	speakers services.SpeakerRepository
	home     services.HomeRepository
}

// openRepositories connects to MongoDB, or keeps everything in memory when
// database.uri is "memory".
func openRepositories(ctx context.Context, cfg *config.Config, log *logger.Logger) (repositories, func()) {
	if cfg.Database.URI == memoryURI {
		log.Warn("Using in-memory repositories; data is lost on restart")
		repos := repositories{
			bubbles:  memstore.NewBubbles(),
			media:    memstore.NewMedia(),
			speakers: memstore.NewSpeakers(),
			home:     memstore.NewHome(),
		}
		return repos, func() {}
	}

	client, database, err := db.Connect(ctx, cfg.Database.URI, cfg.Database.Name, log)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}
	if err := db.EnsureIndexes(ctx, database); err != nil {
		log.Warn("Failed to ensure indexes", "error", err)
	}
	repos := repositories{
		bubbles:  db.NewBubbleRepository(database),
		media:    db.NewMediaRepository(database),
		speakers: db.NewSpeakerRepository(database),
		home:     db.NewHomeRepository(database),
	}
	return repos, func() { _ = client.Disconnect(context.Background()) }
}

// openUploader uses the configured GCS bucket. Without one, assets are kept
// in memory and served from /assets.
func openUploader(ctx context.Context, cfg *config.Config, log *logger.Logger) (assets.Uploader, *assets.MemoryUploader, func()) {
	if cfg.Storage.Bucket == "" {
		log.Warn("No storage bucket configured; keeping uploads in memory")
		base := "http://localhost:" + strconv.Itoa(cfg.Server.Port) + "/assets"
		mem := assets.NewMemoryUploader(base)
		return mem, mem, func() {}
	}

	gcs, err := assets.NewGCSUploader(ctx, assets.GCSConfig{
		Bucket:          cfg.Storage.Bucket,
		CDNDomain:       cfg.Storage.CDNDomain,
		CredentialsFile: cfg.Storage.CredentialsFile,
		Prefix:          cfg.Storage.Prefix,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize asset storage", "error", err)
	}
	return gcs, nil, func() { _ = gcs.Close() }
}

// coordination is the state several server instances have to share.
type coordination struct {
	locker   locks.Locker
	limiter  ratelimit.Limiter
	notifier services.Notifier
}

// openShared puts the schedule lock, login counters and kiosk change feed on
// Redis so several server instances agree. A single instance can run without
// Redis.
func openShared(ctx context.Context, cfg *config.Config, feed *changefeed.Fanout, log *logger.Logger) (coordination, func()) {
	rule := ratelimit.Rule{
		Max:    cfg.Admin.LoginAttempts,
		Window: time.Duration(cfg.Admin.LoginWindowMinutes) * time.Minute,
	}
	if cfg.Redis.Addr == "" {
		log.Warn("Redis not configured; locks, login limits and the kiosk feed are process-local")
		return coordination{
			locker:   locks.NewLocalLocker(),
			limiter:  ratelimit.NewLocalLimiter(rule),
			notifier: feed,
		}, func() {}
	}

	rdb, err := locks.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal("Failed to connect to Redis", "addr", cfg.Redis.Addr, "error", err)
	}
	log.Info("Connected to Redis", "addr", cfg.Redis.Addr)

	relay := changefeed.NewRelay(rdb, changefeed.DefaultStream, feed, log)
	go relay.Run(ctx)

	return coordination{
		locker:   locks.NewRedisLocker(rdb, 10*time.Second),
		limiter:  ratelimit.NewRedisLimiter(rdb, "login", rule),
		notifier: relay,
	}, func() { _ = rdb.Close() }
}

func serveMemoryAsset(mem *assets.MemoryUploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		rc, err := mem.Open(c.Request.Context(), key)
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		defer rc.Close()
		c.Header("Content-Type", mem.ContentType(key))
		c.Status(http.StatusOK)
		_, _ = io.Copy(c.Writer, rc)
	}
}
