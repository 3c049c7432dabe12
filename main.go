package main

import (
	"log"

	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"

	"userinsight/internal/config"
	"userinsight/internal/db"
	"userinsight/internal/http/handlers"
	appmw "userinsight/internal/http/middleware"
	ui "userinsight/web"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	sqlDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	db.StartRetentionWorker(sqlDB, cfg)

	if err := db.EnsureBootstrapAdmin(sqlDB, cfg); err != nil {
		log.Fatalf("failed to ensure bootstrap admin: %v", err)
	}

	if cfg.UploadAPIKey != "" {
		if err := db.EnsureBootstrapUploadKey(sqlDB, cfg); err != nil {
			log.Printf("warning: failed to ensure bootstrap upload key: %v (will be created on first settings page load)", err)
		} else {
			log.Printf("upload API key configured and associated with admin user")
		}
	}

	handlers.InitPrometheusMetrics()

	snapshots := db.NewSnapshotStore(sqlDB)
	cohorts := db.NewCohortStore(sqlDB)

	r := router.New()

	handler := handlers.RequestLogger(r.Handler)

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})

	r.ServeFS("/static/{filepath:*}", ui.StaticFS())

	r.GET("/login", handlers.LoginForm(cfg))
	r.POST("/login", handlers.LoginSubmit(sqlDB))
	r.POST("/logout", handlers.Logout())

	r.GET("/", appmw.AdminAuth(sqlDB, cfg)(handlers.Dashboard(sqlDB, cfg)))
	r.GET("/users", appmw.AdminAuth(sqlDB, cfg)(handlers.UsersPage(snapshots, cfg)))
	r.GET("/cohorts", appmw.AdminAuth(sqlDB, cfg)(handlers.CohortsPage(cfg)))
	r.GET("/accounts", appmw.AdminAuth(sqlDB, cfg)(handlers.AccountsPage(sqlDB, cfg)))
	r.GET("/settings", appmw.AdminAuth(sqlDB, cfg)(handlers.SettingsPage(sqlDB, cfg)))
	r.GET("/docs", appmw.AdminAuth(sqlDB, cfg)(handlers.DocsPage(cfg)))

	r.POST("/admin/accounts/create", appmw.AdminAuth(sqlDB, cfg)(handlers.CreateAccount(sqlDB)))
	r.POST("/admin/accounts/{id}/reset-password", appmw.AdminAuth(sqlDB, cfg)(handlers.ResetAccountPassword(sqlDB, cfg)))
	r.POST("/admin/accounts/{id}/delete", appmw.AdminAuth(sqlDB, cfg)(handlers.DeleteAccount(sqlDB, cfg)))

	r.POST("/settings/password", appmw.AdminAuth(sqlDB, cfg)(handlers.ChangePasswordSelf(sqlDB, cfg)))

	r.POST("/admin/apikeys/create", appmw.AdminAuth(sqlDB, cfg)(handlers.CreateAPIKey(sqlDB, cfg)))
	r.POST("/admin/apikeys/delete", appmw.AdminAuth(sqlDB, cfg)(handlers.DeleteAPIKey(sqlDB, cfg)))
	r.POST("/admin/apikeys/set-active", appmw.AdminAuth(sqlDB, cfg)(handlers.SetActiveAPIKey(sqlDB, cfg)))

	r.POST("/v1/datasets", appmw.BearerAuth(sqlDB)(handlers.UploadDatasets(snapshots)))
	r.GET("/v1/datasets/current", appmw.AdminAuth(sqlDB, cfg)(handlers.SnapshotInfo(snapshots)))

	r.GET("/v1/users", appmw.AdminAuth(sqlDB, cfg)(handlers.UsersList(snapshots)))
	r.GET("/v1/users/summary", appmw.AdminAuth(sqlDB, cfg)(handlers.UsersSummary(snapshots)))
	r.POST("/v1/users/{id}/classify", appmw.AdminAuth(sqlDB, cfg)(handlers.ClassifyUser(snapshots)))
	r.POST("/v1/users/{id}/name", appmw.AdminAuth(sqlDB, cfg)(handlers.OverrideName(snapshots)))

	r.GET("/v1/cohorts", appmw.AdminAuth(sqlDB, cfg)(handlers.ListCohorts(cohorts, snapshots)))
	r.POST("/v1/cohorts", appmw.AdminAuth(sqlDB, cfg)(handlers.CreateCohort(cohorts)))
	r.PATCH("/v1/cohorts/{id}", appmw.AdminAuth(sqlDB, cfg)(handlers.UpdateCohort(cohorts)))
	r.DELETE("/v1/cohorts/{id}", appmw.AdminAuth(sqlDB, cfg)(handlers.DeleteCohort(cohorts)))

	r.GET("/v1/compare/classification", appmw.AdminAuth(sqlDB, cfg)(handlers.CompareClassification(snapshots)))
	r.GET("/v1/compare/cohorts", appmw.AdminAuth(sqlDB, cfg)(handlers.CompareCohorts(cohorts, snapshots)))

	r.GET("/v1/export", handlers.SourceMetricsHandler(sqlDB))

	log.Printf("userinsight listening on %s", cfg.ListenAddr)
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
