package handlers

import (
	"bytes"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"userinsight/internal/config"
	dbpkg "userinsight/internal/db"
	httpctx "userinsight/internal/http/ctx"
	ui "userinsight/web"
)

type LayoutData struct {
	Title           string
	Breadcrumb      string
	ActivePage      string
	PageTemplate    string
	IsAdmin         bool
	Username        string
	AdminUser       string
	Accounts        []dbpkg.User
	APIKeys         []dbpkg.APIKey
	UploadAPIKey    string
	SnapshotVersion int64
	Population      int
}

func getLayoutData(ctx *fasthttp.RequestCtx, cfg *config.Config, activePage, breadcrumb, pageTemplate string) LayoutData {
	isAdmin := false
	username := ""
	if u, ok := httpctx.UserFromCtx(ctx); ok {
		if user, ok := u.(*dbpkg.User); ok && user != nil {
			username = user.Username
			isAdmin = user.IsAdmin || username == cfg.AdminUser
		}
	}

	return LayoutData{
		Title:        breadcrumb,
		Breadcrumb:   breadcrumb,
		ActivePage:   activePage,
		PageTemplate: pageTemplate,
		IsAdmin:      isAdmin,
		Username:     username,
		AdminUser:    cfg.AdminUser,
	}
}

func renderLayout(ctx *fasthttp.RequestCtx, data LayoutData) {
	var buf bytes.Buffer
	if err := ui.Templates().ExecuteTemplate(&buf, "layout", data); err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString("render error")
		return
	}
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetBody(buf.Bytes())
}

// UsersPage renders the population explorer shell. The table itself is
// loaded by the page script from /v1/users so filters round-trip as
// query params.
func UsersPage(snapshots *dbpkg.SnapshotStore, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		data := getLayoutData(ctx, cfg, "users", "Users", "users")
		if pop, err := loadPopulation(snapshots); err == nil {
			data.Population = len(pop)
		}
		if _, version, err := snapshots.Load(); err == nil {
			data.SnapshotVersion = version
		}
		renderLayout(ctx, data)
	}
}

func CohortsPage(cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		data := getLayoutData(ctx, cfg, "cohorts", "Cohorts", "cohorts")
		renderLayout(ctx, data)
	}
}

func SettingsPage(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		isSuperAdmin := user.Username == cfg.AdminUser

		var apiKeys []dbpkg.APIKey
		if err := db.Where("user_id = ?", user.ID).Order("created_at DESC").Find(&apiKeys).Error; err != nil {
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			ctx.SetBodyString("failed to load API keys")
			return
		}

		if isSuperAdmin && cfg.UploadAPIKey != "" {
			hasBootstrap := false
			for _, k := range apiKeys {
				if k.Key == cfg.UploadAPIKey {
					hasBootstrap = true
					break
				}
			}
			if !hasBootstrap {
				var keyRow dbpkg.APIKey
				if err := db.Where("key = ?", cfg.UploadAPIKey).First(&keyRow).Error; err != nil {
					keyRow = dbpkg.APIKey{
						UserID:      user.ID,
						Name:        "bootstrap-uploader",
						Environment: "internal",
						Key:         cfg.UploadAPIKey,
						Active:      true,
					}
					db.Create(&keyRow)
				} else if keyRow.UserID != user.ID {
					keyRow.UserID = user.ID
					db.Save(&keyRow)
				}
				apiKeys = append([]dbpkg.APIKey{keyRow}, apiKeys...)
			}
		}

		data := getLayoutData(ctx, cfg, "settings", "Settings", "settings")
		data.APIKeys = apiKeys
		data.UploadAPIKey = cfg.UploadAPIKey
		renderLayout(ctx, data)
	}
}

func AccountsPage(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		isAdmin := user.IsAdmin || user.Username == cfg.AdminUser
		if !isAdmin {
			ctx.SetStatusCode(fasthttp.StatusForbidden)
			ctx.SetBodyString("forbidden")
			return
		}

		var accounts []dbpkg.User
		if err := db.Order("created_at DESC").Find(&accounts).Error; err != nil {
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			ctx.SetBodyString("failed to load accounts")
			return
		}

		data := getLayoutData(ctx, cfg, "accounts", "Accounts", "accounts")
		data.Accounts = accounts
		renderLayout(ctx, data)
	}
}

func DocsPage(cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		data := getLayoutData(ctx, cfg, "docs", "Docs", "docs")
		renderLayout(ctx, data)
	}
}

func Dashboard(_ *gorm.DB, _ *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.Redirect("/users", fasthttp.StatusSeeOther)
	}
}
