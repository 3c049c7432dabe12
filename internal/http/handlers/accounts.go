package handlers

import (
	"strconv"

	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"userinsight/internal/config"
	dbpkg "userinsight/internal/db"
)

// CreateAccount creates a dashboard account (admin only via routing).
func CreateAccount(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		username := string(ctx.PostArgs().Peek("username"))
		password := string(ctx.PostArgs().Peek("password"))
		isAdmin := string(ctx.PostArgs().Peek("is_admin")) == "true"

		if username == "" || password == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "username and password required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to hash password")
			return
		}

		user := &dbpkg.User{
			Username:     username,
			PasswordHash: string(hash),
			IsAdmin:      isAdmin,
		}

		if err := db.Create(user).Error; err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "failed to create account (username may already exist)")
			return
		}

		ctx.Redirect("/accounts", fasthttp.StatusSeeOther)
	}
}

// ResetAccountPassword sets a new password for another account. The
// bootstrap admin cannot be modified this way.
func ResetAccountPassword(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := accountFromPath(ctx, db)
		if !ok {
			return
		}
		if user.Username == cfg.AdminUser {
			errResponse(ctx, fasthttp.StatusForbidden, "cannot modify bootstrap admin account")
			return
		}

		password := string(ctx.PostArgs().Peek("password"))
		if password == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "password required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to hash password")
			return
		}

		if err := db.Model(user).Update("password_hash", string(hash)).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to update password")
			return
		}

		ctx.Redirect("/accounts", fasthttp.StatusSeeOther)
	}
}

// DeleteAccount removes a dashboard account. The bootstrap admin
// cannot be deleted.
func DeleteAccount(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := accountFromPath(ctx, db)
		if !ok {
			return
		}
		if user.Username == cfg.AdminUser {
			errResponse(ctx, fasthttp.StatusForbidden, "cannot delete bootstrap admin account")
			return
		}

		if err := db.Delete(user).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to delete account")
			return
		}

		ctx.Redirect("/accounts", fasthttp.StatusSeeOther)
	}
}

func accountFromPath(ctx *fasthttp.RequestCtx, db *gorm.DB) (*dbpkg.User, bool) {
	idStr, ok := ctx.UserValue("id").(string)
	if !ok {
		errResponse(ctx, fasthttp.StatusBadRequest, "invalid account ID")
		return nil, false
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		errResponse(ctx, fasthttp.StatusBadRequest, "invalid account ID")
		return nil, false
	}

	var user dbpkg.User
	if err := db.First(&user, id).Error; err != nil {
		errResponse(ctx, fasthttp.StatusNotFound, "account not found")
		return nil, false
	}
	return &user, true
}
