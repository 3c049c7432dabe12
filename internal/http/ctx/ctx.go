package ctx

import (
	"github.com/valyala/fasthttp"

	dbpkg "userinsight/internal/db"
)

const (
	UserKey   = "user"
	APIKeyKey = "apiKey"
)

func SetUser(ctx *fasthttp.RequestCtx, user any) {
	ctx.SetUserValue(UserKey, user)
}

func UserFromCtx(ctx *fasthttp.RequestCtx) (any, bool) {
	v := ctx.UserValue(UserKey)
	if v == nil {
		return nil, false
	}
	return v, true
}

func SetAPIKey(ctx *fasthttp.RequestCtx, apiKey *dbpkg.APIKey) {
	ctx.SetUserValue(APIKeyKey, apiKey)
}

func APIKeyFromCtx(ctx *fasthttp.RequestCtx) (*dbpkg.APIKey, bool) {
	v := ctx.UserValue(APIKeyKey)
	if v == nil {
		return nil, false
	}
	ak, ok := v.(*dbpkg.APIKey)
	return ak, ok
}
