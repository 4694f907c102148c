package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects write requests whose Content-Type is not JSON before
// they reach a handler. The API has no form or multipart surface; register,
// login, ratings, and the admin creates all bind JSON bodies.
func RequireJSON() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		switch ctx.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			ctx.Next()
			return
		}

		ct := strings.ToLower(ctx.GetHeader("Content-Type"))

		// accepts "application/json; charset=utf-8"
		if !strings.HasPrefix(ct, "application/json") {
			ctx.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
				"error": gin.H{
					"code":    "unsupported_media_type",
					"message": "Content-Type must be application/json",
				},
			})
			return
		}

		ctx.Next()
	}
}
