package serverutils

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const ShopLocalKey = "shop"

// SessionTokenMiddleware authenticates requests from the embedded admin app.
// The bearer token is a Shopify session token: HS256 signed with the app
// secret, audience set to the app's API key, and the shop domain in "dest".
func SessionTokenMiddleware(apiKey, apiSecret string) fiber.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(apiKey),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5*time.Second),
	)

	return func(ctx *fiber.Ctx) error {
		tokenStr := bearerToken(ctx)
		if tokenStr == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Missing token"))
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(apiSecret), nil
		})
		if err != nil || !token.Valid {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid token"))
		}

		shop, err := shopFromDest(claims)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(401, "Invalid claims"))
		}

		ctx.Locals(ShopLocalKey, shop)
		return ctx.Next()
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// a websocket handshake, so the "token" query parameter is accepted as well.
func bearerToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) >= 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ctx.Query("token")
}

func shopFromDest(claims jwt.MapClaims) (string, error) {
	dest, ok := claims["dest"].(string)
	if !ok || dest == "" {
		return "", fmt.Errorf("dest claim missing")
	}
	u, err := url.Parse(dest)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("dest claim is not a url: %q", dest)
	}
	return strings.ToLower(u.Hostname()), nil
}

// ShopFrom returns the shop set by SessionTokenMiddleware, or "" when the
// route is not protected.
func ShopFrom(ctx *fiber.Ctx) string {
	shop, _ := ctx.Locals(ShopLocalKey).(string)
	return shop
}
