// Package middleware provides the fiber middleware stack.
package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"jobminer/pkg/apperr"
)

// localsUserEmail is the fiber.Ctx locals key carrying the authenticated
// user's email.
const localsUserEmail = "user_email"

// JWTAuth validates HS256 bearer tokens and stores the subject claim as the
// authenticated user email.
func JWTAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		var tokenString string
		authHeader := c.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			return apperr.Unauthorized("missing authorization")
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unsupported signing method: %v", token.Header["alg"])
			}
			if secret == "" {
				return nil, fmt.Errorf("JWT secret not configured")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return apperr.Unauthorized("invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return apperr.Unauthorized("invalid token claims")
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			return apperr.Unauthorized("token missing subject")
		}

		c.Locals(localsUserEmail, sub)
		return c.Next()
	}
}

// UserEmail returns the authenticated user's email, or "" outside an
// authenticated request.
func UserEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(localsUserEmail).(string)
	return email
}
