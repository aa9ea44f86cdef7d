package http

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/gin-gonic/gin"
)

const (
	msgInvalidEmail     = "Invalid email format"
	msgWeakPassword     = "Password must contain at least 8 characters, 1 uppercase, 1 lowercase, 1 number and 1 special character"
	msgUserExists       = "User already exists"
	msgUserNotFound     = "User does not exist"
	msgInvalidToken     = "Invalid token"
	msgInvalidCreds     = "Invalid credentials"
	msgEmailNotVerified = "Email not verified"
	msgSamePassword     = "New password cannot be same as old password"
	msgProviderConflict = "User exists with different provider. Use the one you used before"
	msgInvalidProvider  = "Invalid provider"
	msgUnauthorized     = "Unauthorized"
)

var clientErrors = []struct {
	err error
	msg string
}{
	{common.ErrInvalidEmail, msgInvalidEmail},
	{common.ErrWeakPassword, msgWeakPassword},
	{common.ErrorAlreadyExists, msgUserExists},
	{common.ErrorNotFound, msgUserNotFound},
	{common.ErrInvalidToken, msgInvalidToken},
	{common.ErrInvalidCredentials, msgInvalidCreds},
	{common.ErrEmailNotVerified, msgEmailNotVerified},
	{common.ErrSamePassword, msgSamePassword},
	{common.ErrProviderConflict, msgProviderConflict},
	{common.ErrInvalidProvider, msgInvalidProvider},
}

func success(c *gin.Context, body gin.H) {
	c.JSON(http.StatusOK, body)
}

func message(c *gin.Context, msg string) {
	success(c, gin.H{"message": msg})
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"message": msg, "statusCode": status})
}

// failWith maps a workflow error to a response. notFound is the status used
// for common.ErrorNotFound, which differs between routes.
func (s *HTTPServer) failWith(c *gin.Context, err error, notFound int) {
	if errors.Is(err, common.ErrorUnauthorized) {
		fail(c, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	for _, ce := range clientErrors {
		if errors.Is(err, ce.err) {
			status := http.StatusBadRequest
			if ce.err == common.ErrorNotFound {
				status = notFound
			}
			fail(c, status, ce.msg)
			return
		}
	}

	s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	fail(c, http.StatusInternalServerError, err.Error())
}
