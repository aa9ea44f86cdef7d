package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type verifyEmailRequest struct {
	Email                  string `json:"email"`
	EmailVerificationToken int    `json:"emailVerificationToken"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	Email              string `json:"email"`
	PasswordResetToken int    `json:"passwordResetToken"`
	Password           string `json:"password"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type socialAuthRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Provider string `json:"provider"`
}

// oneTimeCodeFields are the JSON fields holding emailed numeric codes. A
// string or fractional value there is a bad token, not a malformed body.
var oneTimeCodeFields = map[string]bool{
	"emailVerificationToken": true,
	"passwordResetToken":     true,
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) && oneTimeCodeFields[te.Field] {
			fail(c, http.StatusBadRequest, msgInvalidToken)
			return false
		}
		fail(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (s *HTTPServer) register(c *gin.Context) {
	var in registerRequest
	if !bind(c, &in) {
		return
	}

	_, err := s.service.Register(c.Request.Context(), services.RegisterInput{
		Name: in.Name, Email: in.Email, Password: in.Password, Role: in.Role,
	})
	if err != nil {
		s.failWith(c, err, http.StatusBadRequest)
		return
	}
	message(c, "User created successfully")
}

func (s *HTTPServer) requestEmailToken(c *gin.Context) {
	var in emailRequest
	if !bind(c, &in) {
		return
	}

	if err := s.service.RequestEmailToken(c.Request.Context(), in.Email); err != nil {
		s.failWith(c, err, http.StatusBadRequest)
		return
	}
	message(c, fmt.Sprintf("Email verification token sent to %s", in.Email))
}

func (s *HTTPServer) verifyEmail(c *gin.Context) {
	var in verifyEmailRequest
	if !bind(c, &in) {
		return
	}

	if err := s.service.VerifyEmail(c.Request.Context(), in.Email, in.EmailVerificationToken); err != nil {
		s.failWith(c, err, http.StatusNotFound)
		return
	}
	message(c, "Email verified successfully")
}

func (s *HTTPServer) login(c *gin.Context) {
	var in loginRequest
	if !bind(c, &in) {
		return
	}

	res, err := s.service.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		s.failWith(c, err, http.StatusBadRequest)
		return
	}
	success(c, gin.H{"message": "Logged in successfully", "jwtToken": res.Token, "user": res.User})
}

func (s *HTTPServer) logout(c *gin.Context) {
	var err error
	if p, ok := principal(c); ok {
		err = s.service.Logout(c.Request.Context(), &p)
	} else {
		err = s.service.Logout(c.Request.Context(), nil)
	}
	if err != nil {
		s.failWith(c, err, http.StatusBadRequest)
		return
	}
	message(c, "Logged out successfully")
}

func (s *HTTPServer) forgotPassword(c *gin.Context) {
	var in emailRequest
	if !bind(c, &in) {
		return
	}

	if err := s.service.ForgotPassword(c.Request.Context(), in.Email); err != nil {
		s.failWith(c, err, http.StatusBadRequest)
		return
	}
	message(c, fmt.Sprintf("Password reset token sent to %s", in.Email))
}

func (s *HTTPServer) resetPassword(c *gin.Context) {
	var in resetPasswordRequest
	if !bind(c, &in) {
		return
	}

	if err := s.service.ResetPassword(c.Request.Context(), in.Email, in.PasswordResetToken, in.Password); err != nil {
		s.failWith(c, err, http.StatusBadRequest)
		return
	}
	message(c, "Password reset successfully")
}

func (s *HTTPServer) updatePassword(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		fail(c, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var in updatePasswordRequest
	if !bind(c, &in) {
		return
	}

	if err := s.service.UpdatePassword(c.Request.Context(), p, in.CurrentPassword, in.NewPassword); err != nil {
		s.failWith(c, err, http.StatusBadRequest)
		return
	}
	message(c, "Password updated successfully")
}

func (s *HTTPServer) socialAuth(c *gin.Context) {
	var in socialAuthRequest
	if !bind(c, &in) {
		return
	}

	res, err := s.service.SocialAuth(c.Request.Context(), services.SocialAuthInput{
		Email: in.Email, Name: in.Name, Role: in.Role, Provider: in.Provider,
	})
	if err != nil {
		s.failWith(c, err, http.StatusBadRequest)
		return
	}
	success(c, gin.H{"message": "Authenticated successfully", "token": res.Token, "user": res.User})
}
