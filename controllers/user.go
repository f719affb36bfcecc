package controllers

import (
	"context"
	"net/http"
	"time"

	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/services"
	"go-storefront/utils"
)

// UserController handles accounts, sessions and profiles
type UserController struct {
	auth     *services.AuthService
	profiles *services.ProfileService
	timeout  time.Duration
}

// NewUserController creates a new UserController
func NewUserController(auth *services.AuthService, profiles *services.ProfileService, timeout time.Duration) *UserController {
	return &UserController{auth: auth, profiles: profiles, timeout: timeout}
}

// Register creates an account with a hashed password
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uc.timeout)
	defer cancel()
	account, err := uc.auth.Register(ctx, req)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":       "User registered successfully. Please check your email to verify your account.",
		"uid":           account.UID,
		"email":         account.Email,
		"emailVerified": account.EmailVerified,
	})
}

// VerifyEmail confirms the address behind the mailed ?token= link
func (uc *UserController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), uc.timeout)
	defer cancel()
	if _, err := uc.auth.VerifyEmail(ctx, r.URL.Query().Get("token")); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Email verified successfully")
}

// Login checks the credentials and issues a session token
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uc.timeout)
	defer cancel()
	session, err := uc.auth.Login(ctx, req)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, session)
}

// GetProfile returns the caller's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), uc.timeout)
	defer cancel()
	user, err := uc.profiles.GetProfile(ctx, actor)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}

// UpdateProfile edits the caller's profile fields
func (uc *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())
	var update models.ProfileUpdate
	if err := utils.DecodeJSON(r, &update); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uc.timeout)
	defer cancel()
	user, err := uc.profiles.UpdateProfile(ctx, actor, update)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}
