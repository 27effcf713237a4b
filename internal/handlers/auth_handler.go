package handlers

import (
	"encoding/json"
	"net/http"

	"finlingo/internal/models"
	"finlingo/internal/service"
)

// AuthHandler handles signup and login HTTP requests
type AuthHandler struct {
	accountService *service.AccountService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accountService *service.AccountService) *AuthHandler {
	return &AuthHandler{accountService: accountService}
}

type signupRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	ChildID  string `json:"childId"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// childUserView is the child signup response body.
// ChildID is always present, never omitted.
type childUserView struct {
	ID       int64  `json:"id"`
	Role     string `json:"role"`
	Name     string `json:"name"`
	Username string `json:"username"`
	ChildID  string `json:"childId"`
}

// parentUserView is the parent signup response body.
// LinkedChildUserID is null when no child was linked, never omitted.
type parentUserView struct {
	ID                int64  `json:"id"`
	Role              string `json:"role"`
	Name              string `json:"name"`
	Username          string `json:"username"`
	LinkedChildUserID *int64 `json:"linkedChildUserId"`
}

// accountView describes an authenticated principal.
// ChildID is null for parents, never omitted.
type accountView struct {
	ID       int64   `json:"id"`
	Role     string  `json:"role"`
	Name     string  `json:"name"`
	Username string  `json:"username"`
	ChildID  *string `json:"childId"`
}

type signupResponse struct {
	OK   bool        `json:"ok"`
	User interface{} `json:"user"`
}

type loginResponse struct {
	OK    bool        `json:"ok"`
	Token string      `json:"token"`
	User  accountView `json:"user"`
}

// ChildSignup handles POST /auth/child/signup
func (h *AuthHandler) ChildSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", "", nil)
		return
	}

	account, err := h.accountService.CreateChildAccount(req.Name, req.Username, req.Password)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, signupResponse{
		OK: true,
		User: childUserView{
			ID:       account.ID,
			Role:     account.Role,
			Name:     account.Name,
			Username: account.Username,
			ChildID:  account.ChildID,
		},
	})
}

// ParentSignup handles POST /auth/parent/signup
func (h *AuthHandler) ParentSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", "", nil)
		return
	}

	account, err := h.accountService.CreateParentAccount(req.Name, req.Username, req.Password, req.ChildID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, signupResponse{
		OK: true,
		User: parentUserView{
			ID:                account.ID,
			Role:              account.Role,
			Name:              account.Name,
			Username:          account.Username,
			LinkedChildUserID: account.LinkedChildUserID,
		},
	})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body", "", nil)
		return
	}

	result, err := h.accountService.Login(req.Username, req.Password)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, loginResponse{
		OK:    true,
		Token: result.Token,
		User:  newAccountView(result.User),
	})
}

type meResponse struct {
	OK             bool          `json:"ok"`
	User           accountView   `json:"user"`
	LinkedChildren []accountView `json:"linkedChildren,omitempty"`
}

// Me handles GET /auth/me for a bearer-authenticated principal
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := GetClaimsFromContext(r.Context())
	if claims == nil {
		respondWithError(w, http.StatusUnauthorized, "authentication required", "", nil)
		return
	}

	info, err := h.accountService.GetAccount(claims.UserID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	resp := meResponse{OK: true, User: newAccountView(*info)}

	if info.Role == models.RoleParent {
		children, err := h.accountService.LinkedChildren(info.ID)
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		for _, child := range children {
			resp.LinkedChildren = append(resp.LinkedChildren, newAccountView(child))
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

func newAccountView(info service.AccountInfo) accountView {
	return accountView{
		ID:       info.ID,
		Role:     info.Role,
		Name:     info.Name,
		Username: info.Username,
		ChildID:  info.ChildID,
	}
}
