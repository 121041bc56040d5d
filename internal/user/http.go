package user

import (
	"net/http"
	"strings"
	"time"

	"github.com/RevoGrid/RevoGrid/internal/common/auth"
	"github.com/RevoGrid/RevoGrid/internal/common/config"
	"github.com/RevoGrid/RevoGrid/internal/common/logger"
	"github.com/RevoGrid/RevoGrid/internal/common/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Handler 用户相关 HTTP 路由。
type Handler struct {
	repo    *Repo
	authCfg config.AuthConfig
	log     logger.Logger
}

func NewHandler(db *gorm.DB, authCfg config.AuthConfig, log logger.Logger) *Handler {
	return &Handler{
		repo:    NewRepo(db),
		authCfg: authCfg,
		log:     log,
	}
}

func (h *Handler) Repo() *Repo {
	return h.repo
}

// RegisterRoutes 注册路由。authed 为 JWT 鉴权中间件。
func (h *Handler) RegisterRoutes(r *gin.Engine, authed gin.HandlerFunc) {
	r.POST("/signUp", h.signUp)
	r.POST("/login", h.login)
	r.GET("/check-email/:email", h.checkEmail)
	r.GET("/agencies", h.listAgencies)
	r.GET("/agencies/:id", h.getAgency)
	r.GET("/user", authed, h.profile)
	r.PUT("/user", authed, h.updateProfile)
}

type signUpRequest struct {
	Role         string  `json:"role"`
	Firstname    string  `json:"firstname"`
	Lastname     string  `json:"lastname"`
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	PhoneNumber  string  `json:"phoneNumber"`
	BirthDate    string  `json:"birthDate"`
	Gender       string  `json:"gender"`
	ProfileImage string  `json:"profileImage"`
	AgencyID     string  `json:"agencyId"`
	AgencyName   string  `json:"agencyName"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

func (h *Handler) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body."})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Role = strings.TrimSpace(req.Role)

	if req.Email == "" || req.Password == "" || req.Role == "" || req.PhoneNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "All required fields must be filled."})
		return
	}
	if req.Role != RoleClient && req.Role != RoleAgence {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown role."})
		return
	}
	if req.Role == RoleAgence && (req.Latitude == 0 || req.Longitude == 0 || req.AgencyID == "" || req.AgencyName == "") {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Agency details missing."})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.repo.FindByEmail(ctx, req.Email); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email is already in use."})
		return
	} else if err != gorm.ErrRecordNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred during signup."})
		return
	}

	salt, err := GenerateSaltHex()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred during signup."})
		return
	}
	hash, err := HashPassword(req.Password, salt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred during signup."})
		return
	}

	u := &User{
		ID:           uuid.NewString(),
		Role:         req.Role,
		Email:        req.Email,
		PasswordHash: hash,
		PasswordSalt: salt,
		PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
	}
	if req.Role == RoleClient {
		u.Firstname = strings.TrimSpace(req.Firstname)
		u.Lastname = strings.TrimSpace(req.Lastname)
		u.BirthDate = strings.TrimSpace(req.BirthDate)
		u.Gender = strings.TrimSpace(req.Gender)
		u.ProfileImage = strings.TrimSpace(req.ProfileImage)
	} else {
		u.AgencyCode = strings.TrimSpace(req.AgencyID)
		u.AgencyName = strings.TrimSpace(req.AgencyName)
		u.Latitude = req.Latitude
		u.Longitude = req.Longitude
	}

	if err := h.repo.Create(ctx, u); err != nil {
		if h.log != nil {
			h.log.Errorf("signup failed: %v", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred during signup."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully!"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required."})
		return
	}

	ctx := c.Request.Context()
	u, err := h.repo.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(req.Email)))
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error during login."})
		return
	}
	if !VerifyPassword(req.Password, u.PasswordSalt, u.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password."})
		return
	}

	ttl := time.Duration(h.authCfg.TokenTTL) * time.Hour
	token, _, err := auth.GenerateAccessToken(h.authCfg, u.ID, u.Role, ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error during login."})
		return
	}

	resp := gin.H{"token": token, "role": u.Role}
	if u.IsAgency() {
		resp["agencyId"] = u.ID
	} else {
		resp["agencyId"] = nil
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) checkEmail(c *gin.Context) {
	email := strings.TrimSpace(strings.ToLower(c.Param("email")))
	_, err := h.repo.FindByEmail(c.Request.Context(), email)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"exists": true})
	case err == gorm.ErrRecordNotFound:
		c.JSON(http.StatusOK, gin.H{"exists": false})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
	}
}

func (h *Handler) listAgencies(c *gin.Context) {
	agencies, err := h.repo.ListAgencies(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while fetching agencies."})
		return
	}
	out := make([]gin.H, 0, len(agencies))
	for _, a := range agencies {
		out = append(out, gin.H{
			"id":         a.ID,
			"agencyName": a.AgencyName,
			"latitude":   a.Latitude,
			"longitude":  a.Longitude,
		})
	}
	c.JSON(http.StatusOK, gin.H{"agencies": out})
}

func (h *Handler) getAgency(c *gin.Context) {
	a, err := h.repo.FindByID(c.Request.Context(), c.Param("id"))
	if err == gorm.ErrRecordNotFound || (err == nil && !a.IsAgency()) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Agency not found."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "An error occurred while fetching the agency."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"agency": gin.H{
		"id":          a.ID,
		"email":       a.Email,
		"phoneNumber": a.PhoneNumber,
		"agencyName":  a.AgencyName,
		"latitude":    a.Latitude,
		"longitude":   a.Longitude,
	}})
}

func (h *Handler) profile(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth context"})
		return
	}
	u, err := h.repo.FindByID(c.Request.Context(), id.UserID)
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
		return
	}
	c.JSON(http.StatusOK, toProfile(u))
}

type updateProfileRequest struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	BirthDate   string `json:"birthDate"`
	Gender      string `json:"gender"`
}

func (h *Handler) updateProfile(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing auth context"})
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body."})
		return
	}

	ctx := c.Request.Context()
	u, err := h.repo.FindByID(ctx, id.UserID)
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
		return
	}

	newEmail := strings.TrimSpace(strings.ToLower(req.Email))
	if newEmail != "" && newEmail != u.Email {
		if _, err := h.repo.FindByEmail(ctx, newEmail); err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Email is already in use."})
			return
		} else if err != gorm.ErrRecordNotFound {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
			return
		}
		u.Email = newEmail
	}
	if req.PhoneNumber != "" {
		u.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	}
	if req.BirthDate != "" {
		u.BirthDate = strings.TrimSpace(req.BirthDate)
	}
	if req.Gender != "" {
		u.Gender = strings.TrimSpace(req.Gender)
	}

	if err := h.repo.Update(ctx, u); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
		return
	}
	c.JSON(http.StatusOK, toProfile(u))
}

// toProfile 不回传密码散列/盐。
func toProfile(u *User) gin.H {
	return gin.H{
		"id":            u.ID,
		"role":          u.Role,
		"email":         u.Email,
		"phoneNumber":   u.PhoneNumber,
		"firstname":     u.Firstname,
		"lastname":      u.Lastname,
		"birthDate":     u.BirthDate,
		"gender":        u.Gender,
		"profileImage":  u.ProfileImage,
		"agencyName":    u.AgencyName,
		"latitude":      u.Latitude,
		"longitude":     u.Longitude,
		"walletBalance": u.WalletBalance,
		"createdAt":     u.CreatedAt,
	}
}
