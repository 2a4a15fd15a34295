package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"lecturer-feedback/internal/auth"
	"lecturer-feedback/internal/domain"
	"lecturer-feedback/internal/service"
)

// Deps carries the services and switches the HTTP layer is built from.
type Deps struct {
	Users     service.UserService
	Feedback  service.FeedbackService
	Analytics service.AnalyticsService
	// Reports is nil when no object storage is configured.
	Reports service.ReportService
	Tokens  *auth.TokenService
	Logger  *logrus.Logger
	// Limiter throttles /register and /login; nil disables it.
	Limiter *RateLimiter

	// RequireAuth gates the feedback routes behind a token. When false the
	// routes accept anonymous callers and scope only those that send a token.
	RequireAuth bool
	// DefaultTop bounds average-ratings when the request has no top parameter.
	DefaultTop int
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users       service.UserService
	feedback    service.FeedbackService
	analytics   service.AnalyticsService
	reports     service.ReportService
	tokens      *auth.TokenService
	logger      *logrus.Logger
	limiter     *RateLimiter
	requireAuth bool
	defaultTop  int
}

func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		users:       deps.Users,
		feedback:    deps.Feedback,
		analytics:   deps.Analytics,
		reports:     deps.Reports,
		tokens:      deps.Tokens,
		logger:      logger,
		limiter:     deps.Limiter,
		requireAuth: deps.RequireAuth,
		defaultTop:  deps.DefaultTop,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	account := router.Group("")
	if h.limiter != nil {
		account.Use(h.limiter.middleware(h.logger))
	}
	{
		account.POST("/register", h.register)
		account.POST("/login", h.login)
	}

	admin := router.Group("", h.authenticate(), requireRole(domain.RoleAdmin))
	{
		admin.GET("/admin", h.adminWelcome)
		admin.PUT("/approve-user/:id", h.approveUser)
		admin.GET("/users", h.listUsers)
		admin.POST("/users", h.createUser)
		admin.DELETE("/users/:id", h.deleteUser)
		admin.POST("/analytics/exports", h.exportReport)
		admin.GET("/analytics/exports", h.listReports)
	}

	router.GET("/feedback/average-ratings", h.averageRatings)
	router.GET("/analytics/average-ratings", h.averageRatings)
	router.GET("/analytics/rating-trends", h.ratingTrends)

	gate := h.optionalAuth()
	if h.requireAuth {
		gate = h.authenticate()
	}
	feedback := router.Group("/feedback", gate)
	{
		feedback.POST("", h.submitFeedback)
		feedback.GET("", h.listFeedback)
		feedback.PUT("/:id", h.updateFeedback)
		feedback.DELETE("/:id", h.deleteFeedback)
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

type createUserRequest struct {
	registerRequest
	IsApproved bool `json:"isApproved"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type feedbackRequest struct {
	LecturerName string `json:"lecturerName" binding:"required"`
	Course       string `json:"course" binding:"required"`
	Feedback     string `json:"feedback" binding:"required"`
	Rating       *int   `json:"rating"`
}

type updateFeedbackRequest struct {
	LecturerName *string `json:"lecturerName"`
	Course       *string `json:"course"`
	Feedback     *string `json:"feedback"`
	Rating       *int    `json:"rating"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.users.Register(c.Request.Context(), req.Username, req.Password, domain.Role(req.Role)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"role":      user.Role,
		"expiresIn": int(h.tokens.TTL().Seconds()),
	})
}

func (h *Handler) adminWelcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome Admin!"})
}

func (h *Handler) approveUser(c *gin.Context) {
	user, err := h.users.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "User approved successfully",
		"user":    userToResponse(*user),
	})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), domain.Role(c.Query("role")))
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(users[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req.Username, req.Password, domain.Role(req.Role), req.IsApproved)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, userToResponse(*user))
}

func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *Handler) submitFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fb, err := h.feedback.Submit(c.Request.Context(), service.SubmitInput{
		LecturerName: req.LecturerName,
		Course:       req.Course,
		Text:         req.Feedback,
		Rating:       req.Rating,
	}, h.scope(c).OwnerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, feedbackToResponse(*fb))
}

func (h *Handler) listFeedback(c *gin.Context) {
	list, err := h.feedback.List(c.Request.Context(), domain.FeedbackFilter{
		LecturerName: c.Query("lecturerName"),
		Course:       c.Query("course"),
	}, h.scope(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]FeedbackResponse, len(list))
	for i := range list {
		resp[i] = feedbackToResponse(list[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) updateFeedback(c *gin.Context) {
	var req updateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fb, err := h.feedback.Update(c.Request.Context(), c.Param("id"), h.writeScope(c), domain.FeedbackChanges{
		LecturerName: req.LecturerName,
		Course:       req.Course,
		Text:         req.Feedback,
		Rating:       req.Rating,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, feedbackToResponse(*fb))
}

func (h *Handler) deleteFeedback(c *gin.Context) {
	if err := h.feedback.Remove(c.Request.Context(), c.Param("id"), h.writeScope(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feedback deleted successfully"})
}

func (h *Handler) averageRatings(c *gin.Context) {
	top := h.defaultTop
	if raw, ok := c.GetQuery("top"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid top"})
			return
		}
		top = n
	}

	ratings, err := h.analytics.AverageRatings(c.Request.Context(), top)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]LecturerRatingResponse, len(ratings))
	for i, r := range ratings {
		resp[i] = LecturerRatingResponse(r)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ratingTrends(c *gin.Context) {
	trends, err := h.analytics.RatingTrends(c.Request.Context(), c.Query("lecturerName"))
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]RatingTrendResponse, len(trends))
	for i, t := range trends {
		resp[i] = RatingTrendResponse(t)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) exportReport(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report storage not configured"})
		return
	}

	report, err := h.reports.Export(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, ReportResponse{
		Key:      report.Key,
		Location: report.Location,
		URL:      report.URL,
	})
}

func (h *Handler) listReports(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report storage not configured"})
		return
	}

	objects, err := h.reports.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]StorageObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}

// scope narrows feedback listings to the authenticated caller, if any.
func (h *Handler) scope(c *gin.Context) domain.Scope {
	if identity, ok := identityFrom(c); ok {
		return domain.Scope{OwnerID: identity.UserID}
	}
	return domain.Scope{}
}

// writeScope is the scope for changes to existing feedback. Callers without
// an identity may only touch records that have no owner.
func (h *Handler) writeScope(c *gin.Context) domain.Scope {
	if identity, ok := identityFrom(c); ok {
		return domain.Scope{OwnerID: identity.UserID}
	}
	return domain.AnonymousScope()
}

// fail maps service errors onto status codes. Anything unrecognised is logged
// and reported as a bare 500.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotApproved):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrFeedbackNotFound),
		errors.Is(err, service.ErrNoRatings):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"route":  c.FullPath(),
		}).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
