package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"quiz-progression-service/internal/app"
	"quiz-progression-service/internal/domain"
)

const userIDKey = "userID"

// Handlers binds the use-case services to the REST surface.
type Handlers struct {
	submissions *app.SubmissionService
	completion  *app.CompletionService
	ledger      app.AttemptPolicy
	log         *logrus.Logger
}

func NewHandlers(submissions *app.SubmissionService, completion *app.CompletionService, ledger app.AttemptPolicy, log *logrus.Logger) *Handlers {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handlers{submissions: submissions, completion: completion, ledger: ledger, log: log}
}

// RequireUser trusts the identity the auth gateway injected upstream.
// There is nothing to verify here; requests without it are anonymous
// and rejected on protected routes.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func (h *Handlers) SubmitQuiz(c *gin.Context) {
	var sub domain.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed submission body"})
		return
	}
	result, err := h.submissions.Submit(c.Request.Context(), c.GetString(userIDKey), c.Param("id"), sub)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handlers) AttemptStatus(c *gin.Context) {
	status, err := h.submissions.AttemptStatus(c.Request.Context(), c.GetString(userIDKey), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handlers) CanAttempt(c *gin.Context) {
	check, err := h.ledger.CheckCanAttempt(c.Request.Context(), c.GetString(userIDKey), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, check)
}

func (h *Handlers) RegisterAttempt(c *gin.Context) {
	var body struct {
		ModuleID string `json:"moduleId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body"})
		return
	}
	check, err := h.ledger.RegisterAttempt(c.Request.Context(), c.GetString(userIDKey), c.Param("id"), body.ModuleID, app.AttemptOutcome{})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, check)
}

func (h *Handlers) CompleteModule(c *gin.Context) {
	result, err := h.completion.CompleteModule(c.Request.Context(), c.GetString(userIDKey), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handlers) ListModules(c *gin.Context) {
	views, err := h.completion.ListModules(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handlers) ListCategories(c *gin.Context) {
	categories, err := h.completion.ListCategories(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handlers) Stats(c *gin.Context) {
	stats, err := h.completion.Stats(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handlers) ResetAttempts(c *gin.Context) {
	var body struct {
		UserID string `json:"userId" binding:"required"`
		QuizID string `json:"quizId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	n, err := h.submissions.ResetAttempts(c.Request.Context(), body.UserID, body.QuizID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deactivated": n})
}

func (h *Handlers) CleanupAttempts(c *gin.Context) {
	n, err := h.ledger.CleanupExpired(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deactivated": n})
}

// writeError maps domain errors onto status codes. Full detail is
// always logged; 5xx responses never leak internals to the client.
func (h *Handlers) writeError(c *gin.Context, err error) {
	var cooldown *domain.CooldownError
	var precondition *domain.PreconditionError
	var integrity *domain.DataIntegrityError

	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrModuleNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrInvalidSubmission):
		c.JSON(http.StatusBadRequest, gin.H{"error": "answers array is required"})

	case errors.Is(err, domain.ErrModuleHasNoQuizzes):
		c.JSON(http.StatusBadRequest, gin.H{"error": "module has no quizzes to complete"})

	case errors.As(err, &precondition):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "module has quizzes not yet passed",
			"missingQuizzes": precondition.MissingQuizzes,
		})

	case errors.As(err, &cooldown):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":            "attempt blocked by cooldown",
			"cooldownUntil":    cooldown.Until,
			"remainingSeconds": int(cooldown.Remaining.Seconds()),
		})

	case errors.As(err, &integrity):
		h.log.WithError(err).WithFields(logrus.Fields{
			"quizId":   integrity.QuizID,
			"question": integrity.Question,
		}).Error("quiz content integrity fault")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "quiz content is misconfigured"})

	default:
		h.log.WithError(err).WithField("path", c.Request.URL.Path).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
