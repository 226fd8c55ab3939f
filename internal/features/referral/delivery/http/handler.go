package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"referral-tracker-backend/internal/common/errors"
	"referral-tracker-backend/internal/common/middleware"
	"referral-tracker-backend/internal/features/referral/mapper"
	"referral-tracker-backend/internal/features/referral/models"
	"referral-tracker-backend/internal/features/referral/service"
)

// Enroll words its validation failures differently from the lookup routes.
var enrollMessages = map[errors.ErrorCode]string{
	errors.ErrCodeInvalidEmail: "Missing/Invalid Email Address.",
}

type ReferralHandler struct {
	service      service.ReferralService
	legacyStatus bool
}

func NewReferralHandler(service service.ReferralService, legacyStatus bool) *ReferralHandler {
	return &ReferralHandler{
		service:      service,
		legacyStatus: legacyStatus,
	}
}

func (h *ReferralHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/enroll", h.Enroll)
	router.GET("/referralCode", h.GetReferralCode)
	router.POST("/withdraw", h.Withdraw)
	router.GET("/milestones", h.GetMilestones)
	router.POST("/addMilestone", h.AddMilestone)
	router.GET("/referralHistory", h.GetReferralHistory)
}

// param returns the query value, falling back to a form field; nil when absent.
func param(c *gin.Context, key string) *string {
	if v, ok := c.GetQuery(key); ok {
		return &v
	}
	if v, ok := c.GetPostForm(key); ok {
		return &v
	}
	return nil
}

func paramValue(c *gin.Context, key string) string {
	if v := param(c, key); v != nil {
		return *v
	}
	return ""
}

func (h *ReferralHandler) status(conventional int) int {
	if h.legacyStatus {
		return http.StatusCreated
	}
	return conventional
}

func (h *ReferralHandler) timeLayout() string {
	if h.legacyStatus {
		return http.TimeFormat
	}
	return time.RFC3339
}

// @Summary Enroll a user
// @Description Creates a user with a fresh referral code. When referred_by is given, the referrer's count is incremented and a referral is recorded.
// @Tags referrals
// @Produce plain
// @Param first_name query string true "First name"
// @Param last_name query string true "Last name"
// @Param email query string true "Email"
// @Param password query string true "Password"
// @Param phone_number query string true "Ten digit phone number"
// @Param referred_by query string false "Referrer's referral code"
// @Success 201 {string} string "Account Added Successfully."
// @Failure 404 {string} string "Missing/Invalid Fields."
// @Router /enroll [post]
func (h *ReferralHandler) Enroll(c *gin.Context) {
	req := models.EnrollRequest{
		FirstName:   param(c, "first_name"),
		LastName:    param(c, "last_name"),
		Email:       param(c, "email"),
		Password:    param(c, "password"),
		PhoneNumber: param(c, "phone_number"),
		ReferredBy:  param(c, "referred_by"),
	}

	if _, err := h.service.Enroll(c.Request.Context(), req); err != nil {
		middleware.RespondError(c, err, h.legacyStatus, enrollMessages)
		return
	}

	c.String(h.status(http.StatusCreated), "Account Added Successfully.")
}

// @Summary Get referral code
// @Description Returns the referral code of the active user with this email
// @Tags referrals
// @Produce plain
// @Param email query string true "Email"
// @Success 201 {string} string "Referral code"
// @Failure 404 {string} string "Email Not Found."
// @Router /referralCode [get]
func (h *ReferralHandler) GetReferralCode(c *gin.Context) {
	code, err := h.service.GetReferralCode(c.Request.Context(), paramValue(c, "email"))
	if err != nil {
		middleware.RespondError(c, err, h.legacyStatus, nil)
		return
	}

	c.String(h.status(http.StatusOK), code)
}

// @Summary Withdraw a user
// @Description Marks the active user with this email as withdrawn
// @Tags referrals
// @Produce plain
// @Param email query string true "Email"
// @Success 201 {string} string "Account successfully Withdrawn."
// @Failure 404 {string} string "Email Not Found."
// @Router /withdraw [post]
func (h *ReferralHandler) Withdraw(c *gin.Context) {
	if err := h.service.Withdraw(c.Request.Context(), paramValue(c, "email")); err != nil {
		middleware.RespondError(c, err, h.legacyStatus, nil)
		return
	}

	c.String(h.status(http.StatusOK), "Account successfully Withdrawn.")
}

// @Summary List milestones
// @Description Lists every milestone with whether the user has reached it
// @Tags milestones
// @Produce json
// @Param email query string true "Email"
// @Success 201 {array} models.MilestoneResponse
// @Failure 404 {string} string "Email Not Found."
// @Router /milestones [get]
func (h *ReferralHandler) GetMilestones(c *gin.Context) {
	statuses, err := h.service.GetMilestones(c.Request.Context(), paramValue(c, "email"))
	if err != nil {
		middleware.RespondError(c, err, h.legacyStatus, nil)
		return
	}

	c.JSON(h.status(http.StatusOK), mapper.ToMilestoneResponses(statuses))
}

// @Summary Add a milestone
// @Description Adds a referral-count threshold and its award
// @Tags milestones
// @Produce plain
// @Param referral_count query int true "Referral count threshold"
// @Param award query int true "Award"
// @Success 201 {string} string "Milestone Added."
// @Failure 404 {string} string "Invalid Milestone Entries."
// @Router /addMilestone [post]
func (h *ReferralHandler) AddMilestone(c *gin.Context) {
	_, err := h.service.AddMilestone(c.Request.Context(), paramValue(c, "referral_count"), paramValue(c, "award"))
	if err != nil {
		middleware.RespondError(c, err, h.legacyStatus, nil)
		return
	}

	c.String(h.status(http.StatusCreated), "Milestone Added.")
}

// @Summary Referral history
// @Description Lists the users referred by this user with masked emails
// @Tags referrals
// @Produce json
// @Param email query string true "Email"
// @Success 201 {array} models.HistoryEntryResponse
// @Failure 404 {string} string "Email Not Found."
// @Router /referralHistory [get]
func (h *ReferralHandler) GetReferralHistory(c *gin.Context) {
	entries, err := h.service.GetReferralHistory(c.Request.Context(), paramValue(c, "email"))
	if err != nil {
		middleware.RespondError(c, err, h.legacyStatus, nil)
		return
	}

	c.JSON(h.status(http.StatusOK), mapper.ToHistoryResponses(entries, h.timeLayout()))
}
