package handler

import (
	"errors"
	"net/http"
	"strconv"

	"ivr-flow/internal/menu"
	"ivr-flow/internal/models"
	"ivr-flow/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultCallLogLimit = 100
	maxCallLogLimit     = 500
)

// AdminHandler serves the read-only reporting API.
type AdminHandler struct {
	DB    *gorm.DB
	Menus *menu.GormRepository
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{DB: db, Menus: menu.NewGormRepository(db)}
}

// ListCallLogs returns the most recent call records.
func (h *AdminHandler) ListCallLogs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultCallLogLimit)))
	if err != nil || limit <= 0 {
		limit = defaultCallLogLimit
	}
	if limit > maxCallLogLimit {
		limit = maxCallLogLimit
	}

	var records []models.CallRecord
	if err := h.DB.WithContext(c.Request.Context()).
		Order("start_time DESC, id DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query call logs failed")
		return
	}

	util.Success(c, util.Response{
		"count": len(records),
		"calls": records,
	})
}

// CallHistory returns every call from one number, newest first.
func (h *AdminHandler) CallHistory(c *gin.Context) {
	phone := util.NormalizePhone(c.Param("phone"))
	if phone == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "phone is required")
		return
	}

	var records []models.CallRecord
	if err := h.DB.WithContext(c.Request.Context()).
		Where("from_number = ?", phone).
		Order("start_time DESC, id DESC").
		Find(&records).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query call history failed")
		return
	}

	util.Success(c, util.Response{
		"phone_number": phone,
		"count":        len(records),
		"calls":        records,
	})
}

// GetCaller returns the aggregate profile of one number.
func (h *AdminHandler) GetCaller(c *gin.Context) {
	phone := util.NormalizePhone(c.Param("phone"))

	var p models.CallerProfile
	err := h.DB.WithContext(c.Request.Context()).
		Where("phone_number = ?", phone).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "caller not found")
		return
	}
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query caller failed")
		return
	}

	util.Success(c, util.Response{
		"caller":              p,
		"average_duration":    p.AverageDuration(),
		"is_returning_caller": p.IsReturningCaller(),
	})
}

// ListMenus returns the active menu graph.
func (h *AdminHandler) ListMenus(c *gin.Context) {
	nodes, err := h.Menus.ListActive(c.Request.Context())
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query menus failed")
		return
	}
	util.Success(c, util.Response{
		"count": len(nodes),
		"menus": nodes,
	})
}
