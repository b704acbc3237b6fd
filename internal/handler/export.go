package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ivr-flow/internal/models"
	"ivr-flow/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var exportHeaders = []string{
	"Call UUID", "From", "To", "Start", "End", "Duration (s)", "Status", "Hangup Cause", "Menu Path", "Inputs",
}

type ExportHandler struct {
	DB *gorm.DB
}

func NewExportHandler(db *gorm.DB) *ExportHandler {
	return &ExportHandler{DB: db}
}

func (h *ExportHandler) load(c *gin.Context) ([]models.CallRecord, bool) {
	q := h.DB.WithContext(c.Request.Context()).Order("start_time DESC, id DESC")
	if from := c.Query("from"); from != "" {
		q = q.Where("from_number = ?", util.NormalizePhone(from))
	}

	var records []models.CallRecord
	if err := q.Find(&records).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query call logs failed")
		return nil, false
	}
	return records, true
}

func exportRow(r models.CallRecord) []string {
	end := ""
	if r.EndTime != nil {
		end = r.EndTime.UTC().Format(time.RFC3339)
	}
	digits := make([]string, 0, len(r.UserInputs))
	for _, in := range r.UserInputs {
		digits = append(digits, in.MenuID+":"+in.Digit)
	}
	return []string{
		r.CallUUID,
		r.FromNumber,
		r.ToNumber,
		r.StartTime.UTC().Format(time.RFC3339),
		end,
		strconv.Itoa(r.Duration),
		r.CallStatus,
		r.HangupCause,
		strings.Join(r.MenuPath, " > "),
		strings.Join(digits, " "),
	}
}

// ExportCSV writes call records as CSV.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	records, ok := h.load(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"call_logs_%s.csv\"",
		time.Now().Format("20060102")))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(exportHeaders)
	for _, r := range records {
		writer.Write(exportRow(r))
	}
}

// ExportXLSX writes call records as a single-sheet workbook.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	records, ok := h.load(c)
	if !ok {
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Call Logs"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create sheet failed")
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}
	for idx, r := range records {
		for col, v := range exportRow(r) {
			cell, _ := excelize.CoordinatesToCellName(col+1, idx+2)
			if col == 5 {
				f.SetCellValue(sheetName, cell, r.Duration)
				continue
			}
			f.SetCellValue(sheetName, cell, v)
		}
	}

	f.SetColWidth(sheetName, "A", "A", 38)
	f.SetColWidth(sheetName, "B", "C", 16)
	f.SetColWidth(sheetName, "D", "E", 22)
	f.SetColWidth(sheetName, "I", "J", 40)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"call_logs_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
	}
}
