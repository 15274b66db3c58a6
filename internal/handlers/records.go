package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"naviauto/api/internal/middleware"
	"naviauto/api/internal/models"
	"naviauto/api/internal/repository"
)

func recordFilterFromQuery(c *gin.Context) repository.RecordFilter {
	f := repository.RecordFilter{
		From:  c.Query("from"),
		To:    c.Query("to"),
		Query: c.Query("q"),
	}
	switch {
	case c.Query("safe") == "1":
		f.CustomerType = models.CustomerTypeProtected
	case c.Query("revisit") == "1":
		f.CustomerType = models.CustomerTypeRevisit
	case c.Query("new") == "1":
		f.CustomerType = models.CustomerTypeNew
	case c.Query("repair") == "1":
		f.CustomerType = models.CustomerTypeRepair
	}
	f.GuideDue = c.Query("guide") == "1"
	return f
}

type recordResponse struct {
	ID             int64      `json:"id"`
	Date           string     `json:"date"`
	Name           string     `json:"name"`
	Phone          string     `json:"phone"`
	CardCompany    string     `json:"card_company"`
	InstallmentMon int        `json:"installment_mon"`
	PayCard        int64      `json:"pay_card"`
	PayCash        int64      `json:"pay_cash"`
	PayBank        int64      `json:"pay_bank"`
	Product        string     `json:"product"`
	Car            string     `json:"car"`
	Desc           string     `json:"desc"`
	Note           string     `json:"note"`
	CustomerType   string     `json:"customer_type"`
	GuideDate      string     `json:"guide_date"`
	GuideDone      bool       `json:"guide_done"`
	GuideDoneAt    *time.Time `json:"guide_done_at"`
}

func toRecordResponse(rec models.RepairRecord) recordResponse {
	guideDate := ""
	if rec.GuideDate != nil {
		guideDate = rec.GuideDate.Format("2006-01-02")
	}
	return recordResponse{
		ID:             rec.ID,
		Date:           rec.RepairDate.Format("2006-01-02"),
		Name:           rec.CustomerName,
		Phone:          rec.CustomerPhone,
		CardCompany:    rec.CardCompany,
		InstallmentMon: rec.InstallmentMon,
		PayCard:        rec.CardAmount,
		PayCash:        rec.CashAmount,
		PayBank:        rec.BankAmount,
		Product:        rec.ProductName,
		Car:            rec.CarName,
		Desc:           rec.RepairDetail,
		Note:           rec.Note,
		CustomerType:   string(rec.CustomerType),
		GuideDate:      guideDate,
		GuideDone:      rec.GuideDone,
		GuideDoneAt:    rec.GuideDoneAt,
	}
}

func (h HandlerSet) ListRecords(c *gin.Context) {
	sess, _ := middleware.SessionFrom(c)

	records, err := h.records.List(c.Request.Context(), sess.UserID, recordFilterFromQuery(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	out := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordResponse(rec))
	}
	c.JSON(http.StatusOK, out)
}

type recordRequest struct {
	ID             int64  `json:"id"`
	CustomerID     *int64 `json:"customer_id"`
	Date           string `json:"date"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	CardCompany    string `json:"card_company"`
	InstallmentMon int    `json:"installment_mon"`
	PayCard        int64  `json:"pay_card"`
	PayCash        int64  `json:"pay_cash"`
	PayBank        int64  `json:"pay_bank"`
	Product        string `json:"product"`
	Car            string `json:"car"`
	Desc           string `json:"desc"`
	Note           string `json:"note"`
	CustomerType   string `json:"customer_type"`
}

func (r recordRequest) toModel(ownerID int64) (models.RepairRecord, bool) {
	customerType := models.CustomerType(r.CustomerType)
	if r.CustomerType == "" {
		customerType = models.CustomerTypeNew
	}
	if !customerType.Valid() {
		return models.RepairRecord{}, false
	}

	rec := models.RepairRecord{
		ID:             r.ID,
		AppUserID:      ownerID,
		CustomerID:     r.CustomerID,
		CustomerName:   r.Name,
		CustomerPhone:  r.Phone,
		CardCompany:    r.CardCompany,
		InstallmentMon: r.InstallmentMon,
		CardAmount:     r.PayCard,
		CashAmount:     r.PayCash,
		BankAmount:     r.PayBank,
		ProductName:    r.Product,
		CarName:        r.Car,
		RepairDetail:   r.Desc,
		Note:           r.Note,
		CustomerType:   customerType,
	}
	if r.Date != "" {
		date, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			return models.RepairRecord{}, false
		}
		rec.RepairDate = date
	}
	return rec, true
}

func (h HandlerSet) CreateRecord(c *gin.Context) {
	sess, _ := middleware.SessionFrom(c)

	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}

	rec, ok := req.toModel(sess.UserID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date or customer_type"})
		return
	}

	id, err := h.records.Create(c.Request.Context(), rec)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "id": id})
}

func (h HandlerSet) UpdateRecord(c *gin.Context) {
	sess, _ := middleware.SessionFrom(c)

	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}

	rec, ok := req.toModel(sess.UserID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date or customer_type"})
		return
	}

	if err := h.records.Update(c.Request.Context(), sess.UserID, rec); err != nil {
		if err == repository.ErrRecordNotFound {
			c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
			return
		}
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h HandlerSet) DeleteRecord(c *gin.Context) {
	sess, _ := middleware.SessionFrom(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}

	if err := h.records.Delete(c.Request.Context(), sess.UserID, id); err != nil {
		if err == repository.ErrRecordNotFound {
			c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
			return
		}
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// MarkGuideDone completes the one-shot follow-up guide for a
// protected-plan customer.
func (h HandlerSet) MarkGuideDone(c *gin.Context) {
	sess, _ := middleware.SessionFrom(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}

	rec, err := h.records.MarkGuideDone(c.Request.Context(), sess.UserID, id)
	if err != nil {
		if err == repository.ErrRecordNotFound {
			c.JSON(http.StatusConflict, gin.H{"error": "already guided or not eligible"})
			return
		}
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "row": toRecordResponse(rec)})
}

func (h HandlerSet) ExportRecords(c *gin.Context) {
	sess, _ := middleware.SessionFrom(c)

	url, err := h.export.Export(c.Request.Context(), sess.UserID, recordFilterFromQuery(c))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "download_url": url})
}
