package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"naviauto/api/internal/ids"
	"naviauto/api/internal/models"
	"naviauto/api/internal/repository"
)

const exportURLTTL = 15 * time.Minute

// RecordLister is the slice of the record repository the export needs.
type RecordLister interface {
	List(ctx context.Context, ownerID int64, f repository.RecordFilter) ([]models.RepairRecord, error)
}

// ExportStore is the object storage surface for generated files.
type ExportStore interface {
	PutExport(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	PresignExport(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type ExportService struct {
	records RecordLister
	store   ExportStore
	log     zerolog.Logger
}

func NewExportService(records RecordLister, store ExportStore, log zerolog.Logger) *ExportService {
	return &ExportService{records: records, store: store, log: log}
}

var exportHeader = []string{
	"date", "customer", "phone", "customer_type",
	"card_company", "installment_mon", "pay_card", "pay_cash", "pay_bank",
	"product", "car", "detail", "note",
	"guide_date", "guide_done",
}

// Export writes the caller's filtered records as CSV to object storage
// and returns a presigned download URL.
func (s *ExportService) Export(ctx context.Context, ownerID int64, filter repository.RecordFilter) (string, error) {
	records, err := s.records.List(ctx, ownerID, filter)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.RepairDate.Format("2006-01-02"),
			rec.CustomerName,
			rec.CustomerPhone,
			string(rec.CustomerType),
			rec.CardCompany,
			strconv.Itoa(rec.InstallmentMon),
			strconv.FormatInt(rec.CardAmount, 10),
			strconv.FormatInt(rec.CashAmount, 10),
			strconv.FormatInt(rec.BankAmount, 10),
			rec.ProductName,
			rec.CarName,
			rec.RepairDetail,
			rec.Note,
			formatDatePtr(rec.GuideDate),
			strconv.FormatBool(rec.GuideDone),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}

	key := fmt.Sprintf("records/%d/%s-%s.csv", ownerID, time.Now().Format("20060102"), ids.New())
	reader := bytes.NewReader(buf.Bytes())
	if err := s.store.PutExport(ctx, key, reader, int64(buf.Len()), "text/csv"); err != nil {
		return "", err
	}

	url, err := s.store.PresignExport(ctx, key, exportURLTTL)
	if err != nil {
		return "", err
	}

	s.log.Info().Int64("user_id", ownerID).Int("rows", len(records)).Msg("records exported")
	return url, nil
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
