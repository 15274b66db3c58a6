package models

import "time"

// Customer categories on a repair record. The values are the Korean
// labels the shop uses; 안심회원 ("protected plan") members are the ones
// the follow-up guide workflow applies to.
type CustomerType string

const (
	CustomerTypeNew       CustomerType = "신규"
	CustomerTypeRevisit   CustomerType = "재방문"
	CustomerTypeRepair    CustomerType = "수리"
	CustomerTypeProtected CustomerType = "안심회원"
)

func (t CustomerType) Valid() bool {
	switch t {
	case CustomerTypeNew, CustomerTypeRevisit, CustomerTypeRepair, CustomerTypeProtected:
		return true
	}
	return false
}

type RepairRecord struct {
	ID             int64
	AppUserID      int64
	CustomerID     *int64
	RepairDate     time.Time
	CustomerName   string
	CustomerPhone  string
	CardCompany    string
	InstallmentMon int
	CardAmount     int64
	CashAmount     int64
	BankAmount     int64
	ProductName    string
	CarName        string
	RepairDetail   string
	Note           string
	CustomerType   CustomerType
	GuideDate      *time.Time
	GuideDone      bool
	GuideDoneAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
