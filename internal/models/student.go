package models

import "time"

// StudentStatus tracks the enrollment lifecycle.
type StudentStatus string

const (
	StudentEnrolled  StudentStatus = "Enrolled"
	StudentWithdrawn StudentStatus = "Withdrawn"
	StudentGraduated StudentStatus = "Graduated"
)

// InstallmentStatus describes the payment state of one installment.
type InstallmentStatus string

const (
	InstallmentPaid     InstallmentStatus = "Paid"
	InstallmentDue      InstallmentStatus = "Due"
	InstallmentOverdue  InstallmentStatus = "Overdue"
	InstallmentLinkSent InstallmentStatus = "Link Sent"
)

// Installment is one slice of a student's fee schedule.
type Installment struct {
	ID          string            `json:"id"`
	DueDate     time.Time         `json:"due_date"`
	Amount      int64             `json:"amount"`
	Status      InstallmentStatus `json:"status"`
	PaymentDate *time.Time        `json:"payment_date,omitempty"`
}

// Fees is the ledger embedded on a student record. The installment array is
// synthesized once and persisted; later reads never regenerate it.
type Fees struct {
	TotalFees    int64         `json:"total_fees"`
	FeesPaid     int64         `json:"fees_paid"`
	Installments []Installment `json:"installments"`
}

// Student represents a learner registered with the institute.
type Student struct {
	ID           string        `json:"id"`
	Roll         int           `json:"roll"`
	FullName     string        `json:"full_name"`
	Grade        string        `json:"grade"`
	FatherName   string        `json:"father_name,omitempty"`
	MotherName   string        `json:"mother_name,omitempty"`
	DateOfBirth  time.Time     `json:"date_of_birth"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone,omitempty"`
	PhotoURL     string        `json:"photo_url,omitempty"`
	Status       StudentStatus `json:"status"`
	PasswordHash string        `json:"-"`
	Fees         *Fees         `json:"fees,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// FeeSummary is the derived, never-persisted view over a student ledger.
type FeeSummary struct {
	StudentID      string        `json:"student_id"`
	TotalFees      int64         `json:"total_fees"`
	FeesPaid       int64         `json:"fees_paid"`
	Remaining      int64         `json:"remaining"`
	CollectionRate float64       `json:"collection_rate"`
	Installments   []Installment `json:"installments"`
}
