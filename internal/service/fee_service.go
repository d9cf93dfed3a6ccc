package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
	"github.com/webandapp/institute-api/pkg/export"
	"github.com/webandapp/institute-api/pkg/mail"
)

type feeStudentRepository interface {
	FindByID(ctx context.Context, schoolID, id string) (*models.Student, error)
	Mutate(ctx context.Context, schoolID, id string, fn func(*models.Student) error) error
}

// FeeConfig tunes schedule synthesis. Senior grades carry a higher total.
type FeeConfig struct {
	DefaultTotal int64
	SeniorTotal  int64
	Installments int
}

// FeeService manages per-student fee ledgers. The installment schedule is
// synthesized once and persisted on the student record; summaries are always
// derived from the stored ledger, never regenerated.
type FeeService struct {
	students feeStudentRepository
	mailer   mail.Service
	logger   *zap.Logger
	config   FeeConfig
}

// NewFeeService constructs a FeeService.
func NewFeeService(students feeStudentRepository, mailer mail.Service, logger *zap.Logger, config FeeConfig) *FeeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Installments <= 0 {
		config.Installments = 6
	}
	if config.DefaultTotal <= 0 {
		config.DefaultTotal = 45000
	}
	if config.SeniorTotal <= 0 {
		config.SeniorTotal = 54000
	}
	return &FeeService{students: students, mailer: mailer, logger: logger, config: config}
}

// EnsureSchedule synthesizes the installment schedule for a student that does
// not have one yet. Calling it again is a no-op so an existing ledger is
// never clobbered.
func (s *FeeService) EnsureSchedule(ctx context.Context, schoolID, studentID string) error {
	return s.students.Mutate(ctx, schoolID, studentID, func(student *models.Student) error {
		if student.Fees != nil && len(student.Fees.Installments) > 0 {
			return nil
		}
		student.Fees = s.synthesize(student.Grade, time.Now().UTC())
		return nil
	})
}

// Summary derives the fee view for a student. The ledger itself is left
// untouched apart from overdue reclassification.
func (s *FeeService) Summary(ctx context.Context, schoolID, studentID string) (*models.FeeSummary, error) {
	student, err := s.students.FindByID(ctx, schoolID, studentID)
	if err != nil {
		return nil, err
	}
	if student.Fees == nil || len(student.Fees.Installments) == 0 {
		if err := s.EnsureSchedule(ctx, schoolID, studentID); err != nil {
			return nil, err
		}
		if student, err = s.students.FindByID(ctx, schoolID, studentID); err != nil {
			return nil, err
		}
	}
	return summarize(student, time.Now().UTC()), nil
}

// RecordPayment applies a payment to the ledger. Payments must be positive
// and can never exceed the outstanding balance.
func (s *FeeService) RecordPayment(ctx context.Context, schoolID, studentID string, amount int64) (*models.FeeSummary, error) {
	if amount <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payment amount must be positive")
	}

	var result *models.FeeSummary
	err := s.students.Mutate(ctx, schoolID, studentID, func(student *models.Student) error {
		if student.Fees == nil || len(student.Fees.Installments) == 0 {
			student.Fees = s.synthesize(student.Grade, time.Now().UTC())
		}
		remaining := student.Fees.TotalFees - student.Fees.FeesPaid
		if amount > remaining {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("payment of %d exceeds outstanding balance of %d", amount, remaining))
		}

		now := time.Now().UTC()
		student.Fees.FeesPaid += amount
		settleInstallments(student.Fees, now)
		result = summarize(student, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SendPaymentLink marks the installment as awaiting payment and emails the
// student a reminder.
func (s *FeeService) SendPaymentLink(ctx context.Context, schoolID, studentID, installmentID string) error {
	var target *models.Installment
	var studentName, studentEmail string

	err := s.students.Mutate(ctx, schoolID, studentID, func(student *models.Student) error {
		if student.Fees == nil {
			return appErrors.Clone(appErrors.ErrNotFound, "student has no fee schedule")
		}
		for i := range student.Fees.Installments {
			inst := &student.Fees.Installments[i]
			if inst.ID != installmentID {
				continue
			}
			if inst.Status == models.InstallmentPaid {
				return appErrors.Clone(appErrors.ErrConflict, "installment is already paid")
			}
			inst.Status = models.InstallmentLinkSent
			copied := *inst
			target = &copied
			studentName = student.FullName
			studentEmail = student.Email
			return nil
		}
		return appErrors.Clone(appErrors.ErrNotFound, "installment not found")
	})
	if err != nil {
		return err
	}

	if s.mailer != nil && studentEmail != "" {
		msg := mail.Message{
			ToName:  studentName,
			ToEmail: studentEmail,
			Subject: "Fee installment payment link",
			Body: fmt.Sprintf("Dear %s,\n\nYour installment of %d due on %s is awaiting payment. Please use the payment link shared by the office.\n",
				studentName, target.Amount, target.DueDate.Format("2 Jan 2006")),
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.logger.Warn("payment link email failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}
	return nil
}

// Statement renders the fee ledger as a downloadable document.
func (s *FeeService) Statement(ctx context.Context, schoolID, studentID, format string) ([]byte, string, error) {
	summary, err := s.Summary(ctx, schoolID, studentID)
	if err != nil {
		return nil, "", err
	}
	student, err := s.students.FindByID(ctx, schoolID, studentID)
	if err != nil {
		return nil, "", err
	}

	data := export.Dataset{
		Headers: []string{"Installment", "Due Date", "Amount", "Status", "Payment Date"},
	}
	for i, inst := range summary.Installments {
		paid := ""
		if inst.PaymentDate != nil {
			paid = inst.PaymentDate.Format("2006-01-02")
		}
		data.Rows = append(data.Rows, map[string]string{
			"Installment":  fmt.Sprintf("%d", i+1),
			"Due Date":     inst.DueDate.Format("2006-01-02"),
			"Amount":       fmt.Sprintf("%d", inst.Amount),
			"Status":       string(inst.Status),
			"Payment Date": paid,
		})
	}

	switch format {
	case "csv":
		payload, err := export.CSV(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render statement")
		}
		return payload, fmt.Sprintf("fee-statement-%d.csv", student.Roll), nil
	case "pdf":
		payload, err := export.PDFTable(data, fmt.Sprintf("Fee Statement - %s", student.FullName))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render statement")
		}
		return payload, fmt.Sprintf("fee-statement-%d.pdf", student.Roll), nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported statement format")
	}
}

// synthesize builds a fresh schedule. The total divides evenly across the
// installments with any remainder folded into the last one.
func (s *FeeService) synthesize(grade string, now time.Time) *models.Fees {
	total := s.config.DefaultTotal
	if grade == "11" || grade == "12" {
		total = s.config.SeniorTotal
	}

	n := s.config.Installments
	per := total / int64(n)
	firstDue := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)

	installments := make([]models.Installment, 0, n)
	allocated := int64(0)
	for i := 0; i < n; i++ {
		amount := per
		if i == n-1 {
			amount = total - allocated
		}
		allocated += amount
		installments = append(installments, models.Installment{
			ID:      uuid.NewString(),
			DueDate: firstDue.AddDate(0, i, 0),
			Amount:  amount,
			Status:  models.InstallmentDue,
		})
	}

	return &models.Fees{TotalFees: total, FeesPaid: 0, Installments: installments}
}

// settleInstallments reclassifies installments after a payment. Installments
// are settled in due-date order; an installment flips to Paid only when the
// cumulative payments fully cover it.
func settleInstallments(fees *models.Fees, now time.Time) {
	order := make([]*models.Installment, len(fees.Installments))
	for i := range fees.Installments {
		order[i] = &fees.Installments[i]
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].DueDate.Before(order[j].DueDate) })

	covered := fees.FeesPaid
	for _, inst := range order {
		if covered >= inst.Amount {
			covered -= inst.Amount
			if inst.Status != models.InstallmentPaid {
				inst.Status = models.InstallmentPaid
				ts := now
				inst.PaymentDate = &ts
			}
			continue
		}
		if inst.Status == models.InstallmentPaid {
			inst.Status = models.InstallmentDue
			inst.PaymentDate = nil
		}
		markUnpaidStatus(inst, now)
	}
}

// markUnpaidStatus flags overdue installments while preserving a pending
// payment-link state.
func markUnpaidStatus(inst *models.Installment, now time.Time) {
	if inst.Status == models.InstallmentLinkSent && !inst.DueDate.Before(now) {
		return
	}
	if inst.DueDate.Before(now) {
		inst.Status = models.InstallmentOverdue
		return
	}
	inst.Status = models.InstallmentDue
}

// summarize derives the fee view. A zero total yields a zero collection rate
// rather than a division error.
func summarize(student *models.Student, now time.Time) *models.FeeSummary {
	fees := student.Fees
	if fees == nil {
		return &models.FeeSummary{StudentID: student.ID}
	}

	installments := make([]models.Installment, len(fees.Installments))
	copy(installments, fees.Installments)
	for i := range installments {
		if installments[i].Status != models.InstallmentPaid {
			markUnpaidStatus(&installments[i], now)
		}
	}

	var rate float64
	if fees.TotalFees > 0 {
		rate = float64(fees.FeesPaid) / float64(fees.TotalFees)
	}

	return &models.FeeSummary{
		StudentID:      student.ID,
		TotalFees:      fees.TotalFees,
		FeesPaid:       fees.FeesPaid,
		Remaining:      fees.TotalFees - fees.FeesPaid,
		CollectionRate: rate,
		Installments:   installments,
	}
}
