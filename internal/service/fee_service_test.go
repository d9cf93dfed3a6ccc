package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webandapp/institute-api/internal/models"
	appErrors "github.com/webandapp/institute-api/pkg/errors"
	"github.com/webandapp/institute-api/pkg/mail"
)

type mockFeeStudentRepo struct {
	items map[string]*models.Student
}

func (m *mockFeeStudentRepo) FindByID(ctx context.Context, schoolID, id string) (*models.Student, error) {
	if student, ok := m.items[id]; ok {
		cp := *student
		return &cp, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

func (m *mockFeeStudentRepo) Mutate(ctx context.Context, schoolID, id string, fn func(*models.Student) error) error {
	student, ok := m.items[id]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return fn(student)
}

type recordingMailer struct {
	sent []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func newFeeFixture(grade string) (*FeeService, *mockFeeStudentRepo) {
	repo := &mockFeeStudentRepo{items: map[string]*models.Student{
		"s1": {ID: "s1", Roll: 7, FullName: "Student One", Grade: grade, Email: "s1@example.com"},
	}}
	return NewFeeService(repo, &recordingMailer{}, zap.NewNop(), FeeConfig{}), repo
}

func TestFeeServiceEnsureScheduleSynthesis(t *testing.T) {
	service, repo := newFeeFixture("9")

	require.NoError(t, service.EnsureSchedule(context.Background(), "main", "s1"))

	fees := repo.items["s1"].Fees
	require.NotNil(t, fees)
	assert.Equal(t, int64(45000), fees.TotalFees)
	assert.Equal(t, int64(0), fees.FeesPaid)
	require.Len(t, fees.Installments, 6)

	var total int64
	for _, inst := range fees.Installments {
		assert.Equal(t, int64(7500), inst.Amount)
		assert.Equal(t, models.InstallmentDue, inst.Status)
		total += inst.Amount
	}
	assert.Equal(t, fees.TotalFees, total)

	first := fees.Installments[0].DueDate
	assert.Equal(t, 1, first.Day())
	assert.True(t, first.After(time.Now().UTC()))
}

func TestFeeServiceEnsureScheduleSeniorGrade(t *testing.T) {
	service, repo := newFeeFixture("12")

	require.NoError(t, service.EnsureSchedule(context.Background(), "main", "s1"))

	fees := repo.items["s1"].Fees
	require.NotNil(t, fees)
	assert.Equal(t, int64(54000), fees.TotalFees)
	assert.Equal(t, int64(9000), fees.Installments[0].Amount)
}

func TestFeeServiceEnsureScheduleIdempotent(t *testing.T) {
	service, repo := newFeeFixture("9")

	require.NoError(t, service.EnsureSchedule(context.Background(), "main", "s1"))
	firstID := repo.items["s1"].Fees.Installments[0].ID

	require.NoError(t, service.EnsureSchedule(context.Background(), "main", "s1"))
	assert.Equal(t, firstID, repo.items["s1"].Fees.Installments[0].ID)
}

func TestFeeServiceSummarySynthesizesEmptyLedger(t *testing.T) {
	service, repo := newFeeFixture("9")
	// A hand-written record can carry a ledger with no installments.
	repo.items["s1"].Fees = &models.Fees{}

	summary, err := service.Summary(context.Background(), "main", "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(45000), summary.TotalFees)
	require.Len(t, summary.Installments, 6)
	require.Len(t, repo.items["s1"].Fees.Installments, 6)
}

func TestFeeServiceRemainderFoldsIntoLastInstallment(t *testing.T) {
	repo := &mockFeeStudentRepo{items: map[string]*models.Student{
		"s1": {ID: "s1", Grade: "9"},
	}}
	service := NewFeeService(repo, nil, zap.NewNop(), FeeConfig{DefaultTotal: 50000, Installments: 6})

	require.NoError(t, service.EnsureSchedule(context.Background(), "main", "s1"))

	installments := repo.items["s1"].Fees.Installments
	require.Len(t, installments, 6)
	assert.Equal(t, int64(8333), installments[0].Amount)
	assert.Equal(t, int64(8335), installments[5].Amount)
}

func TestFeeServiceRecordPayment(t *testing.T) {
	service, repo := newFeeFixture("9")
	require.NoError(t, service.EnsureSchedule(context.Background(), "main", "s1"))

	summary, err := service.RecordPayment(context.Background(), "main", "s1", 7500)
	require.NoError(t, err)

	assert.Equal(t, int64(7500), summary.FeesPaid)
	assert.Equal(t, int64(37500), summary.Remaining)
	assert.Equal(t, models.InstallmentPaid, summary.Installments[0].Status)
	require.NotNil(t, summary.Installments[0].PaymentDate)
	assert.Equal(t, models.InstallmentPaid, repo.items["s1"].Fees.Installments[0].Status)
}

func TestFeeServiceRecordPaymentPartialCoverage(t *testing.T) {
	service, _ := newFeeFixture("9")
	require.NoError(t, service.EnsureSchedule(context.Background(), "main", "s1"))

	// 10000 covers the first installment fully and the second only partially,
	// so the second stays unpaid.
	summary, err := service.RecordPayment(context.Background(), "main", "s1", 10000)
	require.NoError(t, err)
	assert.Equal(t, models.InstallmentPaid, summary.Installments[0].Status)
	assert.NotEqual(t, models.InstallmentPaid, summary.Installments[1].Status)
}

func TestFeeServiceRecordPaymentRejectsOverpayment(t *testing.T) {
	service, _ := newFeeFixture("9")
	require.NoError(t, service.EnsureSchedule(context.Background(), "main", "s1"))

	_, err := service.RecordPayment(context.Background(), "main", "s1", 45001)
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrValidation.Code, typed.Code)
}

func TestFeeServiceRecordPaymentRejectsNonPositive(t *testing.T) {
	service, _ := newFeeFixture("9")

	_, err := service.RecordPayment(context.Background(), "main", "s1", 0)
	require.Error(t, err)
	_, err = service.RecordPayment(context.Background(), "main", "s1", -100)
	require.Error(t, err)
}

func TestFeeServiceSendPaymentLink(t *testing.T) {
	mailer := &recordingMailer{}
	repo := &mockFeeStudentRepo{items: map[string]*models.Student{
		"s1": {ID: "s1", FullName: "Student One", Grade: "9", Email: "s1@example.com"},
	}}
	service := NewFeeService(repo, mailer, zap.NewNop(), FeeConfig{})
	require.NoError(t, service.EnsureSchedule(context.Background(), "main", "s1"))

	installmentID := repo.items["s1"].Fees.Installments[0].ID
	require.NoError(t, service.SendPaymentLink(context.Background(), "main", "s1", installmentID))

	assert.Equal(t, models.InstallmentLinkSent, repo.items["s1"].Fees.Installments[0].Status)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "s1@example.com", mailer.sent[0].ToEmail)
}

func TestFeeServiceSendPaymentLinkPaidConflict(t *testing.T) {
	service, repo := newFeeFixture("9")
	require.NoError(t, service.EnsureSchedule(context.Background(), "main", "s1"))
	_, err := service.RecordPayment(context.Background(), "main", "s1", 7500)
	require.NoError(t, err)

	installmentID := repo.items["s1"].Fees.Installments[0].ID
	err = service.SendPaymentLink(context.Background(), "main", "s1", installmentID)
	require.Error(t, err)
	var typed *appErrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, appErrors.ErrConflict.Code, typed.Code)
}

func TestFeeServiceStatementCSV(t *testing.T) {
	service, _ := newFeeFixture("9")
	require.NoError(t, service.EnsureSchedule(context.Background(), "main", "s1"))

	payload, filename, err := service.Statement(context.Background(), "main", "s1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "fee-statement-7.csv", filename)
	assert.Contains(t, string(payload), "Installment,Due Date,Amount,Status,Payment Date")
	assert.Contains(t, string(payload), "7500")
}

func TestFeeServiceStatementUnsupportedFormat(t *testing.T) {
	service, _ := newFeeFixture("9")

	_, _, err := service.Statement(context.Background(), "main", "s1", "xlsx")
	require.Error(t, err)
}
