package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/legacieweb/payme/models"
	"github.com/legacieweb/payme/utils"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory sqlite store with the same error translation
// the production MySQL connection uses, so duplicate-key handling behaves the
// same way in tests.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Payment{}, &models.RefundRequest{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func createPayment(t *testing.T, db *gorm.DB, reference, email string, amount float64, createdAt time.Time) *models.Payment {
	t.Helper()
	p := &models.Payment{
		Name:      "Test Customer",
		Email:     email,
		Amount:    amount,
		Reference: reference,
		Status:    "success",
		Currency:  "USD",
		CreatedAt: createdAt,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create payment %s: %v", reference, err)
	}
	return p
}

type fakeGateway struct {
	verification *utils.PaystackVerification
	err          error
}

func (g *fakeGateway) Verify(ctx context.Context, reference string) (*utils.PaystackVerification, error) {
	if g.err != nil {
		return nil, g.err
	}
	v := *g.verification
	v.Data.Reference = reference
	return &v, nil
}

func successVerification(amount int64) *utils.PaystackVerification {
	paidAt := time.Now().UTC().Add(-time.Minute)
	return &utils.PaystackVerification{
		OK: true,
		Data: utils.PaystackTransaction{
			Status:   "success",
			Amount:   amount,
			Currency: "USD",
			PaidAt:   &paidAt,
			Customer: utils.PaystackCustomer{
				FirstName: "Ada",
				LastName:  "Obi",
				Email:     "ada@example.com",
			},
		},
	}
}

type sentMail struct {
	To      string
	Subject string
	HTML    string
}

type fakeNotifier struct {
	mu    sync.Mutex
	fail  bool
	sends []sentMail
}

func (n *fakeNotifier) Send(to, subject, html string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sends = append(n.sends, sentMail{To: to, Subject: subject, HTML: html})
	if n.fail {
		return fmt.Errorf("smtp down")
	}
	return nil
}

func (n *fakeNotifier) sent() []sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sentMail, len(n.sends))
	copy(out, n.sends)
	return out
}

// waitForSends polls until the notifier has seen want messages; dispatch is
// asynchronous by design.
func (n *fakeNotifier) waitForSends(t *testing.T, want int) []sentMail {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := n.sent(); len(got) >= want {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	got := n.sent()
	t.Fatalf("expected %d notifications, got %d", want, len(got))
	return got
}
