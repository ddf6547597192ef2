package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/legacieweb/payme/models"
)

func TestVerifyAndRecordPersistsExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	svc := NewPaymentService(db, &fakeGateway{verification: successVerification(5000)}, notifier)

	first, err := svc.VerifyAndRecord(context.Background(), "ref_1", "", "")
	if err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if !first.Success {
		t.Fatalf("first verify should succeed: %s", first.Message)
	}

	second, err := svc.VerifyAndRecord(context.Background(), "ref_1", "", "")
	if err != nil {
		t.Fatalf("second verify: %v", err)
	}
	if !second.Success {
		t.Fatalf("duplicate verify should still succeed: %s", second.Message)
	}
	if second.Data == nil || second.Data.Reference != "ref_1" {
		t.Fatalf("duplicate verify should return processor details")
	}

	var count int64
	db.Model(&models.Payment{}).Where("reference = ?", "ref_1").Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one payment, got %d", count)
	}

	var payment models.Payment
	db.Where("reference = ?", "ref_1").First(&payment)
	if payment.Amount != 50.00 {
		t.Fatalf("expected amount 50.00 from 5000 minor units, got %v", payment.Amount)
	}
	if payment.Currency != "USD" || payment.Status != "success" {
		t.Fatalf("unexpected payment record: %+v", payment)
	}
}

func TestVerifyAndRecordFallsBackToProcessorCustomer(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, &fakeGateway{verification: successVerification(1200)}, &fakeNotifier{})

	if _, err := svc.VerifyAndRecord(context.Background(), "ref_fallback", "", ""); err != nil {
		t.Fatalf("verify: %v", err)
	}

	var payment models.Payment
	db.Where("reference = ?", "ref_fallback").First(&payment)
	if payment.Name != "Ada Obi" {
		t.Fatalf("expected processor customer name, got %q", payment.Name)
	}
	if payment.Email != "ada@example.com" {
		t.Fatalf("expected processor customer email, got %q", payment.Email)
	}
}

func TestVerifyAndRecordPrefersCallerIdentity(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, &fakeGateway{verification: successVerification(1200)}, &fakeNotifier{})

	if _, err := svc.VerifyAndRecord(context.Background(), "ref_caller", "Grace Eze", "grace@example.com"); err != nil {
		t.Fatalf("verify: %v", err)
	}

	var payment models.Payment
	db.Where("reference = ?", "ref_caller").First(&payment)
	if payment.Name != "Grace Eze" || payment.Email != "grace@example.com" {
		t.Fatalf("caller-supplied identity should win, got %q / %q", payment.Name, payment.Email)
	}
}

func TestVerifyAndRecordProcessorRejection(t *testing.T) {
	db := newTestDB(t)
	gateway := &fakeGateway{verification: successVerification(5000)}
	gateway.verification.Data.Status = "failed"
	svc := NewPaymentService(db, gateway, &fakeNotifier{})

	result, err := svc.VerifyAndRecord(context.Background(), "ref_bad", "", "")
	if err != nil {
		t.Fatalf("processor rejection is not an error: %v", err)
	}
	if result.Success {
		t.Fatal("expected Success=false for a rejected transaction")
	}
	if result.Message == "" {
		t.Fatal("expected a descriptive failure message")
	}

	var count int64
	db.Model(&models.Payment{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected transaction must not be persisted, got %d rows", count)
	}
}

func TestVerifyAndRecordUpstreamFailure(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, &fakeGateway{err: fmt.Errorf("connection refused")}, &fakeNotifier{})

	_, err := svc.VerifyAndRecord(context.Background(), "ref_down", "", "")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestVerifyAndRecordConcurrentSameReference(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, &fakeGateway{verification: successVerification(5000)}, &fakeNotifier{})

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	results := make([]*VerifyResult, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.VerifyAndRecord(context.Background(), "ref_race", "", "")
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("call %d errored: %v", i, errs[i])
		}
		if !results[i].Success {
			t.Fatalf("call %d should report success", i)
		}
	}

	var count int64
	db.Model(&models.Payment{}).Where("reference = ?", "ref_race").Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one payment under race, got %d", count)
	}
}

func TestVerifyAndRecordNotifiesOnFirstCommitOnly(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", "ops@payme.test")
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	svc := NewPaymentService(db, &fakeGateway{verification: successVerification(5000)}, notifier)

	if _, err := svc.VerifyAndRecord(context.Background(), "ref_notify", "", "bob@example.com"); err != nil {
		t.Fatalf("verify: %v", err)
	}

	sends := notifier.waitForSends(t, 2)
	var toCustomer, toAdmin bool
	for _, s := range sends {
		switch s.To {
		case "bob@example.com":
			toCustomer = true
		case "ops@payme.test":
			toAdmin = true
		}
	}
	if !toCustomer || !toAdmin {
		t.Fatalf("expected customer receipt and admin alert, got %+v", sends)
	}

	// A duplicate verification must not notify again.
	if _, err := svc.VerifyAndRecord(context.Background(), "ref_notify", "", "bob@example.com"); err != nil {
		t.Fatalf("duplicate verify: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if got := len(notifier.sent()); got != 2 {
		t.Fatalf("duplicate verify must not notify, got %d sends", got)
	}
}

func TestVerifyAndRecordNotificationFailureStaysOffRequestPath(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{fail: true}
	svc := NewPaymentService(db, &fakeGateway{verification: successVerification(5000)}, notifier)

	result, err := svc.VerifyAndRecord(context.Background(), "ref_mailfail", "", "carol@example.com")
	if err != nil {
		t.Fatalf("notification failure must not surface: %v", err)
	}
	if !result.Success {
		t.Fatal("expected success despite notification failure")
	}

	var count int64
	db.Model(&models.Payment{}).Count(&count)
	if count != 1 {
		t.Fatalf("payment must stay committed, got %d rows", count)
	}
}

func TestListPaymentsByEmailCaseInsensitiveNewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, &fakeGateway{}, &fakeNotifier{})

	now := time.Now().UTC()
	createPayment(t, db, "ref_a", "a@b.com", 10, now.Add(-2*time.Hour))
	createPayment(t, db, "ref_b", "A@B.com", 20, now.Add(-time.Hour))
	createPayment(t, db, "ref_c", "other@b.com", 30, now)

	payments, err := svc.ListPaymentsByEmail(context.Background(), "A@B.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("expected 2 payments for the address, got %d", len(payments))
	}
	if payments[0].Reference != "ref_b" || payments[1].Reference != "ref_a" {
		t.Fatalf("expected newest-first ordering, got %s then %s", payments[0].Reference, payments[1].Reference)
	}
}
