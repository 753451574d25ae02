package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/payment/stripe"
	"github.com/bazaar-next/internal/repository"
)

type fakeEnqueuer struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (f *fakeEnqueuer) EnqueueCheckoutPaymentEvent(eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, eventID)
	return nil
}

func newCheckoutTestService(t *testing.T, env *serviceTestEnv, handler http.HandlerFunc, enqueuer PaymentEventEnqueuer) *CheckoutService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	gateway := stripe.NewClient(stripe.Config{
		SecretKey:     env.cfg.Checkout.SecretKey,
		WebhookSecret: env.cfg.Checkout.WebhookSecret,
		SuccessURL:    env.cfg.Checkout.SuccessURL,
		CancelURL:     env.cfg.Checkout.CancelURL,
		APIBaseURL:    server.URL,
		Timeout:       time.Second,
	})
	return NewCheckoutService(env.cfg, gateway, env.sessionRepo, env.eventRepo, env.productRepo, enqueuer)
}

func gatewayOK(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.example.com/cs_test_1","payment_intent":"pi_test_1"}`))
}

func signedWebhook(t *testing.T, secret string, payload map[string]interface{}) WebhookInput {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return WebhookInput{
		Headers: map[string]string{
			stripe.SignatureHeader: stripe.SignatureHeaderValue(secret, time.Now().Unix(), body),
		},
		Body: body,
	}
}

func paymentIntentEvent(eventID, eventType, reference string) map[string]interface{} {
	return map[string]interface{}{
		"id":   eventID,
		"type": eventType,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object":   "payment_intent",
				"id":       "pi_test_1",
				"amount":   2500,
				"currency": "usd",
				"metadata": map[string]interface{}{"reference": reference},
			},
		},
	}
}

func TestCheckoutCreateSessionSuccess(t *testing.T) {
	env := setupServiceTest(t)
	seller := env.register(t, constants.RoleSeller, "seller@example.com")
	customer := env.register(t, constants.RoleCustomer, "customer@example.com")
	product := env.createProduct(t, seller, "Games", "Chess", 25)
	svc := newCheckoutTestService(t, env, gatewayOK, nil)

	session, err := svc.CreateSession(context.Background(), customer, CreateCheckoutInput{ProductID: product.ID})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if session.Status != constants.CheckoutStatusSessionCreated {
		t.Fatalf("unexpected status: %s", session.Status)
	}
	if session.CheckoutURL != "https://checkout.example.com/cs_test_1" || session.Quantity != 1 {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.UnitAmount != 2500 || session.Currency != "usd" {
		t.Fatalf("unexpected amount: %d %s", session.UnitAmount, session.Currency)
	}
	if session.CustomerID == nil || *session.CustomerID != customer.Base().ID {
		t.Fatalf("session should record customer id")
	}

	stored, err := svc.GetSession(session.ID)
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	if stored.GatewaySessionID != "cs_test_1" || stored.PaymentIntentID != "pi_test_1" {
		t.Fatalf("gateway ids not persisted: %+v", stored)
	}

	if _, err := svc.CreateSession(context.Background(), customer, CreateCheckoutInput{ProductID: product.ID, Quantity: 100}); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("quantity over limit want validation error, got %v", err)
	}
	if _, err := svc.CreateSession(context.Background(), customer, CreateCheckoutInput{ProductID: 9999}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("unknown product want not found, got %v", err)
	}
}

func TestCheckoutCreateSessionGatewayFailure(t *testing.T) {
	env := setupServiceTest(t)
	seller := env.register(t, constants.RoleSeller, "seller@example.com")
	product := env.createProduct(t, seller, "Games", "Go board", 40)
	svc := newCheckoutTestService(t, env, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream exploded: key sk_test_123"}}`))
	}, nil)

	session, err := svc.CreateSession(context.Background(), nil, CreateCheckoutInput{ProductID: product.ID, Quantity: 2})
	if !errors.Is(err, ErrPaymentGateway) || session != nil {
		t.Fatalf("want payment gateway error, got session=%v err=%v", session, err)
	}
	if strings.Contains(err.Error(), "sk_test") || strings.Contains(err.Error(), "502") {
		t.Fatalf("gateway details leaked: %v", err)
	}

	sessions, total, err := svc.ListSessions(repository.CheckoutSessionListFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list sessions failed: %v", err)
	}
	if total != 1 || sessions[0].Status != constants.CheckoutStatusFailed || sessions[0].FailureReason != gatewayFailureReason {
		t.Fatalf("failed session not recorded: %+v", sessions)
	}
}

func TestCheckoutWebhookRejectsBadSignature(t *testing.T) {
	env := setupServiceTest(t)
	svc := newCheckoutTestService(t, env, gatewayOK, nil)

	input := signedWebhook(t, "whsec_wrong", paymentIntentEvent("evt_bad", constants.EventPaymentIntentSucceeded, "ref"))
	if err := svc.HandleWebhook(context.Background(), input); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("want signature error, got %v", err)
	}
	if err := svc.HandleWebhook(context.Background(), WebhookInput{Body: []byte(`{}`)}); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("missing header want signature error, got %v", err)
	}

	_, total, err := svc.ListPaymentEvents(repository.PaymentEventListFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list events failed: %v", err)
	}
	if total != 0 {
		t.Fatalf("rejected webhooks should not be recorded, got %d", total)
	}
}

func TestCheckoutWebhookAppliesPaymentOnce(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	seller := env.register(t, constants.RoleSeller, "seller@example.com")
	product := env.createProduct(t, seller, "Games", "Cards", 5)
	svc := newCheckoutTestService(t, env, gatewayOK, nil)

	session, err := svc.CreateSession(ctx, nil, CreateCheckoutInput{ProductID: product.ID})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	failed := signedWebhook(t, env.cfg.Checkout.WebhookSecret, paymentIntentEvent("evt_1", constants.EventPaymentIntentPaymentFailed, session.Reference))
	if err := svc.HandleWebhook(ctx, failed); err != nil {
		t.Fatalf("handle failed event: %v", err)
	}
	assertSessionStatus(t, svc, session.ID, constants.CheckoutStatusPaymentFailed)

	succeeded := signedWebhook(t, env.cfg.Checkout.WebhookSecret, paymentIntentEvent("evt_2", constants.EventPaymentIntentSucceeded, session.Reference))
	for i := 0; i < 2; i++ {
		if err := svc.HandleWebhook(ctx, succeeded); err != nil {
			t.Fatalf("handle succeeded event #%d: %v", i, err)
		}
	}
	assertSessionStatus(t, svc, session.ID, constants.CheckoutStatusPaymentSucceeded)

	late := signedWebhook(t, env.cfg.Checkout.WebhookSecret, paymentIntentEvent("evt_3", constants.EventPaymentIntentCanceled, session.Reference))
	if err := svc.HandleWebhook(ctx, late); err != nil {
		t.Fatalf("handle late event: %v", err)
	}
	assertSessionStatus(t, svc, session.ID, constants.CheckoutStatusPaymentSucceeded)

	events, total, err := svc.ListPaymentEvents(repository.PaymentEventListFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list events failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("duplicate event should be stored once, got %d events", total)
	}
	for _, event := range events {
		if event.Status != constants.PaymentEventStatusProcessed {
			t.Fatalf("event %s not processed: %s", event.EventID, event.Status)
		}
	}
}

func TestCheckoutWebhookUnhandledAndMalformed(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	svc := newCheckoutTestService(t, env, gatewayOK, nil)

	attached := signedWebhook(t, env.cfg.Checkout.WebhookSecret, map[string]interface{}{
		"id":   "evt_pm",
		"type": constants.EventPaymentMethodAttached,
		"data": map[string]interface{}{"object": map[string]interface{}{"object": "payment_method", "id": "pm_1"}},
	})
	if err := svc.HandleWebhook(ctx, attached); err != nil {
		t.Fatalf("payment_method.attached should be acknowledged: %v", err)
	}
	event, err := env.eventRepo.GetByEventID("evt_pm")
	if err != nil || event == nil {
		t.Fatalf("event not recorded: %v", err)
	}
	if event.Status != constants.PaymentEventStatusIgnored {
		t.Fatalf("unexpected status: %s", event.Status)
	}

	orphan := signedWebhook(t, env.cfg.Checkout.WebhookSecret, paymentIntentEvent("evt_orphan", constants.EventPaymentIntentSucceeded, "missing-ref"))
	if err := svc.HandleWebhook(ctx, orphan); err != nil {
		t.Fatalf("orphan event should be acknowledged: %v", err)
	}

	body := []byte(`{"id":"evt_broken"}`)
	malformed := WebhookInput{
		Headers: map[string]string{stripe.SignatureHeader: stripe.SignatureHeaderValue(env.cfg.Checkout.WebhookSecret, time.Now().Unix(), body)},
		Body:    body,
	}
	if err := svc.HandleWebhook(ctx, malformed); err != nil {
		t.Fatalf("signed but malformed payload should be acknowledged: %v", err)
	}
}

func TestCheckoutWebhookEnqueuesEvent(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	seller := env.register(t, constants.RoleSeller, "seller@example.com")
	product := env.createProduct(t, seller, "Games", "Dice", 3)
	enqueuer := &fakeEnqueuer{}
	svc := newCheckoutTestService(t, env, gatewayOK, enqueuer)

	session, err := svc.CreateSession(ctx, nil, CreateCheckoutInput{ProductID: product.ID})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	input := signedWebhook(t, env.cfg.Checkout.WebhookSecret, paymentIntentEvent("evt_q", constants.EventPaymentIntentSucceeded, session.Reference))
	if err := svc.HandleWebhook(ctx, input); err != nil {
		t.Fatalf("handle webhook failed: %v", err)
	}
	if len(enqueuer.events) != 1 || enqueuer.events[0] != "evt_q" {
		t.Fatalf("event should be enqueued, got %v", enqueuer.events)
	}
	assertSessionStatus(t, svc, session.ID, constants.CheckoutStatusSessionCreated)

	if err := svc.ApplyPaymentEvent(ctx, "evt_q"); err != nil {
		t.Fatalf("apply event failed: %v", err)
	}
	assertSessionStatus(t, svc, session.ID, constants.CheckoutStatusPaymentSucceeded)
	if err := svc.ApplyPaymentEvent(ctx, "evt_q"); err != nil {
		t.Fatalf("re-apply should be a no-op: %v", err)
	}
	if err := svc.ApplyPaymentEvent(ctx, "evt_unknown"); !errors.Is(err, ErrPaymentEventNotFound) {
		t.Fatalf("unknown event want not found, got %v", err)
	}

	enqueuer.err = errors.New("queue down")
	second, err := svc.CreateSession(ctx, nil, CreateCheckoutInput{ProductID: product.ID})
	if err != nil {
		t.Fatalf("create second session failed: %v", err)
	}
	fallback := signedWebhook(t, env.cfg.Checkout.WebhookSecret, paymentIntentEvent("evt_fallback", constants.EventPaymentIntentSucceeded, second.Reference))
	if err := svc.HandleWebhook(ctx, fallback); err != nil {
		t.Fatalf("handle webhook with queue down failed: %v", err)
	}
	assertSessionStatus(t, svc, second.ID, constants.CheckoutStatusPaymentSucceeded)
}

func TestCanTransitionCheckout(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{constants.CheckoutStatusInitiated, constants.CheckoutStatusPaymentSucceeded, true},
		{constants.CheckoutStatusSessionCreated, constants.CheckoutStatusPaymentFailed, true},
		{constants.CheckoutStatusPaymentFailed, constants.CheckoutStatusPaymentSucceeded, true},
		{constants.CheckoutStatusPaymentSucceeded, constants.CheckoutStatusPaymentFailed, false},
		{constants.CheckoutStatusFailed, constants.CheckoutStatusPaymentSucceeded, false},
		{constants.CheckoutStatusSessionCreated, constants.CheckoutStatusSessionCreated, false},
	}
	for _, tc := range cases {
		if got := canTransitionCheckout(tc.from, tc.to); got != tc.want {
			t.Fatalf("canTransitionCheckout(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func assertSessionStatus(t *testing.T, svc *CheckoutService, id uint, want string) {
	t.Helper()
	session, err := svc.GetSession(id)
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	if session.Status != want {
		t.Fatalf("unexpected session status: got %s want %s", session.Status, want)
	}
}

func TestCheckoutReconcilePending(t *testing.T) {
	env := setupServiceTest(t)
	ctx := context.Background()
	seller := env.register(t, constants.RoleSeller, "seller@example.com")
	product := env.createProduct(t, seller, "Games", "Puzzle", 8)
	svc := newCheckoutTestService(t, env, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/v1/checkout/sessions/cs_test_1" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"cs_test_1","status":"complete","payment_status":"paid","payment_intent":"pi_test_1"}`))
			return
		}
		gatewayOK(w, r)
	}, nil)

	session, err := svc.CreateSession(ctx, nil, CreateCheckoutInput{ProductID: product.ID})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	changed, err := svc.ReconcilePending(ctx, time.Hour, 10)
	if err != nil || changed != 0 {
		t.Fatalf("fresh sessions should be skipped, changed=%d err=%v", changed, err)
	}
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	changed, err = svc.ReconcilePending(ctx, time.Hour, 10)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if changed != 1 {
		t.Fatalf("expected one session to change, got %d", changed)
	}
	assertSessionStatus(t, svc, session.ID, constants.CheckoutStatusPaymentSucceeded)
}
