package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/payment/stripe"
	"github.com/bazaar-next/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultCheckoutTimeout = 5 * time.Second
	maxCheckoutQuantity    = 99
	gatewayFailureReason   = "gateway_request_failed"
)

// PaymentGateway 支付网关（Stripe 兼容）
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, input stripe.CheckoutInput) (*stripe.CheckoutResult, error)
	RetrieveCheckoutSession(ctx context.Context, sessionID string) (*stripe.SessionStatus, error)
	VerifyAndParseWebhook(headers map[string]string, body []byte, now time.Time) (*stripe.WebhookEvent, error)
}

// PaymentEventEnqueuer 支付事件异步派发
type PaymentEventEnqueuer interface {
	EnqueueCheckoutPaymentEvent(eventID string) error
}

// CheckoutService 结算编排服务
type CheckoutService struct {
	cfg         *config.Config
	gateway     PaymentGateway
	sessionRepo repository.CheckoutSessionRepository
	eventRepo   repository.PaymentEventRepository
	productRepo repository.ProductRepository
	enqueuer    PaymentEventEnqueuer
	now         func() time.Time
}

// NewCheckoutService 创建结算服务；enqueuer 为 nil 时 webhook 事件同步处理
func NewCheckoutService(
	cfg *config.Config,
	gateway PaymentGateway,
	sessionRepo repository.CheckoutSessionRepository,
	eventRepo repository.PaymentEventRepository,
	productRepo repository.ProductRepository,
	enqueuer PaymentEventEnqueuer,
) *CheckoutService {
	return &CheckoutService{
		cfg:         cfg,
		gateway:     gateway,
		sessionRepo: sessionRepo,
		eventRepo:   eventRepo,
		productRepo: productRepo,
		enqueuer:    enqueuer,
		now:         time.Now,
	}
}

// CreateCheckoutInput 发起结算输入
type CreateCheckoutInput struct {
	ProductID uint
	Quantity  int
}

// WebhookInput 网关回调输入（原始请求体与头）
type WebhookInput struct {
	Headers map[string]string
	Body    []byte
}

func checkoutLogger(kv ...interface{}) *zap.SugaredLogger {
	return logger.SW(append([]interface{}{"component", "checkout"}, kv...)...)
}

// CreateSession 创建结算会话：INITIATED -> SESSION_CREATED | FAILED
// 网关失败时不做本地重试，返回脱敏后的 ErrPaymentGateway
func (s *CheckoutService) CreateSession(ctx context.Context, actor Account, input CreateCheckoutInput) (*models.CheckoutSession, error) {
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 || quantity > maxCheckoutQuantity {
		return nil, ErrInvalidQuantity
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	currency := s.currency()
	unitAmount, err := stripe.ToMinorAmount(decimal.NewFromInt(product.Price), currency)
	if err != nil {
		return nil, ErrInvalidPrice
	}

	session := &models.CheckoutSession{
		Reference:  uuid.NewString(),
		ProductID:  product.ID,
		Quantity:   quantity,
		UnitAmount: unitAmount,
		Currency:   currency,
		Status:     constants.CheckoutStatusInitiated,
	}
	if customerID := AccountID(actor); customerID != 0 && actor.HasRole(constants.RoleCustomer) {
		session.CustomerID = &customerID
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}
	log := checkoutLogger("checkout_session_id", session.ID, "reference", session.Reference, "product_id", product.ID)

	if s.gateway == nil {
		s.markCreationFailed(session, log, errors.New("gateway not configured"))
		return nil, ErrPaymentGateway
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()
	result, err := s.gateway.CreateCheckoutSession(callCtx, stripe.CheckoutInput{
		Reference:   session.Reference,
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   decimal.NewFromInt(product.Price),
		Quantity:    quantity,
		Currency:    currency,
	})
	if err != nil {
		s.markCreationFailed(session, log, err)
		return nil, ErrPaymentGateway
	}

	updates := map[string]interface{}{
		"status":             constants.CheckoutStatusSessionCreated,
		"gateway_session_id": result.SessionID,
		"payment_intent_id":  result.PaymentIntentID,
		"checkout_url":       result.URL,
	}
	if err := s.sessionRepo.UpdateFields(session.ID, updates); err != nil {
		return nil, err
	}
	session.Status = constants.CheckoutStatusSessionCreated
	session.GatewaySessionID = result.SessionID
	session.PaymentIntentID = result.PaymentIntentID
	session.CheckoutURL = result.URL
	log.Infow("checkout_session_created", "gateway_session_id", result.SessionID)
	return session, nil
}

func (s *CheckoutService) markCreationFailed(session *models.CheckoutSession, log *zap.SugaredLogger, cause error) {
	log.Errorw("checkout_gateway_failed", "error", cause)
	updates := map[string]interface{}{
		"status":         constants.CheckoutStatusFailed,
		"failure_reason": gatewayFailureReason,
	}
	if err := s.sessionRepo.UpdateFields(session.ID, updates); err != nil {
		log.Errorw("checkout_session_mark_failed_error", "error", err)
		return
	}
	session.Status = constants.CheckoutStatusFailed
	session.FailureReason = gatewayFailureReason
}

// HandleWebhook 校验签名后记录事件并派发处理
// 签名通过后一律确认接收，业务处理结果不影响返回
func (s *CheckoutService) HandleWebhook(ctx context.Context, input WebhookInput) error {
	log := checkoutLogger("body_size", len(input.Body))
	if s.gateway == nil {
		log.Errorw("webhook_gateway_not_configured")
		return ErrSignatureInvalid
	}
	event, err := s.gateway.VerifyAndParseWebhook(input.Headers, input.Body, s.now())
	if err != nil {
		switch {
		case errors.Is(err, stripe.ErrSignatureInvalid), errors.Is(err, stripe.ErrConfigInvalid):
			log.Warnw("webhook_signature_rejected", "error", err)
			return ErrSignatureInvalid
		default:
			log.Warnw("webhook_payload_invalid", "error", err)
			return nil
		}
	}
	log = log.With("event_id", event.EventID, "event_type", event.EventType)
	if event.EventID == "" {
		log.Warnw("webhook_event_missing_id")
		return nil
	}

	record := &models.PaymentEvent{
		EventID:         event.EventID,
		EventType:       event.EventType,
		SessionRef:      firstNonEmpty(event.SessionID, event.Reference),
		PaymentIntentID: event.PaymentIntentID,
		Status:          constants.PaymentEventStatusReceived,
		Payload:         encodePayload(event.Raw),
	}
	created, err := s.eventRepo.CreateIfAbsent(record)
	if err != nil {
		log.Errorw("webhook_event_record_failed", "error", err)
		return nil
	}
	if !created {
		log.Infow("webhook_event_duplicate")
		return nil
	}

	if s.enqueuer != nil {
		err := s.enqueuer.EnqueueCheckoutPaymentEvent(event.EventID)
		if err == nil {
			log.Infow("webhook_event_enqueued")
			return nil
		}
		log.Warnw("webhook_event_enqueue_failed", "error", err)
	}
	if err := s.ApplyPaymentEvent(ctx, event.EventID); err != nil {
		log.Errorw("webhook_event_apply_failed", "error", err)
	}
	return nil
}

// ApplyPaymentEvent 按事件类型推进结算会话状态；已处理的事件直接跳过
func (s *CheckoutService) ApplyPaymentEvent(ctx context.Context, eventID string) error {
	event, err := s.eventRepo.GetByEventID(eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return ErrPaymentEventNotFound
	}
	if event.Status != constants.PaymentEventStatusReceived {
		return nil
	}
	log := checkoutLogger("event_id", event.EventID, "event_type", event.EventType)

	target, handled := targetStatusForEvent(event.EventType)
	if !handled {
		if event.EventType == constants.EventPaymentMethodAttached {
			log.Infow("webhook_payment_method_attached", "payment_intent_id", event.PaymentIntentID)
		} else {
			log.Infow("webhook_event_unhandled")
		}
		return s.eventRepo.MarkStatus(event.EventID, constants.PaymentEventStatusIgnored, s.now())
	}

	session, err := s.findSessionForEvent(event)
	if err != nil {
		return err
	}
	if session == nil {
		log.Warnw("webhook_session_not_found", "session_ref", event.SessionRef, "payment_intent_id", event.PaymentIntentID)
		return s.eventRepo.MarkStatus(event.EventID, constants.PaymentEventStatusIgnored, s.now())
	}
	if err := s.transition(session, target, event.PaymentIntentID, log); err != nil {
		return err
	}
	return s.eventRepo.MarkStatus(event.EventID, constants.PaymentEventStatusProcessed, s.now())
}

// SyncSession 主动向网关查询会话状态（管理端补偿）
func (s *CheckoutService) SyncSession(ctx context.Context, id uint) (*models.CheckoutSession, error) {
	session, err := s.GetSession(id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(session.GatewaySessionID) == "" {
		return nil, ErrGatewaySessionMissing
	}
	if s.gateway == nil {
		return nil, ErrPaymentGateway
	}
	log := checkoutLogger("checkout_session_id", session.ID, "gateway_session_id", session.GatewaySessionID)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()
	status, err := s.gateway.RetrieveCheckoutSession(callCtx, session.GatewaySessionID)
	if err != nil {
		log.Errorw("checkout_session_sync_failed", "error", err)
		return nil, ErrPaymentGateway
	}
	var target string
	switch status.Status {
	case stripe.StatusSucceeded:
		target = constants.CheckoutStatusPaymentSucceeded
	case stripe.StatusFailed, stripe.StatusExpired:
		target = constants.CheckoutStatusPaymentFailed
	default:
		return session, nil
	}
	if err := s.transition(session, target, status.PaymentIntentID, log); err != nil {
		return nil, err
	}
	return session, nil
}

// ReconcilePending 对超过 olderThan 仍未收到回调的会话逐个主动同步，返回状态变化的数量
func (s *CheckoutService) ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	sessions, err := s.sessionRepo.ListPendingBefore(s.now().Add(-olderThan), limit)
	if err != nil {
		return 0, err
	}
	changed := 0
	for i := range sessions {
		before := sessions[i].Status
		synced, err := s.SyncSession(ctx, sessions[i].ID)
		if err != nil {
			checkoutLogger("checkout_session_id", sessions[i].ID).Warnw("checkout_reconcile_failed", "error", err)
			continue
		}
		if synced.Status != before {
			changed++
		}
	}
	return changed, nil
}

// GetSession 获取结算会话
func (s *CheckoutService) GetSession(id uint) (*models.CheckoutSession, error) {
	session, err := s.sessionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrCheckoutSessionNotFound
	}
	return session, nil
}

// ListSessions 结算会话列表
func (s *CheckoutService) ListSessions(filter repository.CheckoutSessionListFilter) ([]models.CheckoutSession, int64, error) {
	return s.sessionRepo.List(filter)
}

// ListPaymentEvents 支付事件列表
func (s *CheckoutService) ListPaymentEvents(filter repository.PaymentEventListFilter) ([]models.PaymentEvent, int64, error) {
	return s.eventRepo.List(filter)
}

func (s *CheckoutService) transition(session *models.CheckoutSession, target, paymentIntentID string, log *zap.SugaredLogger) error {
	if !canTransitionCheckout(session.Status, target) {
		log.Infow("checkout_transition_skipped", "from", session.Status, "to", target)
		return nil
	}
	updates := map[string]interface{}{"status": target}
	if paymentIntentID != "" && session.PaymentIntentID == "" {
		updates["payment_intent_id"] = paymentIntentID
		session.PaymentIntentID = paymentIntentID
	}
	if err := s.sessionRepo.UpdateFields(session.ID, updates); err != nil {
		return err
	}
	log.Infow("checkout_status_changed", "checkout_session_id", session.ID, "from", session.Status, "to", target)
	session.Status = target
	return nil
}

func (s *CheckoutService) findSessionForEvent(event *models.PaymentEvent) (*models.CheckoutSession, error) {
	if ref := strings.TrimSpace(event.SessionRef); ref != "" {
		session, err := s.sessionRepo.GetByGatewaySessionID(ref)
		if err != nil || session != nil {
			return session, err
		}
		session, err = s.sessionRepo.GetByReference(ref)
		if err != nil || session != nil {
			return session, err
		}
	}
	return s.sessionRepo.GetByPaymentIntentID(strings.TrimSpace(event.PaymentIntentID))
}

func (s *CheckoutService) timeout() time.Duration {
	if s.cfg != nil && s.cfg.Checkout.TimeoutSeconds > 0 {
		return time.Duration(s.cfg.Checkout.TimeoutSeconds) * time.Second
	}
	return defaultCheckoutTimeout
}

func (s *CheckoutService) currency() string {
	if s.cfg != nil {
		if currency := strings.ToLower(strings.TrimSpace(s.cfg.Checkout.Currency)); currency != "" {
			return currency
		}
	}
	return constants.DefaultCurrency
}

// targetStatusForEvent 事件类型到结算状态的映射；第二个返回值表示是否推进状态
func targetStatusForEvent(eventType string) (string, bool) {
	switch eventType {
	case constants.EventPaymentIntentSucceeded, constants.EventCheckoutSessionCompleted:
		return constants.CheckoutStatusPaymentSucceeded, true
	case constants.EventPaymentIntentPaymentFailed, constants.EventPaymentIntentCanceled, constants.EventCheckoutSessionExpired:
		return constants.CheckoutStatusPaymentFailed, true
	default:
		return "", false
	}
}

// canTransitionCheckout 支付成功为终态；失败后仍允许被后续成功事件覆盖
func canTransitionCheckout(from, to string) bool {
	if from == to {
		return false
	}
	switch from {
	case constants.CheckoutStatusInitiated, constants.CheckoutStatusSessionCreated:
		return to == constants.CheckoutStatusPaymentSucceeded || to == constants.CheckoutStatusPaymentFailed
	case constants.CheckoutStatusPaymentFailed:
		return to == constants.CheckoutStatusPaymentSucceeded
	default:
		return false
	}
}

func encodePayload(raw json.RawMessage) string {
	if !json.Valid(raw) {
		return ""
	}
	return string(raw)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
