package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
	"tutorpay/src/db"
	"tutorpay/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_test_secret"

type TestSuite struct {
	suite.Suite
	Mock   sqlmock.Sqlmock
	Router *gin.Engine
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	db.NewDB(gormDB)
	return gormDB, mock
}

func (s *TestSuite) SetupSuite() {
	os.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	os.Setenv("REFERRAL_COOKIE_SECRET", "test-cookie-secret")
	gin.SetMode(gin.TestMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("referralcode", referralCodeValidatorFunc)
	}

	router := setupRouter()
	profileRoutes(router)
	stripeWebhookRoute(router)
	s.Router = router
}

func (s *TestSuite) SetupTest() {
	_, mock := newMockDB(s.T())
	s.Mock = mock
}

func signedWebhookHeader(payload []byte) string {
	ts := time.Now()
	sig := webhook.ComputeSignature(ts, payload, testWebhookSecret)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(sig))
}

func stripeEventPayload(eventID string, eventType string, object string) []byte {
	return fmt.Appendf(nil, `{"id":%q,"api_version":%q,"type":%q,"data":{"object":%s}}`,
		eventID, stripe.APIVersion, eventType, object)
}

func (s *TestSuite) postWebhook(payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/stripe", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func (s *TestSuite) TestWebhookMissingSignature() {
	payload := stripeEventPayload("evt_1", "checkout.session.completed", `{"id":"cs_1","metadata":{"booking_id":"1"}}`)
	w := s.postWebhook(payload, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *TestSuite) TestWebhookBadSignature() {
	payload := stripeEventPayload("evt_1", "checkout.session.completed", `{"id":"cs_1","metadata":{"booking_id":"1"}}`)
	w := s.postWebhook(payload, fmt.Sprintf("t=%d,v1=deadbeef", time.Now().Unix()))
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *TestSuite) TestWebhookUnknownEventAcknowledged() {
	payload := stripeEventPayload("evt_2", "customer.created", `{"id":"cus_1"}`)
	w := s.postWebhook(payload, signedWebhookHeader(payload))
	s.Equal(http.StatusNoContent, w.Code)
	s.NoError(s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestWebhookCheckoutCompletedMissingBookingID() {
	payload := stripeEventPayload("evt_3", "checkout.session.completed", `{"id":"cs_3","metadata":{}}`)
	w := s.postWebhook(payload, signedWebhookHeader(payload))
	s.Equal(http.StatusBadRequest, w.Code)
	s.NoError(s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestWebhookCheckoutCompletedSettles() {
	s.Mock.ExpectBegin()
	s.Mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "client_id", "tutor_id", "agent_id", "amount", "currency", "payment_status"}).
			AddRow(1, 2, 3, 7, 5000, "gbp", string(types.PAYMENT_PENDING)))
	s.Mock.ExpectQuery(`SELECT (.+) FROM "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	s.Mock.ExpectQuery(`INSERT INTO "transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow(uuid.New().String()).
			AddRow(uuid.New().String()).
			AddRow(uuid.New().String()))
	s.Mock.ExpectExec(`UPDATE "bookings"`).WillReturnResult(sqlmock.NewResult(0, 1))
	s.Mock.ExpectCommit()

	payload := stripeEventPayload("evt_4", "checkout.session.completed", `{"id":"cs_4","status":"complete","metadata":{"booking_id":"1"}}`)
	w := s.postWebhook(payload, signedWebhookHeader(payload))
	s.Equal(http.StatusNoContent, w.Code)
	s.NoError(s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestWebhookRedeliveredCheckoutAcknowledged() {
	s.Mock.ExpectBegin()
	s.Mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "client_id", "tutor_id", "agent_id", "amount", "currency", "payment_status"}).
			AddRow(1, 2, 3, 7, 5000, "gbp", string(types.PAYMENT_PAID)))
	s.Mock.ExpectQuery(`SELECT (.+) FROM "transactions"`).
		WillReturnRows(sqlmock.
			NewRows([]string{"id", "booking_id", "checkout_event_id", "kind", "amount", "currency"}).
			AddRow(uuid.New().String(), 1, "cs_4", string(types.TXN_TUTOR_PAYOUT), 4000, "gbp").
			AddRow(uuid.New().String(), 1, "cs_4", string(types.TXN_PLATFORM_FEE), 500, "gbp").
			AddRow(uuid.New().String(), 1, "cs_4", string(types.TXN_REFERRER_COMMISSION), 500, "gbp"))
	s.Mock.ExpectCommit()

	payload := stripeEventPayload("evt_4", "checkout.session.completed", `{"id":"cs_4","status":"complete","metadata":{"booking_id":"1"}}`)
	w := s.postWebhook(payload, signedWebhookHeader(payload))
	s.Equal(http.StatusNoContent, w.Code)
	s.NoError(s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestWebhookSettlementFailureDeadLettersAndAcks() {
	// Booking does not exist: the settlement transaction rolls back, the
	// failure is dead-lettered, and the provider still gets a 2xx.
	s.Mock.ExpectBegin()
	s.Mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	s.Mock.ExpectRollback()
	s.Mock.ExpectBegin()
	s.Mock.ExpectQuery(`INSERT INTO "failed_settlements"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	s.Mock.ExpectCommit()

	payload := stripeEventPayload("evt_5", "checkout.session.completed", `{"id":"cs_5","metadata":{"booking_id":"42"}}`)
	w := s.postWebhook(payload, signedWebhookHeader(payload))
	s.Equal(http.StatusNoContent, w.Code)
	s.NoError(s.Mock.ExpectationsWereMet())
}

func (s *TestSuite) TestWebhookPaymentFailed() {
	s.Mock.ExpectBegin()
	s.Mock.ExpectExec(`UPDATE "bookings"`).WillReturnResult(sqlmock.NewResult(0, 1))
	s.Mock.ExpectCommit()

	payload := stripeEventPayload("evt_6", "payment_intent.payment_failed", `{"id":"pi_1","status":"requires_payment_method","metadata":{"booking_id":"1"}}`)
	w := s.postWebhook(payload, signedWebhookHeader(payload))
	s.Equal(http.StatusNoContent, w.Code)
	s.NoError(s.Mock.ExpectationsWereMet())
}

func TestApiSuite(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
