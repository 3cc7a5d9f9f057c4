package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"tutorpay/src/common"
	"tutorpay/src/lib"
	"tutorpay/src/types"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

func stripeWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/stripe", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
		event, err := webhook.ConstructEvent(payload, ctx.GetHeader("Stripe-Signature"), whsecret)
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s\n", event.Type)
		switch event.Type {
		case "checkout.session.completed":
			var cs stripe.CheckoutSession
			err := json.Unmarshal(event.Data.Raw, &cs)
			if err != nil {
				log.Printf("[Stripe] Error parsing CheckoutSession: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			log.Printf("[CheckoutSession] ID: %s %s\n", cs.ID, cs.Status)
			bookingID, ok := bookingIdFromMetadata(cs.Metadata)
			if !ok {
				log.Printf("[%s] Missing booking_id in Metadata: %v\n", cs.ID, cs.Metadata)
				ctx.Status(http.StatusBadRequest)
				return
			}
			result, err := common.Settle(bookingID, cs.ID)
			if err != nil {
				var serr *common.SettlementError
				if !errors.As(err, &serr) {
					serr = &common.SettlementError{Reason: common.REASON_STORE_UNAVAILABLE, BookingID: bookingID, Err: err}
				}
				log.Printf("Settlement failed for event %s: %s\n", event.ID, serr.Error())
				deadLetter(event.ID, string(event.Type), &bookingID, &cs.ID, serr)
				break
			}
			if result.AlreadySettled {
				log.Printf("[%s] Booking %d was already settled, acknowledging redelivery\n", event.ID, bookingID)
			}
		case "checkout.session.async_payment_failed":
			var cs stripe.CheckoutSession
			err := json.Unmarshal(event.Data.Raw, &cs)
			if err != nil {
				log.Printf("[Stripe] Error parsing CheckoutSession: %s\n", err.Error())
				break
			}
			bookingID, ok := bookingIdFromMetadata(cs.Metadata)
			if !ok {
				log.Printf("[%s] Missing booking_id in Metadata: %v\n", cs.ID, cs.Metadata)
				break
			}
			if err := common.HandlePaymentFailed(bookingID); err != nil {
				log.Printf("Error marking booking %d failed: %s\n", bookingID, err.Error())
			}
		case "payment_intent.payment_failed":
			var pi stripe.PaymentIntent
			err := json.Unmarshal(event.Data.Raw, &pi)
			if err != nil {
				log.Printf("[Stripe] Error parsing PaymentIntent: %s\n", err.Error())
				break
			}
			log.Printf("[PaymentIntent] ID: %s %s\n", pi.ID, pi.Status)
			bookingID, ok := bookingIdFromMetadata(pi.Metadata)
			if !ok {
				log.Printf("[%s] Missing booking_id in Metadata: %v\n", pi.ID, pi.Metadata)
				break
			}
			if err := common.HandlePaymentFailed(bookingID); err != nil {
				log.Printf("Error marking booking %d failed: %s\n", bookingID, err.Error())
			}
		}
		ctx.Status(http.StatusNoContent)
	})
	return apiv1
}

func bookingIdFromMetadata(md map[string]string) (uint, bool) {
	raw, ok := md["booking_id"]
	if !ok {
		return 0, false
	}
	atoi, err := strconv.Atoi(raw)
	if err != nil || atoi < 1 {
		return 0, false
	}
	return uint(atoi), true
}

// deadLetter records a failed settlement and notifies the out-of-band
// reprocessor queue. The webhook still acknowledges the provider afterwards;
// retrying an event the engine rejected cannot self-heal.
func deadLetter(eventID string, eventType string, bookingID *uint, checkoutSessionID *string, cause error) {
	if err := common.RecordFailedSettlement(eventID, eventType, bookingID, checkoutSessionID, cause); err != nil {
		log.Printf("Error recording failed settlement for event %s: %s\n", eventID, err.Error())
		return
	}
	apiEnv := os.Getenv("API_ENV")
	if apiEnv != string(types.Test) && apiEnv != string(types.Production) {
		return
	}
	bPayload, _ := json.Marshal(map[string]any{
		"source":   eventType,
		"event_id": eventID,
		"booking":  bookingID,
		"error":    cause.Error(),
	})
	if err := lib.SQSPublish("SettlementFailures", string(bPayload)); err != nil {
		log.Printf("Could not notify reprocessor queue for event %s: %s\n", eventID, err.Error())
	}
}
