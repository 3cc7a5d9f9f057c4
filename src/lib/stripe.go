package lib

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/stripe/stripe-go/v82"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

// NewStripeClient Replace stripe instance with custom client implementation
func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

// CreateBookingCheckout opens a Checkout Session for a booking. The booking id
// travels in the session metadata so the webhook can settle the right row.
func CreateBookingCheckout(bookingID uint, amount int64, currency string, description string) (*string, *string, error) {
	sc := GetStripeClient()
	appHost := os.Getenv("APP_HOST")
	params := stripe.CheckoutSessionCreateParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(amount),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(fmt.Sprintf("%s/bookings/%d?paid=1", appHost, bookingID)),
		CancelURL:  stripe.String(fmt.Sprintf("%s/bookings/%d?canceled=1", appHost, bookingID)),
		Metadata: map[string]string{
			"booking_id": strconv.FormatUint(uint64(bookingID), 10),
		},
	}
	cs, err := sc.V1CheckoutSessions.Create(context.Background(), &params)
	if err != nil {
		return nil, nil, err
	}
	return &cs.ID, &cs.URL, nil
}
