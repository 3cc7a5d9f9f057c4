package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"tutorpay/src/db"
	"tutorpay/src/models"
	"tutorpay/src/types"
	"tutorpay/src/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func bookingRoutes(authorized *gin.RouterGroup) {
	authorized.POST("/bookings", func(ctx *gin.Context) {
		var body types.CreateBookingRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		clientID := ctx.GetUint("id")
		id, checkoutURL, err := utils.CreateNewBooking(&body, clientID)
		if err != nil {
			log.Printf("Error creating booking for client %d: %s\n", clientID, err.Error())
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "could not create booking"})
			return
		}
		ctx.JSON(http.StatusCreated, gin.H{
			"data":         gin.H{"id": id},
			"checkout_url": checkoutURL,
		})
	})

	authorized.GET("/bookings/:id", func(ctx *gin.Context) {
		atoi, err := strconv.Atoi(ctx.Param("id"))
		if err != nil {
			ctx.Status(http.StatusBadRequest)
			return
		}
		clientID := ctx.GetUint("id")
		var booking models.Booking
		if err := db.GetDb().
			Model(&models.Booking{}).
			Where("id = ?", uint(atoi)).
			First(&booking).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.Status(http.StatusBadRequest)
			return
		}
		if booking.ClientID != clientID && booking.TutorID != clientID {
			ctx.Status(http.StatusForbidden)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"data": &booking})
	})

	authorized.GET("/bookings/:id/transactions", func(ctx *gin.Context) {
		atoi, err := strconv.Atoi(ctx.Param("id"))
		if err != nil {
			ctx.Status(http.StatusBadRequest)
			return
		}
		var txns []models.Transaction
		if err := db.GetDb().
			Where("booking_id = ?", uint(atoi)).
			Find(&txns).
			Error; err != nil {
			ctx.Status(http.StatusBadRequest)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"data": &txns})
	})
}
