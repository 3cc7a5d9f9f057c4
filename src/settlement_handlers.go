package main

import (
	"log"
	"net/http"
	"strconv"
	"tutorpay/src/common"
	"tutorpay/src/db"
	"tutorpay/src/models"
	"tutorpay/src/types"

	"github.com/gin-gonic/gin"
)

// settlementRoutes exposes the failure-queue contract the out-of-band
// reprocessor consumes: read failed rows, retry, mark resolved. When and how
// often retries run is the reprocessor's business, not this service's.
func settlementRoutes(authorized *gin.RouterGroup) {
	authorized.GET("/settlements/failed", func(ctx *gin.Context) {
		rows, err := common.ListFailedSettlements(types.SETTLEMENT_FAILED)
		if err != nil {
			log.Printf("Error listing failed settlements: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"data": &rows})
	})

	authorized.POST("/settlements/failed/:id/retry", func(ctx *gin.Context) {
		atoi, err := strconv.Atoi(ctx.Param("id"))
		if err != nil {
			ctx.Status(http.StatusBadRequest)
			return
		}
		var row models.FailedSettlement
		if err := db.GetDb().
			Where("id = ? AND status = ?", uint(atoi), types.SETTLEMENT_FAILED).
			First(&row).
			Error; err != nil {
			ctx.Status(http.StatusNotFound)
			return
		}
		if row.BookingID == nil {
			ctx.JSON(http.StatusConflict, gin.H{"error": "no booking id recorded for this event"})
			return
		}
		checkoutEventID := row.EventID
		if row.CheckoutSessionID != nil {
			checkoutEventID = *row.CheckoutSessionID
		}
		result, err := common.Settle(*row.BookingID, checkoutEventID)
		if err != nil {
			log.Printf("Retried settlement for event %s still failing: %s\n", row.EventID, err.Error())
			ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if err := common.ResolveFailedSettlement(row.ID); err != nil {
			log.Printf("Error resolving failed settlement %d: %s\n", row.ID, err.Error())
			ctx.Status(http.StatusInternalServerError)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"data": result})
	})
}
