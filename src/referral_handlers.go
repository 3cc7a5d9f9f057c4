package main

import (
	"log"
	"net/http"
	"tutorpay/src/config"
	"tutorpay/src/db"
	"tutorpay/src/lib"
	"tutorpay/src/models"
	"tutorpay/src/types"
	"tutorpay/src/utils"

	"github.com/gin-gonic/gin"
)

const referralCookieMaxAge = 30 * 24 * 60 * 60

func referralRoutes(authorized *gin.RouterGroup) {
	// An agent shares a link before the referred person exists: the row is
	// created up front in Referred status and the signed cookie token ties a
	// later signup back to it.
	authorized.POST("/referrals", func(ctx *gin.Context) {
		agentID := ctx.GetUint("id")
		referral := models.Referral{
			AgentID: agentID,
			Status:  types.REFERRAL_REFERRED,
		}
		if err := db.GetDb().Create(&referral).Error; err != nil {
			log.Printf("Error creating referral for agent %d: %s\n", agentID, err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		token := lib.NewReferralCookieToken(referral.ID, config.GetReferralCookieSecret())
		ctx.SetCookie(config.ReferralCookieName, token, referralCookieMaxAge, "/", "", utils.IsProd(), true)
		ctx.JSON(http.StatusCreated, gin.H{
			"data":  &referral,
			"token": token,
		})
	})

	authorized.GET("/referrals", func(ctx *gin.Context) {
		agentID := ctx.GetUint("id")
		var referrals []models.Referral
		if err := db.GetDb().
			Where("agent_id = ?", agentID).
			Order("created_at DESC").
			Find(&referrals).
			Error; err != nil {
			log.Printf("Error listing referrals for agent %d: %s\n", agentID, err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"data": &referrals})
	})
}
