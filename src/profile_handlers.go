package main

import (
	"errors"
	"log"
	"net/http"
	"tutorpay/src/config"
	"tutorpay/src/db"
	"tutorpay/src/models"
	"tutorpay/src/types"
	"tutorpay/src/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func profileRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/signup", func(ctx *gin.Context) {
		var body types.CreateProfileRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// The URL code may also arrive as a query parameter on shared links.
		if body.URLCode == "" {
			body.URLCode = ctx.Query("ref")
		}
		cookieToken, err := ctx.Cookie(config.ReferralCookieName)
		if err != nil {
			cookieToken = ""
		}
		id, err := utils.CreateNewProfile(&body, cookieToken)
		if err != nil {
			log.Printf("Error creating profile for %s: %s\n", body.Email, err.Error())
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "could not create profile"})
			return
		}
		var profile models.Profile
		if err := db.GetDb().
			Model(&models.Profile{}).
			Where("id = ?", id).
			First(&profile).
			Error; err != nil {
			ctx.Status(http.StatusInternalServerError)
			return
		}
		ctx.JSON(http.StatusCreated, gin.H{"data": &profile})
	})
	return apiv1
}

func profileAuthRoutes(authorized *gin.RouterGroup) {
	authorized.GET("/profile", func(ctx *gin.Context) {
		id := ctx.GetUint("id")
		var profile models.Profile
		if err := db.GetDb().
			Model(&models.Profile{}).
			Where("id = ?", id).
			First(&profile).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.Status(http.StatusBadRequest)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"data": &profile})
	})
}
