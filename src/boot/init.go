package boot

import (
	"log"
	"tutorpay/src/db"
	"tutorpay/src/models"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.Profile{},
		&models.Referral{},
		&models.Booking{},
		&models.Transaction{},
		&models.FailedSettlement{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}
