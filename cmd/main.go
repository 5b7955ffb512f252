package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"kitchenviz/config"
	"kitchenviz/controllers"
	"kitchenviz/database"
	"kitchenviz/notify"
	"kitchenviz/payment"
	"kitchenviz/repository"
	"kitchenviz/routes"
	"kitchenviz/service"
)

func main() {

	config.SetupLogger()
	cfg := config.Load()

	database.ConnectMongo(cfg.MongoURI, cfg.DBName)
	database.InitCollections()

	gateway := payment.NewClient(payment.Config{
		MerchantID: cfg.PhonePeMerchantID,
		SaltKey:    cfg.PhonePeSaltKey,
		SaltIndex:  cfg.PhonePeSaltIndex,
		BaseURL:    cfg.PhonePeBaseURL,
	})

	mailer := notify.NewSMTPMailer(notify.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	orderSvc := service.NewOrderService(
		repository.NewOrderStore(database.DB),
		repository.NewProductStore(database.DB),
		gateway,
		mailer,
		cfg.BackendURL,
	)

	r := gin.Default()
	r.SetTrustedProxies(nil)
	r.Use(cors.Default())
	routes.RegisterRoutes(r, controllers.NewOrderController(orderSvc, cfg.FrontendURL))

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
