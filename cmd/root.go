package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	logging "intervue/pkg/logger/pkg"
)

func Execute() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on the environment")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		log.Printf("No config file loaded: %v", err)
	}
	viper.AutomaticEnv()

	if err := logging.InitLogger(); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger := logging.Logger(nil)
	defer logger.Sync()

	startHTTP(logger)
}
