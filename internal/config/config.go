package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Load charge le fichier d'environnement (ENV_FILE, sinon .env).
// Toute la configuration passe ensuite par os.Getenv.
func Load() {
	file := os.Getenv("ENV_FILE")
	if file == "" {
		file = ".env"
	}

	if err := godotenv.Load(file); err != nil {
		log.Println("⚠️  Aucun fichier", file, "trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier", file, "chargé avec succès")
	}
}
