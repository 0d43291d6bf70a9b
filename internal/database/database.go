package database

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"

	"foodcourt_back_end/internal/storage"
	"foodcourt_back_end/internal/storage/memory"
	mongostore "foodcourt_back_end/internal/storage/mongo"
	"foodcourt_back_end/internal/storage/sqlite"
)

// --- Variables Globales ---
var (
	Store   storage.Store
	Redis   *redis.Client
	Elastic *elasticsearch.Client
	MinIO   *minio.Client
)

// ConnectDatabases ouvre le backend de persistance configuré puis les
// services annexes (Redis, Elasticsearch, MinIO). Les services annexes sont
// optionnels : sans eux les handlers retombent sur le stockage seul.
func ConnectDatabases() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. Backend de persistance (memory | sqlite | mongo)
	if err := openStore(ctx); err != nil {
		log.Fatalf("❌ Échec initialisation du stockage: %v", err)
	}

	// 2. Redis (cache du menu)
	connectRedis(ctx)

	// 3. Elasticsearch (recherche dans le menu)
	connectElastic()

	// 4. MinIO (images des plats)
	connectMinIO(ctx)

	log.Println("✅ Toutes les bases de données sont connectées")
}

// openStore choisit le backend via STORAGE_BACKEND. Les trois backends
// implémentent le même contrat storage.Store.
func openStore(ctx context.Context) error {
	backend := os.Getenv("STORAGE_BACKEND")
	if backend == "" {
		backend = "memory"
	}

	switch backend {
	case "memory":
		Store = memory.New()
		log.Println("✅ Stockage en mémoire initialisé")

	case "sqlite":
		path := os.Getenv("SQLITE_PATH")
		if path == "" {
			path = "foodcourt.db"
		}
		s, err := sqlite.Open(path)
		if err != nil {
			return err
		}
		Store = s
		log.Println("✅ Stockage SQLite initialisé :", path)

	case "mongo":
		uri := os.Getenv("MONGO_URI")
		if uri == "" {
			uri = "mongodb://localhost:27017"
		}
		dbName := os.Getenv("MONGO_DB")
		if dbName == "" {
			dbName = "foodcourt"
		}
		s, err := mongostore.Open(ctx, uri, dbName)
		if err != nil {
			return err
		}
		Store = s
		log.Println("✅ Stockage MongoDB initialisé :", dbName)

	default:
		log.Fatalf("❌ STORAGE_BACKEND inconnu : %s (attendu memory, sqlite ou mongo)", backend)
	}
	return nil
}

// CloseStore ferme le backend de persistance
func CloseStore() {
	if Store == nil {
		return
	}
	if err := Store.Close(); err != nil {
		log.Println("⚠️ Erreur fermeture stockage:", err)
	}
}

// =============================================
// REDIS
// =============================================
func connectRedis(ctx context.Context) {
	addr := os.Getenv("REDIS_HOST")
	if addr == "" {
		log.Println("⚠️ REDIS_HOST non défini — cache du menu désactivé")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		log.Println("⚠️ Redis injoignable — cache du menu désactivé:", err)
		return
	}

	Redis = client
	log.Println("✅ Connecté à Redis")
}

// =============================================
// ELASTICSEARCH
// =============================================
func connectElastic() {
	url := os.Getenv("ELASTIC_URL")
	if url == "" {
		log.Println("⚠️ ELASTIC_URL non défini — recherche Elasticsearch désactivée")
		return
	}

	cfg := elasticsearch.Config{
		Addresses: []string{url},
		Username:  os.Getenv("ELASTIC_USER"),
		Password:  os.Getenv("ELASTIC_PASSWORD"),
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		log.Println("⚠️ Erreur création client Elasticsearch:", err)
		return
	}

	res, err := client.Info()
	if err != nil {
		log.Println("⚠️ Elasticsearch injoignable — recherche désactivée:", err)
		return
	}
	defer res.Body.Close()

	Elastic = client
	log.Println("✅ Connecté à Elasticsearch")
}

// =============================================
// MINIO
// =============================================
func connectMinIO(ctx context.Context) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		log.Println("⚠️ MINIO_ENDPOINT non défini — upload d'images désactivé")
		return
	}
	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		log.Println("⚠️ Erreur connexion MinIO:", err)
		return
	}

	bucketName := os.Getenv("MINIO_BUCKET")
	if bucketName == "" {
		bucketName = "foodcourt-images"
	}
	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		log.Println("⚠️ Erreur vérification bucket MinIO:", err)
		return
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			log.Println("⚠️ Erreur création bucket MinIO:", err)
			return
		}
		log.Println("🪣 Bucket créé :", bucketName)
	} else {
		log.Println("🪣 Bucket MinIO déjà présent :", bucketName)
	}

	MinIO = client
	log.Println("✅ Connecté à MinIO :", endpoint)
}
