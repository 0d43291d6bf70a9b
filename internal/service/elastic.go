package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"foodcourt_back_end/internal/database"
	"foodcourt_back_end/internal/models"
)

const menuIndex = "menu_items"

//
// --- INDEXATION DANS ELASTICSEARCH ---
//

// IndexMenuItem indexe un plat dans Elasticsearch
func IndexMenuItem(item models.MenuItem) error {
	if database.Elastic == nil {
		return nil
	}

	data, _ := json.Marshal(item)
	req := esapi.IndexRequest{
		Index:      menuIndex,
		DocumentID: strconv.FormatInt(item.ID, 10),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}

	res, err := req.Do(context.Background(), database.Elastic)
	if err != nil {
		log.Println("❌ Erreur envoi Elastic:", err)
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("⚠️ Elastic a renvoyé une erreur pour %s: %s", item.Name, res.String())
		return fmt.Errorf("indexation de %s: %s", item.Name, res.String())
	}
	log.Printf("✅ Plat indexé dans Elasticsearch: %s", item.Name)
	return nil
}

// RemoveMenuItem retire un plat de l'index
func RemoveMenuItem(id int64) {
	if database.Elastic == nil {
		return
	}

	req := esapi.DeleteRequest{
		Index:      menuIndex,
		DocumentID: strconv.FormatInt(id, 10),
		Refresh:    "true",
	}
	res, err := req.Do(context.Background(), database.Elastic)
	if err != nil {
		log.Println("❌ Erreur suppression Elastic:", err)
		return
	}
	defer res.Body.Close()
}

// ReindexMenu réindexe le menu complet (back office) et retourne le nombre
// de plats réellement indexés
func ReindexMenu(ctx context.Context, items []models.MenuItem) (int, error) {
	if database.Elastic == nil {
		return 0, errors.New("client Elasticsearch non initialisé")
	}

	indexed := 0
	var lastErr error
	for _, item := range items {
		if err := IndexMenuItem(item); err != nil {
			lastErr = err
			continue
		}
		indexed++
	}
	if lastErr != nil {
		return indexed, fmt.Errorf("%d plat(s) sur %d indexé(s): %w", indexed, len(items), lastErr)
	}
	log.Printf("✅ %d plat(s) réindexé(s)", indexed)
	return indexed, nil
}

//
// --- RECHERCHE DANS ELASTICSEARCH ---
//

// SearchMenu cherche des plats par nom, description ou catégorie
func SearchMenu(query string) ([]map[string]interface{}, error) {
	if database.Elastic == nil {
		return nil, errors.New("client Elasticsearch non initialisé")
	}

	var buf bytes.Buffer
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"name", "description", "category"},
			},
		},
	}

	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %v", err)
	}

	req := esapi.SearchRequest{
		Index: []string{menuIndex},
		Body:  &buf,
	}
	res, err := req.Do(context.Background(), database.Elastic)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %v", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		json.NewDecoder(res.Body).Decode(&e)
		log.Printf("❌ Elasticsearch erreur: %+v", e)
		return nil, errors.New("index non trouvé ou vide")
	}

	var r map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("erreur décodage JSON: %v", err)
	}

	hitsData, ok := r["hits"].(map[string]interface{})
	if !ok {
		return nil, errors.New("réponse Elastic invalide (pas de hits)")
	}

	hitsArray, ok := hitsData["hits"].([]interface{})
	if !ok {
		return nil, errors.New("aucun résultat trouvé")
	}

	results := make([]map[string]interface{}, 0, len(hitsArray))
	for _, hit := range hitsArray {
		hitMap, _ := hit.(map[string]interface{})
		if source, ok := hitMap["_source"].(map[string]interface{}); ok {
			results = append(results, source)
		}
	}

	return results, nil
}
