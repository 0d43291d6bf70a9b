// Package cache met le menu en cache dans Redis. Quand Redis n'est pas
// configuré, tout retombe directement sur le stockage.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"foodcourt_back_end/internal/database"
	"foodcourt_back_end/internal/models"
	"foodcourt_back_end/internal/storage"
)

const (
	MenuItemTTL = 10 * time.Minute
	MenuListTTL = 2 * time.Minute

	menuListKey = "menu:all"
)

func menuItemKey(id int64) string {
	return "menu_item:" + strconv.FormatInt(id, 10)
}

// GetMenuItem récupère un plat depuis Redis, sinon depuis le stockage
func GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	if database.Redis != nil {
		data, err := database.Redis.Get(ctx, menuItemKey(id)).Result()
		if err == nil {
			var item models.MenuItem
			if json.Unmarshal([]byte(data), &item) == nil {
				return &item, nil
			}
		}
	}

	item, err := database.Store.GetMenuItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if database.Redis != nil {
		jsonData, _ := json.Marshal(item)
		database.Redis.Set(ctx, menuItemKey(id), jsonData, MenuItemTTL)
	}
	return item, nil
}

// ListMenuItems ne met en cache que la liste complète (page d'accueil) ;
// les listes filtrées partent toujours au stockage.
func ListMenuItems(ctx context.Context, filter storage.MenuFilter) ([]models.MenuItem, error) {
	cacheable := filter == storage.MenuFilter{OnlyAvailable: true}

	if cacheable && database.Redis != nil {
		data, err := database.Redis.Get(ctx, menuListKey).Result()
		if err == nil {
			var items []models.MenuItem
			if json.Unmarshal([]byte(data), &items) == nil {
				return items, nil
			}
		}
	}

	items, err := database.Store.ListMenuItems(ctx, filter)
	if err != nil {
		return nil, err
	}

	if cacheable && database.Redis != nil {
		jsonData, _ := json.Marshal(items)
		database.Redis.Set(ctx, menuListKey, jsonData, MenuListTTL)
	}
	return items, nil
}

// InvalidateMenuItem invalide le cache d'un plat (et la liste complète)
func InvalidateMenuItem(ctx context.Context, id int64) {
	if database.Redis == nil {
		return
	}
	database.Redis.Del(ctx, menuItemKey(id), menuListKey)
}
