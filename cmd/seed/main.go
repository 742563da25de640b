package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"mediagrid-be/internal/bootstrap"
	"mediagrid-be/internal/config"
	"mediagrid-be/internal/pkg/logger"
	"mediagrid-be/internal/platform/docstore"
	"mediagrid-be/internal/platform/identity"
	"mediagrid-be/internal/session"
	"mediagrid-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

type seedUser struct {
	email       string
	displayName string
	bio         string
}

var roster = []seedUser{
	{"alice@mediagrid.dev", "Alice", "Coffee, code and street photography."},
	{"bob@mediagrid.dev", "Bob", "Weekend hiker. Always posting trail shots."},
	{"carla@mediagrid.dev", "Carla", "Digital artist. Commissions open."},
	{"dan@mediagrid.dev", "Dan", "Food pics, mostly ramen."},
	{"tom@mediagrid.dev", "Tom", "Lurking since day one."},
}

const seedPassword = "password123"

func main() {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("Unable to migrate schema: %v", err)
	}

	seedLogger := logger.NewZapLogger(cfg.App.LogFilePath, false)
	provider := identity.NewGormProvider(db, seedLogger)
	docs := docstore.NewGormStore(db)

	ctx := context.Background()

	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	uids := make([]string, 0, len(roster))
	for _, u := range roster {
		id, err := provider.CreateAccount(ctx, "seed", u.email, seedPassword)
		if err != nil {
			fmt.Printf("%s %s: %v\n", yellow("SKIP"), u.email, err)
			continue
		}

		profile := session.UserProfile{
			UID:         id.UID,
			Email:       u.email,
			DisplayName: u.displayName,
			Bio:         u.bio,
			Followers:   []string{},
			Following:   []string{},
		}
		if err := docs.Set(ctx, "users", id.UID, profileDoc(profile), false); err != nil {
			log.Fatalf("Failed to write profile for %s: %v", u.email, err)
		}
		uids = append(uids, id.UID)
		fmt.Printf("%s user %s (%s)\n", green("SEEDED"), u.displayName, id.UID)
	}

	for i, uid := range uids {
		post := docstore.Data{
			"id":             uuid.New().String(),
			"authorUid":      uid,
			"authorName":     roster[i].displayName,
			"authorPhotoUrl": "",
			"content":        fmt.Sprintf("Hello MediaGrid! %s here.", roster[i].displayName),
			"imageUrl":       "",
			"likes":          []interface{}{},
			"createdAt":      time.Now().UTC().Format(time.RFC3339Nano),
		}
		postID := post["id"].(string)
		if err := docs.Set(ctx, "posts", postID, post, false); err != nil {
			log.Fatalf("Failed to write post for %s: %v", uid, err)
		}
		fmt.Printf("%s post %s\n", green("SEEDED"), postID)
	}

	fmt.Println(green("Done."), "Login with any seeded email and password", yellow(seedPassword))
}

func profileDoc(p session.UserProfile) docstore.Data {
	return docstore.Data{
		"uid":         p.UID,
		"email":       p.Email,
		"displayName": p.DisplayName,
		"photoURL":    p.PhotoURL,
		"bio":         p.Bio,
		"followers":   []interface{}{},
		"following":   []interface{}{},
		"isPrivate":   false,
	}
}
