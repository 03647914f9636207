package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/blues/catalyst/internal/auth"
	"github.com/blues/catalyst/internal/config"
	"github.com/blues/catalyst/internal/database"
	"github.com/blues/catalyst/internal/model"
	"gorm.io/gorm"
)

var (
	app = kingpin.New("catalystctl", "Administration tool for the catalyst time-tracking service")

	migrateCmd = app.Command("migrate", "Create or update the database schema")

	userCmd       = app.Command("user", "User management commands")
	userCreateCmd = userCmd.Command("create", "Create a user")
	userName      = userCreateCmd.Arg("name", "Display name").Required().String()
	userEmail     = userCreateCmd.Arg("email", "Email address").Required().String()
	userRole      = userCreateCmd.Flag("role", "Role").Default(string(model.RoleDeveloper)).
			Enum(string(model.RoleAdmin), string(model.RoleProjectManager), string(model.RoleDeveloper), string(model.RoleQC), string(model.RoleDesigner))
	userRate = userCreateCmd.Flag("hourly-rate", "Hourly rate").Default("0").Float64()

	tokenCmd    = app.Command("token", "Issue a bearer token for an existing user")
	tokenUserId = tokenCmd.Arg("user-id", "User ID").Required().Int64()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg := config.Load()
	db, err := database.Init(cfg.Database)
	app.FatalIfError(err, "initialize database")

	switch command {
	case migrateCmd.FullCommand():
		fmt.Println("schema is up to date")
	case userCreateCmd.FullCommand():
		handleCreateUser(db)
	case tokenCmd.FullCommand():
		handleIssueToken(db, cfg.Auth)
	}
}

func handleCreateUser(db *gorm.DB) {
	user := &model.UserModel{
		Name:       *userName,
		Email:      *userEmail,
		Role:       model.Role(*userRole),
		IsActive:   true,
		HourlyRate: *userRate,
	}
	app.FatalIfError(db.Create(user).Error, "create user")
	fmt.Printf("created user %d (%s, %s)\n", user.Id, user.Email, user.Role)
}

func handleIssueToken(db *gorm.DB, cfg config.AuthConfig) {
	tokens, err := auth.NewTokenManager(cfg)
	app.FatalIfError(err, "initialize token manager")

	var user model.UserModel
	app.FatalIfError(db.Take(&user, *tokenUserId).Error, "load user %d", *tokenUserId)
	if !user.IsActive {
		app.Fatalf("user %d is inactive", user.Id)
	}

	token, err := tokens.Issue(user.Id, user.Role)
	app.FatalIfError(err, "issue token")
	fmt.Println(token)
}
